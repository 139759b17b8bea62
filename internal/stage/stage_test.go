package stage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeStage(name, path, content string, calls *int) Stage {
	return Stage{
		Name:    name,
		Outputs: []string{path},
		Run: func(ctx context.Context) error {
			*calls++
			return WriteFileAtomic(path, func(w io.Writer) error {
				_, err := io.WriteString(w, content)
				return err
			})
		},
	}
}

func TestRunnerSkipsExisting(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "a.txt")
	calls := 0

	r := NewRunner(nil)
	r.Add(writeStage("a", out, "first", &calls))
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	r = NewRunner(nil)
	r.Add(writeStage("a", out, "second", &calls))
	results, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if len(results) != 1 || !results[0].Skipped {
		t.Errorf("results = %+v, want one skipped", results)
	}
	data, _ := os.ReadFile(out)
	if string(data) != "first" {
		t.Errorf("output = %q, want untouched %q", data, "first")
	}
}

func TestRunnerForce(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "a.txt")
	calls := 0

	for i := 0; i < 2; i++ {
		r := NewRunner(nil, WithForce(true))
		r.Add(writeStage("a", out, fmt.Sprint(i), &calls))
		if _, err := r.Run(context.Background()); err != nil {
			t.Fatalf("Run error: %v", err)
		}
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	data, _ := os.ReadFile(out)
	if string(data) != "1" {
		t.Errorf("output = %q, want 1", data)
	}
}

func TestRunnerRange(t *testing.T) {
	dir := t.TempDir()
	calls := make([]int, 4)

	r := NewRunner(nil, WithRange(1, 2))
	for i := range calls {
		r.Add(writeStage(fmt.Sprint(i), filepath.Join(dir, fmt.Sprint(i)), "x", &calls[i]))
	}
	results, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	want := []int{0, 1, 1, 0}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("stage %d calls = %d, want %d", i, calls[i], want[i])
		}
	}
	if len(results) != 2 {
		t.Errorf("len(results) = %d, want 2", len(results))
	}
}

func TestRunnerStopsOnError(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "bad.txt")
	later := 0

	r := NewRunner(nil)
	r.Add(Stage{
		Name:    "bad",
		Outputs: []string{out},
		Run: func(ctx context.Context) error {
			return WriteFileAtomic(out, func(w io.Writer) error {
				io.WriteString(w, "partial")
				return fmt.Errorf("boom")
			})
		},
	})
	r.Add(writeStage("later", filepath.Join(dir, "later.txt"), "x", &later))

	if _, err := r.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if later != 0 {
		t.Error("stage after failure should not run")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("partial output left behind: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestRunnerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0

	r := NewRunner(nil)
	r.Add(writeStage("a", filepath.Join(t.TempDir(), "a"), "x", &calls))
	if _, err := r.Run(ctx); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}

func TestRunnerNoOutputsAlwaysRuns(t *testing.T) {
	calls := 0
	r := NewRunner(nil)
	r.Add(Stage{Name: "check", Run: func(ctx context.Context) error { calls++; return nil }})
	for i := 0; i < 2; i++ {
		if _, err := r.Run(context.Background()); err != nil {
			t.Fatalf("Run error: %v", err)
		}
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}
