package language

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// LoadARPA reads a model in ARPA format. ARPA scores are base-10 and are
// converted to natural log.
func LoadARPA(r io.Reader) (*NGramModel, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	model := NewNGramModel(0)
	counts := make(map[int]int)

	const (
		preamble = iota
		header
		body
		done
	)
	state := preamble
	order := 0
	lineNum := 0

	for state != done && scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == `\data\`:
			state = header
			continue
		case line == `\end\`:
			state = done
			continue
		case state == preamble:
			continue
		case strings.HasPrefix(line, `\`) && strings.HasSuffix(line, "-grams:"):
			n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(line, `\`), "-grams:"))
			if err != nil || n < 1 || n > 3 {
				return nil, fmt.Errorf("line %d: unsupported section %q", lineNum, line)
			}
			state = body
			order = n
			continue
		}

		if state == header {
			if !strings.HasPrefix(line, "ngram ") {
				return nil, fmt.Errorf("line %d: unexpected %q in \\data\\ header", lineNum, line)
			}
			n, c, err := parseCount(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			counts[n] = c
			if n > model.Order {
				model.Order = n
			}
			continue
		}

		if err := parseNGramLine(model, order, line); err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNum)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read ARPA")
	}
	if state != done {
		return nil, fmt.Errorf("missing \\end\\ marker")
	}

	got := map[int]int{1: len(model.Unigrams), 2: len(model.Bigrams), 3: len(model.Trigrams)}
	for n, want := range counts {
		if got[n] != want {
			return nil, fmt.Errorf("header declares %d %d-grams, found %d", want, n, got[n])
		}
	}
	return model, nil
}

func parseCount(line string) (order, count int, err error) {
	parts := strings.SplitN(strings.TrimPrefix(line, "ngram "), "=", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed count %q", line)
	}
	order, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("malformed count %q", line)
	}
	count, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("malformed count %q", line)
	}
	return order, count, nil
}

func parseNGramLine(model *NGramModel, order int, line string) error {
	fields := strings.Fields(line)
	if len(fields) < order+1 || len(fields) > order+2 {
		return fmt.Errorf("bad field count for %d-gram: %q", order, line)
	}

	lp, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return errors.Wrap(err, "parse log prob")
	}
	entry := ngramEntry{LogProb: lp * math.Ln10}
	if len(fields) == order+2 {
		bo, err := strconv.ParseFloat(fields[order+1], 64)
		if err != nil {
			return errors.Wrap(err, "parse backoff")
		}
		entry.LogBackoff = bo * math.Ln10
	}

	words := fields[1 : order+1]
	switch order {
	case 1:
		model.Unigrams[words[0]] = entry
	case 2:
		model.Bigrams[[2]string{words[0], words[1]}] = entry
	case 3:
		model.Trigrams[[3]string{words[0], words[1], words[2]}] = entry
	}
	return nil
}
