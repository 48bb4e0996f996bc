// Package guess picks a stack format by sniffing the start of the input and
// folds it with the matching folder.
package guess

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/stackfold/pkg/collapse"
	"github.com/danpilch/stackfold/pkg/collapse/dtrace"
	"github.com/danpilch/stackfold/pkg/collapse/perf"
)

// ErrNoApplicableFormat is returned when no folder recognises the input.
var ErrNoApplicableFormat = errors.New("no applicable stack format found")

// linesPerBatch is how many more lines are read before asking the
// detectors again.
const linesPerBatch = 10

// Options holds the options for every candidate format.
type Options struct {
	Perf   perf.Options
	Dtrace dtrace.Options
	Logger logrus.FieldLogger
}

// DefaultOptions returns default options for every format.
func DefaultOptions() Options {
	return Options{
		Perf:   perf.DefaultOptions(),
		Dtrace: dtrace.DefaultOptions(),
	}
}

// Candidate is a folder that may be chosen, under a display name.
type Candidate struct {
	Name   string
	Folder collapse.Folder
}

// Candidates returns the formats tried, in order.
func Candidates(opt Options) []Candidate {
	if opt.Perf.Logger == nil {
		opt.Perf.Logger = opt.Logger
	}
	if opt.Dtrace.Logger == nil {
		opt.Dtrace.Logger = opt.Logger
	}
	return []Candidate{
		{Name: "perf", Folder: perf.NewFolder(opt.Perf)},
		{Name: "dtrace", Folder: dtrace.NewFolder(opt.Dtrace)},
	}
}

// Detect reads the start of r until one candidate reports the input as
// applicable. It returns that candidate and a reader replaying the whole
// input. An empty input yields a nil candidate and no error.
func Detect(r io.Reader, candidates []Candidate) (*Candidate, io.Reader, error) {
	br := bufio.NewReader(r)

	var (
		prefix bytes.Buffer
		line   []byte
		err    error
		lines  int
	)
	for {
		line, err = collapse.ReadLine(br, line)
		eof := errors.Is(err, io.EOF)
		if err != nil && !eof {
			return nil, nil, fmt.Errorf("read input: %w", err)
		}
		prefix.Write(line)
		if !eof {
			lines++
			if lines%linesPerBatch != 0 {
				continue
			}
		}
		if eof && prefix.Len() == 0 {
			return nil, &prefix, nil
		}

		notApplicable := 0
		for i := range candidates {
			switch candidates[i].Folder.IsApplicable(prefix.String()) {
			case collapse.Applicable:
				return &candidates[i], io.MultiReader(&prefix, br), nil
			case collapse.NotApplicable:
				notApplicable++
			}
		}
		if notApplicable == len(candidates) || eof {
			return nil, nil, ErrNoApplicableFormat
		}
	}
}

// Fold detects the format of r and folds it.
func Fold(opt Options, r io.Reader) (*collapse.Occurrences, error) {
	log := opt.Logger
	if log == nil {
		logger := logrus.New()
		logger.SetLevel(logrus.WarnLevel)
		log = logger
	}

	c, rest, err := Detect(r, Candidates(opt))
	if err != nil {
		return nil, err
	}
	if c == nil {
		return collapse.NewOccurrences(), nil
	}
	log.WithField("format", c.Name).Debug("detected stack format")
	return collapse.Fold(c.Folder, rest)
}

// Collapse detects the format of r, folds it and writes the folded stacks
// to w.
func Collapse(opt Options, r io.Reader, w io.Writer) error {
	occ, err := Fold(opt, r)
	if err != nil {
		return err
	}
	if _, err := occ.WriteTo(w); err != nil {
		return fmt.Errorf("write folded stacks: %w", err)
	}
	return nil
}
