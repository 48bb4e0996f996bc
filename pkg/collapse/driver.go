package collapse

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"
)

const readBufferSize = 64 * 1024

// Collapse folds the stacks read from r with f and writes them to w sorted by
// stack string.
func Collapse(f Folder, r io.Reader, w io.Writer) error {
	occ, err := Fold(f, r)
	if err != nil {
		return err
	}
	if _, err := occ.WriteTo(w); err != nil {
		return fmt.Errorf("write folded stacks: %w", err)
	}
	return nil
}

// Fold reads every stack from r and returns their counts.
//
// The head of the input is always parsed by f itself (PreProcess). With more
// than one thread the remainder is cut into jobs of NStacksPerJob stacks,
// each parsed by a worker-owned clone of f into a local aggregator; the
// locals are summed once all workers have returned. The result does not
// depend on the thread count or the job size.
func Fold(f Folder, r io.Reader) (*Occurrences, error) {
	if f.NThreads() < 1 {
		f.SetNThreads(1)
	}
	if f.NStacksPerJob() < 1 {
		f.SetNStacksPerJob(1)
	}

	br := bufio.NewReaderSize(r, readBufferSize)
	occ := NewOccurrences()
	if err := f.PreProcess(br, occ); err != nil {
		return nil, err
	}

	if f.NThreads() == 1 {
		if err := f.CollapseSingleThreaded(br, occ); err != nil {
			return nil, err
		}
		return occ, nil
	}
	if err := foldMultiThreaded(f, br, occ, f.NThreads()); err != nil {
		return nil, err
	}
	return occ, nil
}

func foldMultiThreaded(f Folder, br *bufio.Reader, occ *Occurrences, nthreads int) error {
	parent, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(parent)
	jobs := make(chan []byte, nthreads)
	locals := make([]*Occurrences, nthreads)

	for i := range locals {
		local := NewOccurrences()
		locals[i] = local
		worker := f.CloneAndResetStackContext()
		g.Go(func() error {
			for job := range jobs {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := worker.CollapseSingleThreaded(bufio.NewReader(bytes.NewReader(job)), local); err != nil {
					return err
				}
			}
			return nil
		})
	}

	splitErr := splitJobs(ctx, f, br, jobs)
	if splitErr != nil {
		cancel()
	}
	close(jobs)
	waitErr := g.Wait()
	if splitErr != nil && !errors.Is(splitErr, context.Canceled) {
		return splitErr
	}
	if waitErr != nil {
		return waitErr
	}

	for _, local := range locals {
		occ.Merge(local)
	}
	return nil
}

// splitJobs cuts br into chunks of f.NStacksPerJob() stacks. A chunk only
// ends right after a line f reports as ending a stack, so every worker starts
// on a stack boundary.
func splitJobs(ctx context.Context, f Folder, br *bufio.Reader, jobs chan<- []byte) error {
	var (
		nstacks = f.NStacksPerJob()
		line    []byte
		job     []byte
		count   int
		err     error
	)
	send := func() error {
		select {
		case jobs <- job:
		case <-ctx.Done():
			return ctx.Err()
		}
		job, count = nil, 0
		return nil
	}

	for {
		line, err = ReadLine(br, line)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		job = append(job, line...)
		if !f.WouldEndStack(line) {
			continue
		}
		count++
		if count == nstacks {
			if err := send(); err != nil {
				return err
			}
		}
	}

	if len(job) > 0 {
		return send()
	}
	return nil
}
