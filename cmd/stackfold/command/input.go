package command

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"
)

var gzipMagic = []byte{0x1f, 0x8b}

// openInput opens the file named by args, or stdin when there is none or
// it is "-". gzip compressed input is decompressed transparently.
func openInput(cmd *cobra.Command, args []string) (io.Reader, func() error, error) {
	var (
		r       io.Reader = cmd.InOrStdin()
		closeIn           = func() error { return nil }
	)
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, nil, fmt.Errorf("open input: %w", err)
		}
		r, closeIn = f, f.Close
	}

	zr, err := maybeGzip(r)
	if err != nil {
		_ = closeIn()
		return nil, nil, err
	}
	return zr, closeIn, nil
}

func maybeGzip(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(gzipMagic))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if !bytes.Equal(magic, gzipMagic) {
		return br, nil
	}
	zr, err := gzip.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("open gzip input: %w", err)
	}
	return zr, nil
}
