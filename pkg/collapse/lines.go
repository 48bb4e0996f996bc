package collapse

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// asciiSpace is the whitespace set shared by IsBlank and TrimSpace, so the
// driver and the parsers agree on where stacks end.
const asciiSpace = " \t\n\r\v\f"

// ReadLine reads the next line of r into buf, reusing its storage, and
// returns it with the line terminator still attached. Lines of any length
// are supported. io.EOF is returned only once no bytes are left.
func ReadLine(r *bufio.Reader, buf []byte) ([]byte, error) {
	buf = buf[:0]
	for {
		chunk, err := r.ReadSlice('\n')
		buf = append(buf, chunk...)
		switch {
		case err == nil:
			return buf, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(buf) == 0 {
				return buf, io.EOF
			}
			return buf, nil
		default:
			return buf, err
		}
	}
}

// IsBlank reports whether line holds nothing but whitespace.
func IsBlank(line []byte) bool {
	for _, b := range line {
		if strings.IndexByte(asciiSpace, b) < 0 {
			return false
		}
	}
	return true
}

// TrimSpace trims leading and trailing ASCII whitespace.
func TrimSpace(s string) string {
	return strings.Trim(s, asciiSpace)
}

// TrimRightSpace trims trailing ASCII whitespace, line terminators included.
func TrimRightSpace(s string) string {
	return strings.TrimRight(s, asciiSpace)
}

// TrimLeftSpace trims leading ASCII whitespace.
func TrimLeftSpace(s string) string {
	return strings.TrimLeft(s, asciiSpace)
}
