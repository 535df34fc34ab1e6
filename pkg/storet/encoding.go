// CLAUDE:SUMMARY Single-byte source decoding (ISO-8859-1 by default) and a line reader that never fails on encoding.
package storet

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultEncoding is the name of the source encoding used when none is configured.
const DefaultEncoding = "latin1"

// LookupEncoding resolves an encoding name. latin1 and its aliases map to
// ISO-8859-1, where every byte decodes to exactly one rune. Other names are
// resolved through the WHATWG index.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "", "latin1", "latin-1", "iso-8859-1", "iso8859-1", "l1":
		return charmap.ISO8859_1, nil
	case "utf-8", "utf8":
		return unicode.UTF8, nil
	}
	e, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", name, err)
	}
	return e, nil
}

// LineReader yields physical lines from a STORET export decoded to UTF-8,
// without the trailing line terminator.
type LineReader struct {
	br   *bufio.Reader
	line int
}

// NewLineReader wraps r with a decoder for enc. A nil enc means ISO-8859-1.
func NewLineReader(r io.Reader, enc encoding.Encoding) *LineReader {
	if enc == nil {
		enc = charmap.ISO8859_1
	}
	return &LineReader{br: bufio.NewReaderSize(transform.NewReader(r, enc.NewDecoder()), 64*1024)}
}

// Next returns the next line. It returns io.EOF once the input is exhausted;
// a final line without a newline is still returned.
func (lr *LineReader) Next() (string, error) {
	s, err := lr.br.ReadString('\n')
	if err != nil {
		if err == io.EOF && s != "" {
			lr.line++
			return strings.TrimRight(s, "\r\n"), nil
		}
		return "", err
	}
	lr.line++
	return strings.TrimRight(s, "\r\n"), nil
}

// Line returns the 1-based number of the last line returned by Next.
func (lr *LineReader) Line() int {
	return lr.line
}
