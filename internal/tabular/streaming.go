package tabular

// streaming.go holds the reader wrappers applied to fetched snapshots.
//
//   - BOMSkippingReader drops a leading UTF-8 byte-order marker (0xEF 0xBB 0xBF)
//   - CountingReader tracks bytes read for fetch metrics

import (
	"bufio"
	"bytes"
	"io"
)

var bomBytes = []byte{0xEF, 0xBB, 0xBF}

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
type BOMSkippingReader struct {
	br      *bufio.Reader
	checked bool
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{br: bufio.NewReader(r)}
}

// Read implements io.Reader. The BOM check happens on the first call.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		head, err := r.br.Peek(len(bomBytes))
		if err != nil && err != io.EOF {
			return 0, err
		}
		if bytes.Equal(head, bomBytes) {
			if _, err := r.br.Discard(len(bomBytes)); err != nil {
				return 0, err
			}
		}
	}
	return r.br.Read(p)
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// NewCountingReader creates a counting reader.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}
