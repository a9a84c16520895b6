package upload

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
)

// LimitError is returned by a reader created with NewMaxSizeReader once the
// stream runs past its limit. It unwraps to ErrPayloadTooLarge.
type LimitError struct {
	MaxBytes int64
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("reach limit of %s", humanize.IBytes(uint64(e.MaxBytes)))
}

func (e *LimitError) Unwrap() error { return ErrPayloadTooLarge }

// NewMaxSizeReader returns a reader that yields at most maxSize bytes and
// fails with *LimitError if r holds more.
func NewMaxSizeReader(r io.Reader, maxSize int64) io.Reader {
	return &maxSizeReader{reader: r, limit: maxSize, left: maxSize}
}

type maxSizeReader struct {
	reader io.Reader
	limit  int64
	left   int64
}

func (r *maxSizeReader) Read(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	// One byte past the remaining budget is enough to detect an overflow.
	if int64(len(p)) > r.left+1 {
		p = p[:r.left+1]
	}
	n, err = r.reader.Read(p)

	if int64(n) <= r.left {
		r.left -= int64(n)
		return n, err
	}

	n = int(r.left)
	r.left = 0
	return n, &LimitError{MaxBytes: r.limit}
}
