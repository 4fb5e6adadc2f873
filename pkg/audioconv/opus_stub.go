//go:build !opus

package audioconv

import (
	"errors"
	"io"
)

// ErrOpusUnsupported is returned for Ogg Opus input in builds without the
// opus tag, which needs libopusfile.
var ErrOpusUnsupported = errors.New("ogg opus support not built in (build with -tags opus)")

func decodeOggOpus(io.ReadSeeker, Options) ([]float32, error) {
	return nil, ErrOpusUnsupported
}
