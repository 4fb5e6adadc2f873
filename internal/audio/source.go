package audio

import "context"

// Source fills a caller-owned frame buffer on every Read.
type Source interface {
	Read() error
}

// Stream reads frames from a Source into buf. Errors for which skip reports
// true (input overflows) drop that frame and reading goes on.
type Stream struct {
	src  Source
	buf  []float32
	skip func(error) bool
}

func NewStream(src Source, buf []float32, skip func(error) bool) *Stream {
	if skip == nil {
		skip = func(error) bool { return false }
	}
	return &Stream{src: src, buf: buf, skip: skip}
}

// Next blocks until the next good frame is in the buffer and returns it.
// The slice is reused by the following call.
func (s *Stream) Next(ctx context.Context) ([]float32, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := s.src.Read()
		if err == nil {
			return s.buf, nil
		}
		if !s.skip(err) {
			return nil, err
		}
	}
}

// Collect copies n frames, used to measure ambient noise.
func (s *Stream) Collect(ctx context.Context, n int) ([][]float32, error) {
	frames := make([][]float32, 0, n)
	for len(frames) < n {
		f, err := s.Next(ctx)
		if err != nil {
			return frames, err
		}
		frames = append(frames, append([]float32(nil), f...))
	}
	return frames, nil
}

// Phrase feeds frames into p until it completes.
func (s *Stream) Phrase(ctx context.Context, p *Phrase) error {
	for {
		f, err := s.Next(ctx)
		if err != nil {
			return err
		}
		if p.Push(f) {
			return nil
		}
	}
}
