// Package vision grabs single still frames from a local camera.
//
// A device is never held between captures: every Capture probes the
// candidate indices, reopens the chosen one, reads exactly one frame and
// releases it again, so other processes can use the camera in between.
package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"
	"time"
)

// ErrCameraUnavailable is returned when no device opens or a frame cannot be read.
var ErrCameraUnavailable = errors.New("vision: camera unavailable")

// Device is an opened camera.
type Device interface {
	// ReadJPEG reads one frame and encodes it as JPEG.
	ReadJPEG() ([]byte, error)
	Close() error
}

// Opener opens the camera at the given index or fails.
type Opener func(index int) (Device, error)

const (
	DefaultMaxDevices = 3
	framePattern      = "ninuska-cam-*.jpg"
)

// Frame is one captured still image.
type Frame struct {
	JPEG   []byte
	Device int

	// Path is set when the camera was configured WithFile. The file is
	// removed by Release.
	Path string
}

// DataURL returns the frame as an inline base64 data URL.
func (f *Frame) DataURL() string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(f.JPEG)
}

// Release deletes the temporary file, if any.
func (f *Frame) Release() error {
	if f == nil || f.Path == "" {
		return nil
	}
	err := os.Remove(f.Path)
	f.Path = ""
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

type Camera struct {
	open       Opener
	maxDevices int
	warmup     time.Duration
	toFile     bool
	dir        string
}

type Option func(*Camera)

// WithMaxDevices sets how many indices are probed, starting at 0.
func WithMaxDevices(n int) Option {
	return func(c *Camera) {
		if n > 0 {
			c.maxDevices = n
		}
	}
}

// WithWarmup waits d between opening the device and reading the frame.
func WithWarmup(d time.Duration) Option {
	return func(c *Camera) { c.warmup = d }
}

// WithFile also writes each frame to a temporary file in dir ("" = os.TempDir).
func WithFile(dir string) Option {
	return func(c *Camera) {
		c.toFile = true
		c.dir = dir
	}
}

func New(open Opener, opts ...Option) *Camera {
	c := &Camera{
		open:       open,
		maxDevices: DefaultMaxDevices,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Probe returns the first index that opens. The device is released before returning.
func (c *Camera) Probe() (int, error) {
	for i := 0; i < c.maxDevices; i++ {
		dev, err := c.open(i)
		if err != nil {
			log.Debug("Camera probe failed", "index", i, "err", err)
			continue
		}
		dev.Close()
		return i, nil
	}
	return -1, fmt.Errorf("%w: no device among indices 0..%d", ErrCameraUnavailable, c.maxDevices-1)
}

// Capture reads exactly one frame from the first available device.
func (c *Camera) Capture(ctx context.Context) (*Frame, error) {
	index, err := c.Probe()
	if err != nil {
		return nil, err
	}

	dev, err := c.open(index)
	if err != nil {
		return nil, fmt.Errorf("%w: reopen device %d: %v", ErrCameraUnavailable, index, err)
	}

	jpeg, err := c.read(ctx, dev)
	dev.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", ErrCameraUnavailable, index, err)
	}

	log.Debug("Captured frame", "index", index, "bytes", len(jpeg))

	frame := &Frame{JPEG: jpeg, Device: index}
	if c.toFile {
		if err := c.writeFile(frame); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
		}
	}
	return frame, nil
}

func (c *Camera) read(ctx context.Context, dev Device) ([]byte, error) {
	if c.warmup > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.warmup):
		}
	}

	jpeg, err := dev.ReadJPEG()
	if err != nil {
		return nil, err
	}
	if len(jpeg) == 0 {
		return nil, errors.New("empty frame")
	}
	return jpeg, nil
}

func (c *Camera) writeFile(frame *Frame) error {
	f, err := os.CreateTemp(c.dir, framePattern)
	if err != nil {
		return fmt.Errorf("frame file: %w", err)
	}
	_, err = f.Write(frame.JPEG)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("write frame: %w", err)
	}

	frame.Path, _ = filepath.Abs(f.Name())
	return nil
}
