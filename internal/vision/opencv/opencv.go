// Package opencv opens cameras through OpenCV (gocv).
package opencv

import (
	"bytes"
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"ninuska/internal/vision"
)

type device struct {
	vc    *gocv.VideoCapture
	index int
}

// Open implements vision.Opener.
func Open(index int) (vision.Device, error) {
	vc, err := gocv.VideoCaptureDevice(index)
	if err != nil {
		return nil, fmt.Errorf("open device %d: %w", index, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("device %d not opened", index)
	}
	return &device{vc: vc, index: index}, nil
}

func (d *device) ReadJPEG() ([]byte, error) {
	img := gocv.NewMat()
	defer img.Close()

	if ok := d.vc.Read(&img); !ok || img.Empty() {
		return nil, errors.New("failed to read frame")
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	return bytes.Clone(buf.GetBytes()), nil
}

func (d *device) Close() error {
	return d.vc.Close()
}
