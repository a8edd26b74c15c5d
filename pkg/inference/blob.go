package inference

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

//BlobOptions describes how a frame is turned into the network's input buffer
type BlobOptions struct {
	Size  image.Point
	Scale float64
}

//DefaultBlobOptions matches face-detection-retail style SSD networks: 300x300, no scaling
var DefaultBlobOptions = BlobOptions{Size: image.Pt(300, 300), Scale: 1}

//Blob resizes frame into a 4D NCHW float buffer. Mean is zero, channels are not swapped and the frame is not cropped.
//The caller owns the returned Mat; on error the zero Mat is returned and needs no Close.
func Blob(frame gocv.Mat, opts BlobOptions) (gocv.Mat, error) {
	if frame.Empty() {
		return gocv.Mat{}, errors.New("can not build a blob from an empty frame")
	}
	if opts.Size.X <= 0 || opts.Size.Y <= 0 {
		return gocv.Mat{}, errors.Errorf("invalid blob size %v", opts.Size)
	}

	return gocv.BlobFromImage(frame, opts.Scale, opts.Size, gocv.NewScalar(0, 0, 0, 0), false, false), nil
}

//Floats copies the values of a float32 Mat (e.g. a 1x1xNx7 detection output) into a flat slice
func Floats(m gocv.Mat) ([]float32, error) {
	if m.Empty() {
		return []float32{}, nil
	}
	if m.Type() != gocv.MatTypeCV32F {
		return nil, errors.Errorf("expected a float32 output, got mat type %v", m.Type())
	}

	data, err := m.DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrap(err, "could not read output data")
	}

	out := make([]float32, len(data))
	copy(out, data)
	return out, nil
}
