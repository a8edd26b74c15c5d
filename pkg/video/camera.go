package video

import (
	"strconv"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

//ErrCapture is returned when no usable frame could be read from a source
var ErrCapture = errors.New("frame capture failed")

//Camera is a frame source backed by an OpenCV capture device, stream URL or video file
type Camera struct {
	device  string
	capture *gocv.VideoCapture
}

//OpenCamera opens given device. A numeric device is treated as a camera index, anything else as a file or URL.
func OpenCamera(device string) (*Camera, error) {
	var source interface{} = device
	if id, err := strconv.Atoi(device); err == nil {
		source = id
	}

	capture, err := gocv.OpenVideoCapture(source)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open capture device '%s'", device)
	}

	return &Camera{device: device, capture: capture}, nil
}

//Device returns the device camera was opened with
func (c *Camera) Device() string {
	return c.device
}

//Read blocks until a frame is available and stores it in frame
func (c *Camera) Read(frame *gocv.Mat) error {
	if ok := c.capture.Read(frame); !ok {
		return errors.Wrapf(ErrCapture, "cannot read device '%s'", c.device)
	}
	if frame.Empty() {
		return errors.Wrapf(ErrCapture, "device '%s' returned an empty frame", c.device)
	}
	return nil
}

//Close releases the capture device
func (c *Camera) Close() error {
	return c.capture.Close()
}
