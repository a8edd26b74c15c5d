package detect

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

//labelOffset moves a label from the top-left corner of its box to just above it
var labelOffset = image.Pt(0, -5)

//Canvas is something detections can be drawn on
type Canvas interface {
	Size() (width, height int)
	Rectangle(r image.Rectangle, c color.RGBA, thickness int)
	PutText(text string, origin image.Point, c color.RGBA)
}

//MatCanvas draws directly on an OpenCV frame
type MatCanvas struct {
	Frame *gocv.Mat
}

//NewMatCanvas wraps given frame; drawing mutates it in place
func NewMatCanvas(frame *gocv.Mat) *MatCanvas {
	return &MatCanvas{Frame: frame}
}

func (m *MatCanvas) Size() (int, int) {
	return m.Frame.Cols(), m.Frame.Rows()
}

//Rectangle draws the outline of r. gocv renders it with cv::LINE_AA instead of the 8-connected default of
//cv::rectangle; corners and thickness are the same, axis aligned edges on integer corners cover the same pixels.
func (m *MatCanvas) Rectangle(r image.Rectangle, c color.RGBA, thickness int) {
	gocv.Rectangle(m.Frame, r, c, thickness)
}

func (m *MatCanvas) PutText(text string, origin image.Point, c color.RGBA) {
	gocv.PutText(m.Frame, text, origin, gocv.FontHersheyPlain, 1, c, 1)
}
