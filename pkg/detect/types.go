package detect

import (
	"image"
	"math"
)

//RecordSize is the number of values every detection occupies in the network output:
//[batchId, classId, confidence, left, top, right, bottom]
const RecordSize = 7

//Record is one candidate face region as emitted by the detection network.
//Coordinates are normalized to [0,1] relative to frame's dimensions.
type Record struct {
	BatchID    float32
	ClassID    float32
	Confidence float32
	Left       float32
	Top        float32
	Right      float32
	Bottom     float32
}

//Rect converts record's normalized coordinates into pixel coordinates of a frame sized width x height.
//The rectangle is not canonicalized - an inverted box keeps its corners as the network reported them.
func (r Record) Rect(width, height int) image.Rectangle {
	return image.Rectangle{
		Min: image.Pt(scale(r.Left, width), scale(r.Top, height)),
		Max: image.Pt(scale(r.Right, width), scale(r.Bottom, height)),
	}
}

func scale(v float32, size int) int {
	return int(math.Round(float64(v) * float64(size)))
}

//Result is a record which passed the confidence threshold, together with the rectangle drawn for it
type Result struct {
	Record Record
	Box    image.Rectangle
}
