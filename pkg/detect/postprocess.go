package detect

import (
	"fmt"
	"image/color"

	"github.com/pkg/errors"
)

//DefaultThreshold is the minimal (exclusive) confidence a record needs in order to be drawn
const DefaultThreshold = 0.7

//DefaultColor is the color faces are outlined with (green)
var DefaultColor = color.RGBA{0, 255, 0, 0}

//ErrMalformedDetections is returned when the network output can not be split into whole records
var ErrMalformedDetections = errors.New("malformed detections")

//Parse splits a flat network output into records. Its length must be a multiple of RecordSize.
func Parse(values []float32) ([]Record, error) {
	if len(values)%RecordSize != 0 {
		return nil, errors.Wrapf(ErrMalformedDetections, "got %d values, not a multiple of %d", len(values), RecordSize)
	}

	records := make([]Record, 0, len(values)/RecordSize)
	for i := 0; i < len(values); i += RecordSize {
		records = append(records, Record{
			BatchID:    values[i],
			ClassID:    values[i+1],
			Confidence: values[i+2],
			Left:       values[i+3],
			Top:        values[i+4],
			Right:      values[i+5],
			Bottom:     values[i+6],
		})
	}

	return records, nil
}

//PostProcessor filters detections by confidence and outlines the accepted ones on a canvas
type PostProcessor struct {
	Threshold float32
	Color     color.RGBA
	Thickness int
	Labels    bool //write confidence above each box
}

//NewPostProcessor returns a PostProcessor with given threshold, default color and thickness of 1
func NewPostProcessor(threshold float32) *PostProcessor {
	return &PostProcessor{
		Threshold: threshold,
		Color:     DefaultColor,
		Thickness: 1,
	}
}

//Draw outlines every record of values whose confidence is strictly above p.Threshold and returns them.
//Nothing is drawn if values is malformed. Drawing is cumulative: calling it twice draws every box twice.
func (p *PostProcessor) Draw(c Canvas, values []float32) ([]Result, error) {
	records, err := Parse(values)
	if err != nil {
		return nil, err
	}

	width, height := c.Size()
	results := make([]Result, 0)
	for _, r := range records {
		if !(r.Confidence > p.Threshold) {
			continue
		}

		box := r.Rect(width, height)
		c.Rectangle(box, p.Color, p.Thickness)
		if p.Labels {
			c.PutText(fmt.Sprintf("face: %.2f%%", r.Confidence*100), box.Min.Add(labelOffset), p.Color)
		}
		results = append(results, Result{Record: r, Box: box})
	}

	return results, nil
}
