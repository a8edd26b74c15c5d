package detect

import (
	"image"
	"image/color"
	"math"
	"testing"

	"go.viam.com/test"

	"github.com/pkg/errors"
)

type drawnRect struct {
	r         image.Rectangle
	c         color.RGBA
	thickness int
}

type recordingCanvas struct {
	width, height int
	rects         []drawnRect
	texts         []string
}

func (rc *recordingCanvas) Size() (int, int) { return rc.width, rc.height }

func (rc *recordingCanvas) Rectangle(r image.Rectangle, c color.RGBA, thickness int) {
	rc.rects = append(rc.rects, drawnRect{r, c, thickness})
}

func (rc *recordingCanvas) PutText(text string, origin image.Point, c color.RGBA) {
	rc.texts = append(rc.texts, text)
}

func TestParse(t *testing.T) {
	records, err := Parse([]float32{0, 1, 0.95, 0.1, 0.2, 0.3, 0.4, 0, 1, 0.5, 0.5, 0.5, 0.6, 0.6})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, records, test.ShouldHaveLength, 2)
	test.That(t, records[0], test.ShouldResemble, Record{0, 1, 0.95, 0.1, 0.2, 0.3, 0.4})
	test.That(t, records[1].Confidence, test.ShouldEqual, float32(0.5))

	records, err = Parse(nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, records, test.ShouldBeEmpty)

	_, err = Parse([]float32{0, 1, 0.95, 0.1, 0.2, 0.3})
	test.That(t, errors.Is(err, ErrMalformedDetections), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "got 6 values")
}

func TestRecordRect(t *testing.T) {
	r := Record{Confidence: 0.95, Left: 0.1, Top: 0.2, Right: 0.3, Bottom: 0.4}
	test.That(t, r.Rect(640, 480), test.ShouldResemble, image.Rectangle{Min: image.Pt(64, 96), Max: image.Pt(192, 192)})

	//rounds instead of truncating
	r = Record{Left: 0.499, Top: 0.501, Right: 1, Bottom: 1}
	test.That(t, r.Rect(3, 3), test.ShouldResemble, image.Rectangle{Min: image.Pt(1, 2), Max: image.Pt(3, 3)})

	//inverted boxes are kept as reported
	r = Record{Left: 0.5, Top: 0.5, Right: 0.25, Bottom: 0.25}
	rect := r.Rect(100, 100)
	test.That(t, rect.Min, test.ShouldResemble, image.Pt(50, 50))
	test.That(t, rect.Max, test.ShouldResemble, image.Pt(25, 25))
}

func TestDraw(t *testing.T) {
	p := NewPostProcessor(DefaultThreshold)

	t.Run("above threshold", func(t *testing.T) {
		c := &recordingCanvas{width: 640, height: 480}
		results, err := p.Draw(c, []float32{0, 1, 0.95, 0.1, 0.2, 0.3, 0.4})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, results, test.ShouldHaveLength, 1)
		test.That(t, c.rects, test.ShouldHaveLength, 1)
		test.That(t, c.rects[0].r, test.ShouldResemble, image.Rectangle{Min: image.Pt(64, 96), Max: image.Pt(192, 192)})
		test.That(t, c.rects[0].c, test.ShouldResemble, DefaultColor)
		test.That(t, c.rects[0].thickness, test.ShouldEqual, 1)
		test.That(t, results[0].Box, test.ShouldResemble, c.rects[0].r)
		test.That(t, c.texts, test.ShouldBeEmpty)
	})

	t.Run("below and at threshold", func(t *testing.T) {
		c := &recordingCanvas{width: 640, height: 480}
		results, err := p.Draw(c, []float32{
			0, 1, 0.5, 0.1, 0.2, 0.3, 0.4,
			0, 1, 0.7, 0.1, 0.2, 0.3, 0.4,
			0, 1, float32(math.NaN()), 0.1, 0.2, 0.3, 0.4,
		})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, results, test.ShouldBeEmpty)
		test.That(t, c.rects, test.ShouldBeEmpty)
	})

	t.Run("empty", func(t *testing.T) {
		c := &recordingCanvas{width: 640, height: 480}
		results, err := p.Draw(c, []float32{})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, results, test.ShouldBeEmpty)
		test.That(t, c.rects, test.ShouldBeEmpty)
	})

	t.Run("malformed draws nothing", func(t *testing.T) {
		c := &recordingCanvas{width: 640, height: 480}
		_, err := p.Draw(c, []float32{0, 1, 0.95, 0.1, 0.2, 0.3, 0.4, 0, 1, 0.95})
		test.That(t, errors.Is(err, ErrMalformedDetections), test.ShouldBeTrue)
		test.That(t, c.rects, test.ShouldBeEmpty)
	})

	t.Run("cumulative", func(t *testing.T) {
		c := &recordingCanvas{width: 640, height: 480}
		values := []float32{0, 1, 0.95, 0.1, 0.2, 0.3, 0.4}
		_, err := p.Draw(c, values)
		test.That(t, err, test.ShouldBeNil)
		_, err = p.Draw(c, values)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c.rects, test.ShouldHaveLength, 2)
		test.That(t, c.rects[0], test.ShouldResemble, c.rects[1])
	})

	t.Run("degenerate box", func(t *testing.T) {
		c := &recordingCanvas{width: 640, height: 480}
		results, err := p.Draw(c, []float32{0, 1, 0.99, 0.3, 0.4, 0.1, 0.2})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, results, test.ShouldHaveLength, 1)
		test.That(t, c.rects[0].r.Min, test.ShouldResemble, image.Pt(192, 192))
		test.That(t, c.rects[0].r.Max, test.ShouldResemble, image.Pt(64, 96))
	})

	t.Run("labels", func(t *testing.T) {
		c := &recordingCanvas{width: 640, height: 480}
		labeled := NewPostProcessor(0.5)
		labeled.Labels = true
		_, err := labeled.Draw(c, []float32{0, 1, 0.75, 0.1, 0.2, 0.3, 0.4})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c.texts, test.ShouldResemble, []string{"face: 75.00%"})
	})
}
