package video

import (
	"context"
	"testing"
	"time"

	"go.viam.com/test"
	"gocv.io/x/gocv"
)

type fakeWindow struct {
	keys   []int
	shown  int
	delays []int
	cancel context.CancelFunc
}

func (f *fakeWindow) IMShow(img gocv.Mat) {
	f.shown++
}

func (f *fakeWindow) WaitKey(delay int) int {
	f.delays = append(f.delays, delay)
	if len(f.keys) == 0 {
		if f.cancel != nil {
			f.cancel()
		}
		return -1
	}
	k := f.keys[0]
	f.keys = f.keys[1:]
	return k
}

func TestDisplayExitsOnEscape(t *testing.T) {
	frame := gocv.NewMat()
	defer frame.Close()

	w := &fakeWindow{keys: []int{-1, -1, 'q', EscapeKey, -1}}
	err := Display(context.Background(), w, frame, DefaultDisplayOptions)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, w.shown, test.ShouldEqual, 4)
	test.That(t, w.delays, test.ShouldResemble, []int{10, 10, 10, 10})
	test.That(t, w.keys, test.ShouldResemble, []int{-1})
}

func TestDisplayCustomExitKey(t *testing.T) {
	frame := gocv.NewMat()
	defer frame.Close()

	w := &fakeWindow{keys: []int{EscapeKey, 'q'}}
	err := Display(context.Background(), w, frame, DisplayOptions{ExitKey: 'q', Poll: 0})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, w.shown, test.ShouldEqual, 2)
	test.That(t, w.delays, test.ShouldResemble, []int{1, 1})
}

func TestDisplayStopsOnContext(t *testing.T) {
	frame := gocv.NewMat()
	defer frame.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := &fakeWindow{keys: []int{-1, -1}, cancel: cancel}

	err := Display(ctx, w, frame, DisplayOptions{ExitKey: EscapeKey, Poll: 5 * time.Millisecond})
	test.That(t, err, test.ShouldEqual, context.Canceled)
	test.That(t, w.shown, test.ShouldEqual, 3)
}
