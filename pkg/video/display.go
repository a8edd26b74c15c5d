package video

import (
	"context"
	"time"

	"gocv.io/x/gocv"
)

//EscapeKey is the key code WaitKey reports for Escape
const EscapeKey = 27

//Window is a display surface with a key poll; *gocv.Window satisfies it
type Window interface {
	IMShow(img gocv.Mat)
	WaitKey(delay int) int
}

//DisplayOptions configures the display loop
type DisplayOptions struct {
	ExitKey int
	Poll    time.Duration
}

//DefaultDisplayOptions exits on Escape and polls the keyboard every 10ms
var DefaultDisplayOptions = DisplayOptions{ExitKey: EscapeKey, Poll: 10 * time.Millisecond}

//Display shows frame on w until opts.ExitKey is pressed or ctx is done.
//The frame is shown as is - nothing is captured or inferred inside the loop.
func Display(ctx context.Context, w Window, frame gocv.Mat, opts DisplayOptions) error {
	delay := int(opts.Poll / time.Millisecond)
	if delay <= 0 {
		delay = 1 //WaitKey(0) would block until any key
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		w.IMShow(frame)
		if w.WaitKey(delay) == opts.ExitKey {
			return nil
		}
	}
}
