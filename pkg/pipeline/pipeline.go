package pipeline

import (
	"context"
	"image"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gocv.io/x/gocv"

	"github.com/chenBenjamin97/face-detector/pkg/api"
	"github.com/chenBenjamin97/face-detector/pkg/config"
	"github.com/chenBenjamin97/face-detector/pkg/detect"
	"github.com/chenBenjamin97/face-detector/pkg/inference"
	"github.com/chenBenjamin97/face-detector/pkg/video"
)

//FrameSource fills a frame; *video.Camera satisfies it
type FrameSource interface {
	Read(frame *gocv.Mat) error
}

//Inferer runs a network on named inputs; *inference.Runner satisfies it
type Inferer interface {
	Inputs() []string
	Outputs() []string
	Run(inputs map[string]gocv.Mat) (map[string]gocv.Mat, error)
}

//Pipeline owns every piece of state of one detection run: the frame, the network and the results
type Pipeline struct {
	cfg    config.Config
	logger golog.Logger

	post      *detect.PostProcessor
	blobOpts  inference.BlobOptions
	publisher *api.Store

	frame   gocv.Mat
	results []detect.Result

	closers []func() error
}

//New prepares a pipeline; nothing is acquired until Run
func New(cfg config.Config, logger golog.Logger) *Pipeline {
	post := detect.NewPostProcessor(float32(cfg.Detection.ConfidenceThreshold))
	post.Labels = cfg.Detection.Labels

	return &Pipeline{
		cfg:    cfg,
		logger: logger,
		post:   post,
		blobOpts: inference.BlobOptions{
			Size:  image.Pt(cfg.Detection.InputWidth, cfg.Detection.InputHeight),
			Scale: cfg.Detection.Scale,
		},
		frame: gocv.NewMat(),
	}
}

//Results returns the detections accepted by the last Detect
func (p *Pipeline) Results() []detect.Result {
	return p.results
}

//Frame returns the (annotated, once Detect ran) frame
func (p *Pipeline) Frame() gocv.Mat {
	return p.frame
}

//SetPublisher makes Run publish the annotated frame to store
func (p *Pipeline) SetPublisher(store *api.Store) {
	p.publisher = store
}

//Run opens the camera and the network, detects faces on one frame and, if enabled, displays it until exit
func (p *Pipeline) Run(ctx context.Context) error {
	cam, err := video.OpenCamera(p.cfg.Camera.Device)
	if err != nil {
		return err
	}
	p.closers = append(p.closers, cam.Close)
	p.logger.Infow("camera opened", "device", cam.Device())

	runner, err := inference.NewRunner(inference.Options{
		Topology: p.cfg.Model.Topology,
		Weights:  p.cfg.Model.Weights,
		Backend:  p.cfg.Inference.Backend,
		Target:   p.cfg.Inference.Target,
		Inputs:   p.cfg.Model.Inputs,
		Outputs:  p.cfg.Model.Outputs,
	}, p.logger)
	if err != nil {
		return err
	}
	p.closers = append(p.closers, runner.Close)
	p.logger.Infow("network ready", "topology", p.cfg.Model.Topology, "backend", p.cfg.Inference.Backend, "target", p.cfg.Inference.Target)

	if err := p.Capture(cam); err != nil {
		return err
	}
	if err := p.Detect(runner); err != nil {
		return err
	}
	if err := p.Snapshot(); err != nil {
		return err
	}
	if err := p.Publish(); err != nil {
		return err
	}

	if !p.cfg.Display.Enabled {
		return nil
	}

	window := gocv.NewWindow(p.cfg.Display.Window)
	p.closers = append(p.closers, window.Close)
	return video.Display(ctx, window, p.frame, video.DisplayOptions{ExitKey: p.cfg.Display.ExitKey, Poll: p.cfg.Poll()})
}

//Capture reads one frame from src into the pipeline's frame
func (p *Pipeline) Capture(src FrameSource) error {
	if err := src.Read(&p.frame); err != nil {
		return errors.Wrap(err, "capture frame")
	}
	p.logger.Debugw("frame captured", "width", p.frame.Cols(), "height", p.frame.Rows())
	return nil
}

//Detect runs the network on the captured frame and outlines accepted faces on it
func (p *Pipeline) Detect(n Inferer) error {
	blob, err := inference.Blob(p.frame, p.blobOpts)
	if err != nil {
		return errors.Wrap(err, "build blob")
	}
	defer blob.Close()

	inputs := make(map[string]gocv.Mat, len(n.Inputs()))
	for _, name := range n.Inputs() {
		inputs[name] = blob
	}

	outputs, err := n.Run(inputs)
	if err != nil {
		return errors.Wrap(err, "infer")
	}
	defer func() {
		for _, m := range outputs {
			m.Close()
		}
	}()

	values, err := inference.Floats(outputs[inference.DetectionOutput(n.Outputs())])
	if err != nil {
		return errors.Wrap(err, "post-process")
	}

	results, err := p.post.Draw(detect.NewMatCanvas(&p.frame), values)
	if err != nil {
		return errors.Wrap(err, "post-process")
	}
	p.results = results

	p.logger.Infow("faces detected", "candidates", len(values)/detect.RecordSize, "accepted", len(results),
		"threshold", p.post.Threshold)
	return nil
}

//Snapshot writes the annotated frame to the configured output file, if any
func (p *Pipeline) Snapshot() error {
	path := p.cfg.Output.Snapshot
	if path == "" {
		return nil
	}
	if ok := gocv.IMWrite(path, p.frame); !ok {
		return errors.Errorf("could not write snapshot '%s'", path)
	}
	p.logger.Infow("snapshot written", "path", path)
	return nil
}

//Publish hands the annotated frame and its detections to the preview API, if one is attached
func (p *Pipeline) Publish() error {
	if p.publisher == nil {
		return nil
	}

	jpeg, err := gocv.IMEncode(gocv.JPEGFileExt, p.frame)
	if err != nil {
		return errors.Wrap(err, "encode frame")
	}
	p.publisher.Publish(api.NewSnapshot(jpeg, p.frame.Cols(), p.frame.Rows(), p.post.Threshold, p.results))
	return nil
}

//Close releases everything Run acquired, in reverse order
func (p *Pipeline) Close() error {
	var err error
	for i := len(p.closers) - 1; i >= 0; i-- {
		err = multierr.Combine(err, p.closers[i]())
	}
	p.closers = nil
	return multierr.Combine(err, p.frame.Close())
}
