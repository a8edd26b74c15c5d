package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/chenBenjamin97/face-detector/pkg/api"
	"github.com/chenBenjamin97/face-detector/pkg/config"
	"github.com/chenBenjamin97/face-detector/pkg/pipeline"
)

const (
	flagConfig    = "config"
	flagCamera    = "camera"
	flagTopology  = "topology"
	flagWeights   = "weights"
	flagThreshold = "threshold"
	flagHeadless  = "headless"
	flagSnapshot  = "snapshot"
	flagPort      = "port"
	flagDebug     = "debug"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		golog.Global().Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "facedetect",
		Usage: "detect faces on one camera frame and show them",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagConfig, Aliases: []string{"c"}, Usage: "path to a YAML config file (default ./config.yaml)"},
			&cli.StringFlag{Name: flagCamera, Usage: "camera index, stream URL or video file"},
			&cli.StringFlag{Name: flagTopology, Usage: "network topology file (.xml)"},
			&cli.StringFlag{Name: flagWeights, Usage: "network weights file (.bin)"},
			&cli.Float64Flag{Name: flagThreshold, Usage: "minimal (exclusive) face confidence"},
			&cli.BoolFlag{Name: flagHeadless, Usage: "do not open a display window"},
			&cli.StringFlag{Name: flagSnapshot, Usage: "write the annotated frame to this file"},
			&cli.StringFlag{Name: flagPort, Usage: "serve the preview API on this port"},
			&cli.BoolFlag{Name: flagDebug, Usage: "debug logging"},
		},
		Action: run,
	}
}

//overrides maps flags to the config keys they replace
var overrides = map[string]string{
	flagCamera:    "camera.device",
	flagTopology:  "model.topology",
	flagWeights:   "model.weights",
	flagThreshold: "detection.confidence_threshold",
	flagSnapshot:  "output.snapshot",
	flagPort:      "http.port",
}

//loadConfig reads the config file and environment, then applies the flags set on c
func loadConfig(c *cli.Context) (config.Config, error) {
	v := config.New()
	if err := config.ReadFile(v, c.String(flagConfig)); err != nil {
		return config.Config{}, err
	}
	for flag, key := range overrides {
		if c.IsSet(flag) {
			v.Set(key, c.Value(flag))
		}
	}
	if c.Bool(flagHeadless) {
		v.Set("display.enabled", false)
	}
	if c.Bool(flagDebug) {
		v.Set("log.level", "debug")
	}
	return config.Decode(v)
}

func run(c *cli.Context) (err error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, syncLogger(logger))
	}()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return detect(ctx, cfg, logger)
}

//newLogger builds a development logger at given level (debug, info, warn, error)
func newLogger(level string) (golog.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", level)
	}

	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.DisableStacktrace = true
	l, err := zcfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "could not build logger")
	}
	return l.Sugar().Named("facedetect"), nil
}

//syncLogger flushes the logger. Terminals and pipes reject fsync, that is not reported.
func syncLogger(logger golog.Logger) error {
	err := logger.Sync()
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return errors.Wrap(err, "could not flush logger")
}

func detect(ctx context.Context, cfg config.Config, logger golog.Logger) error {
	p := pipeline.New(cfg, logger)
	defer func() {
		if closeErr := p.Close(); closeErr != nil {
			logger.Warnw("could not release resources", "error", closeErr)
		}
	}()

	if cfg.HTTP.Port == "" {
		if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	store := &api.Store{}
	p.SetPublisher(store)

	return serve(ctx, !cfg.Display.Enabled, p.Run, func(ctx context.Context) error {
		return api.Serve(ctx, ":"+cfg.HTTP.Port, api.SetRouter(store), logger)
	})
}

//serve runs detection next to the preview API. Once detection returns the API is shut down,
//unless keepServing is set, in which case it runs until ctx is cancelled.
func serve(ctx context.Context, keepServing bool, runDetection, serveAPI func(context.Context) error) error {
	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(serveCtx)
	g.Go(func() error {
		return serveAPI(gctx)
	})
	g.Go(func() error {
		if err := runDetection(gctx); err != nil {
			return err
		}
		if !keepServing {
			cancel()
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
