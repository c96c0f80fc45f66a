package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"screen-grab-streamer/internal/encode"
	"screen-grab-streamer/internal/grab"
	"screen-grab-streamer/internal/overlay"
	"screen-grab-streamer/internal/stream"
	"screen-grab-streamer/pkg/config"
	"screen-grab-streamer/pkg/timing"
)

func newLogger(level string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}
	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer log.Sync()

	src, err := grab.NewScreenSource(cfg.DisplayIndex)
	if err != nil {
		log.Fatalf("screen source: %v", err)
	}
	rect, _ := cfg.CaptureRect()
	num, den, _ := cfg.ParseFrameRate()

	var decorators []grab.Decorator
	if cfg.ShowRegion {
		decorators = append(decorators, overlay.Border{})
	}
	if cfg.DrawMouse {
		decorators = append(decorators, overlay.NewCursor(nil))
	}

	sess, err := grab.Open(src, grab.Options{
		Rect:       rect,
		Framerate:  grab.Rate{Num: num, Den: den},
		Decorators: decorators,
		Logger:     log.Named("grab"),
	})
	if err != nil {
		log.Fatalf("failed to open capture session: %v", err)
	}
	defer sess.Close()
	log.Infof("capturing %v at %d/%d fps", sess.Rect(), num, den)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	encoder := encode.NewEncoder(cfg, log.Named("encode"))
	if err := stream.Run(ctx, cfg, sess, encoder, log.Named("stream")); err != nil {
		log.Fatalf("stream: %v", err)
	}

	stats := sess.Stats()
	log.Infof("session done: %d grabs, %d published, %d dropped", stats.Grabs, stats.Published, stats.Drops)
	if log.Desugar().Core().Enabled(zapcore.DebugLevel) {
		timing.Report(os.Stderr)
	}
}
