package lab

import (
	"io"
	"os"

	"go.uber.org/zap"
)

type options struct {
	Log    *zap.SugaredLogger
	Output io.Writer
}

func newOptions() *options {
	return &options{
		Log:    zap.NewNop().Sugar(),
		Output: os.Stdout,
	}
}

// Option is a function that configures the lab.
type Option func(*options)

// WithLog sets the logger.
func WithLog(log *zap.SugaredLogger) Option {
	return func(o *options) {
		o.Log = log
	}
}

// WithOutput sets the writer receiving operator-facing messages.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.Output = w
	}
}
