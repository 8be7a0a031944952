package logger

import "io"

type options struct {
	format string
	writer io.Writer
	level  string
	exit   func(int)
}

// Option configures Init.
type Option func(*options)

// WithFormat selects "text" or "json" output.
func WithFormat(format string) Option {
	return func(o *options) {
		if format != "" {
			o.format = format
		}
	}
}

// WithWriter redirects output.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.writer = w
		}
	}
}

// WithLevel sets the initial level.
func WithLevel(level string) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithExit replaces os.Exit for Fatal.
func WithExit(exit func(int)) Option {
	return func(o *options) {
		if exit != nil {
			o.exit = exit
		}
	}
}
