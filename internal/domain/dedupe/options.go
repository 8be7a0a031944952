package dedupe

// Option configures the in-memory deduper.
type Option func(*fifoDeduper)

// WithMaxSize sets how many ids are remembered. Values <= 0 keep every id.
func WithMaxSize(maxSize int) Option {
	return func(d *fifoDeduper) {
		d.maxSize = maxSize
	}
}
