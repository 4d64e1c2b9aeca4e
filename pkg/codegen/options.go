package codegen

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/edp1096/lblmc-codegen/pkg/errs"
)

type InversionMethod string

const (
	GaussJordan InversionMethod = "gauss-jordan"
	SparseLU    InversionMethod = "sparse-lu"
)

func ParseInversionMethod(s string) (InversionMethod, error) {
	switch InversionMethod(strings.ToLower(strings.TrimSpace(s))) {
	case "", GaussJordan:
		return GaussJordan, nil
	case SparseLU:
		return SparseLU, nil
	}
	return "", fmt.Errorf("unknown inversion method %q: %w", s, errs.ErrInvalidArgument)
}

// Options are the emission switches of an Engine. None of them changes the
// symbolic computation, only how it is declared and annotated.
type Options struct {
	FixedPointEnable    bool
	FixedPointWordWidth int
	FixedPointIntWidth  int

	XilinxHLSEnable        bool
	XilinxHLSInline        bool
	XilinxHLSLatencyEnable bool
	XilinxHLSLatencyMin    int
	XilinxHLSLatencyMax    int
	XilinxHLSClockPeriod   float64

	IOSignalOutputEnable bool

	InversionMethod InversionMethod

	Logger *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		FixedPointWordWidth:  32,
		FixedPointIntWidth:   16,
		XilinxHLSClockPeriod: 10,
		InversionMethod:      GaussJordan,
		Logger:               slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (o Options) Validate() error {
	if o.FixedPointWordWidth <= 0 {
		return fmt.Errorf("fixed point word width %d must be positive: %w", o.FixedPointWordWidth, errs.ErrInvalidArgument)
	}
	if o.FixedPointIntWidth < 0 || o.FixedPointIntWidth > o.FixedPointWordWidth {
		return fmt.Errorf("fixed point integer width %d outside 0..%d: %w", o.FixedPointIntWidth, o.FixedPointWordWidth, errs.ErrInvalidArgument)
	}
	if o.XilinxHLSLatencyMin < 0 || o.XilinxHLSLatencyMax < o.XilinxHLSLatencyMin {
		return fmt.Errorf("latency bounds min=%d max=%d: %w", o.XilinxHLSLatencyMin, o.XilinxHLSLatencyMax, errs.ErrInvalidArgument)
	}
	if o.XilinxHLSClockPeriod <= 0 {
		return fmt.Errorf("clock period %g must be positive: %w", o.XilinxHLSClockPeriod, errs.ErrInvalidArgument)
	}
	if _, err := ParseInversionMethod(string(o.InversionMethod)); err != nil {
		return err
	}
	return nil
}

type Option func(*Options)

// WithOptions replaces every switch at once. A nil logger keeps the current one.
func WithOptions(opts Options) Option {
	return func(o *Options) {
		logger := o.Logger
		*o = opts
		if o.Logger == nil {
			o.Logger = logger
		}
	}
}

func WithFixedPoint(wordWidth, intWidth int) Option {
	return func(o *Options) {
		o.FixedPointEnable = true
		o.FixedPointWordWidth = wordWidth
		o.FixedPointIntWidth = intWidth
	}
}

func WithXilinxHLS(enable bool) Option {
	return func(o *Options) { o.XilinxHLSEnable = enable }
}

func WithHLSInline(enable bool) Option {
	return func(o *Options) { o.XilinxHLSInline = enable }
}

func WithHLSLatency(min, max int) Option {
	return func(o *Options) {
		o.XilinxHLSLatencyEnable = true
		o.XilinxHLSLatencyMin = min
		o.XilinxHLSLatencyMax = max
	}
}

func WithHLSClockPeriod(period float64) Option {
	return func(o *Options) { o.XilinxHLSClockPeriod = period }
}

func WithIOSignalOutput(enable bool) Option {
	return func(o *Options) { o.IOSignalOutputEnable = enable }
}

func WithInversionMethod(m InversionMethod) Option {
	return func(o *Options) { o.InversionMethod = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}
