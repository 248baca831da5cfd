package outlining

import "log"

// OutliningSettings configures one Driver run, constructed via
// functional options the way flowgraph.Build takes ...Option — a plain
// struct with defaulted zero values, no config-file parsing library
// warranted (pea's own peac CLI configures itself via flag, not a
// config file, and this pass follows suit).
type OutliningSettings struct {
	MinLength       int
	MinParameters   int
	MaxParameters   int
	MaxRounds       int
	PlaceNearCaller bool
	Logger          *log.Logger
}

// DefaultSettings returns the settings a bare Driver run should use
// absent any Option.
func DefaultSettings() OutliningSettings {
	return OutliningSettings{
		MinLength:     3,
		MinParameters: 0,
		MaxParameters: 8,
		MaxRounds:     8,
	}
}

// Option mutates an OutliningSettings under construction.
type Option func(*OutliningSettings)

// WithMinLength sets the minimum instruction-sequence length worth
// outlining, also the per-block skip threshold.
func WithMinLength(n int) Option { return func(s *OutliningSettings) { s.MinLength = n } }

// WithParameterRange bounds the acceptable synthesized-parameter count.
func WithParameterRange(min, max int) Option {
	return func(s *OutliningSettings) { s.MinParameters, s.MaxParameters = min, max }
}

// WithMaxRounds caps the number of Driver rounds.
func WithMaxRounds(n int) Option { return func(s *OutliningSettings) { s.MaxRounds = n } }

// WithPlaceNearCaller makes the Driver insert each synthesized function
// immediately before its prototype candidate's enclosing function.
func WithPlaceNearCaller(v bool) Option { return func(s *OutliningSettings) { s.PlaceNearCaller = v } }

// WithLogger enables -v-style trace output, mirroring
// flowgraph.TraceEscape/TraceInlining's boolean-option-gated tracing —
// here a *log.Logger plays the role those booleans play, since a nil
// Logger is the natural "off" state.
func WithLogger(l *log.Logger) Option { return func(s *OutliningSettings) { s.Logger = l } }

// NewSettings applies opts over DefaultSettings.
func NewSettings(opts ...Option) OutliningSettings {
	s := DefaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s OutliningSettings) tracef(format string, args ...interface{}) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}
