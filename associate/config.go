package associate

import (
	"fmt"
	"log/slog"
	"runtime"
)

const (
	// Segments at or below this great-circle length (meters) are sampled at their endpoints only.
	LengthThreshold = 15.0
	// Target spacing (meters) between samples on longer segments.
	IntervalFactor = 5.0
	// Base squared-degree threshold for a feature to count as near a sample.
	DistThreshold = 0.000000012949080002809418
	// Nearest candidates inspected per sample.
	DefaultK = 5
)

type SamplingMode int

const (
	// SamplingBisect fills midpoints from the start towards the end, then from the
	// overall midpoint towards the end. Midpoints are bit-identical to the trigonometric
	// unit-vector form, so output matches previously generated datasets.
	SamplingBisect SamplingMode = iota
	// SamplingUniform places samples at equal fractions of the great-circle arc.
	SamplingUniform
)

func (m SamplingMode) String() string {
	switch m {
	case SamplingBisect:
		return "bisect"
	case SamplingUniform:
		return "uniform"
	}
	return fmt.Sprintf("SamplingMode(%d)", int(m))
}

func ParseSamplingMode(s string) (SamplingMode, error) {
	switch s {
	case "", "bisect":
		return SamplingBisect, nil
	case "uniform":
		return SamplingUniform, nil
	}
	return 0, fmt.Errorf("unknown sampling mode %q", s)
}

// Progress receives one Increment per processed walkable.
type Progress interface {
	Increment()
	Finish()
}

type ProgressFunc func(name string, total int) Progress

type Config struct {
	Threads int

	K int
	// Accept a feature when its squared distance to a sample is at most this value.
	MaxDistSquared  float64
	LengthThreshold float64
	IntervalFactor  float64
	Sampling        SamplingMode

	// Stop collecting intersection candidates after this many polylines, 0 means all.
	CandidateCutoff int

	Logger   *slog.Logger
	Progress ProgressFunc
}

func ConfigDefault() Config {
	return Config{
		Threads:         runtime.GOMAXPROCS(-1),
		K:               DefaultK,
		MaxDistSquared:  DistThreshold * 2,
		LengthThreshold: LengthThreshold,
		IntervalFactor:  IntervalFactor,
		Sampling:        SamplingBisect,
		CandidateCutoff: 0,
	}
}

func (c Config) Sampler() Sampler {
	return Sampler{
		LengthThreshold: c.LengthThreshold,
		IntervalFactor:  c.IntervalFactor,
		Mode:            c.Sampling,
	}
}

type nopProgress struct{}

func (nopProgress) Increment() {}
func (nopProgress) Finish()    {}
