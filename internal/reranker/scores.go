package reranker

import (
	"errors"
	"fmt"
)

const (
	// JudgeScaleMin and JudgeScaleMax bound the judge's score scale.
	JudgeScaleMin = 0.0
	JudgeScaleMax = 10.0

	// NeutralScore is substituted when the judge cannot produce a usable
	// value for a candidate. Midpoint of the judge scale, so a failed call
	// neither promotes nor demotes the candidate.
	NeutralScore = 5.0
)

// ErrDegenerateDomain is returned by Normalize when the declared domain is
// empty or inverted. This is a configuration error and should be caught at
// startup, not per call.
var ErrDegenerateDomain = errors.New("degenerate normalization domain")

// ErrScoreOutOfRange is returned by Fuse when a component score is outside
// [0,1]. Inputs to Fuse are expected to be normalized already, so this is a
// caller bug and is rejected rather than clamped.
var ErrScoreOutOfRange = errors.New("score outside [0,1]")

// Normalize linearly rescales raw from [domainMin, domainMax] onto [0,1].
// Values outside the declared domain are clamped; judges occasionally drift
// slightly past their nominal scale (e.g. returning 10.4) and that should
// not blow up a request.
func Normalize(raw, domainMin, domainMax float64) (float64, error) {
	if domainMax <= domainMin {
		return 0, fmt.Errorf("%w: [%g, %g]", ErrDegenerateDomain, domainMin, domainMax)
	}
	return clamp01((raw - domainMin) / (domainMax - domainMin)), nil
}

// Fuse combines a normalized relevance score and a normalized retrieval
// score into one ranking key: alpha*relevance + (1-alpha)*retrieval.
// alpha=1 ranks purely by the judge, alpha=0 purely by retrieval. Both
// component scores and alpha must lie in [0,1]; the result then does too.
func Fuse(relevanceNorm, retrievalNorm, alpha float64) (float64, error) {
	if relevanceNorm < 0 || relevanceNorm > 1 {
		return 0, fmt.Errorf("%w: relevance %g", ErrScoreOutOfRange, relevanceNorm)
	}
	if retrievalNorm < 0 || retrievalNorm > 1 {
		return 0, fmt.Errorf("%w: retrieval %g", ErrScoreOutOfRange, retrievalNorm)
	}
	if alpha < 0 || alpha > 1 {
		return 0, fmt.Errorf("%w: %g", ErrInvalidAlpha, alpha)
	}
	return alpha*relevanceNorm + (1-alpha)*retrievalNorm, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
