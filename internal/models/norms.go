package models

import (
	"errors"
	"fmt"

	"github.com/assessiq/backend/internal/stats"
)

// NormTable holds the score thresholds reached at fixed percentile anchors,
// e.g. Anchors [10 25 50 75 90 95 99] with Thresholds [35 45 58 70 80 86 93].
type NormTable struct {
	Anchors    []float64 `json:"anchors" yaml:"anchors"`
	Thresholds []float64 `json:"thresholds" yaml:"thresholds"`
	Mean       float64   `json:"mean,omitempty" yaml:"mean,omitempty"`
	StdDev     float64   `json:"std_dev,omitempty" yaml:"std_dev,omitempty"`
}

func (n *NormTable) Validate() error {
	if len(n.Anchors) == 0 {
		return errors.New("no anchors")
	}
	if len(n.Anchors) != len(n.Thresholds) {
		return fmt.Errorf("%d anchors but %d thresholds", len(n.Anchors), len(n.Thresholds))
	}
	for i, a := range n.Anchors {
		if a <= 0 || a >= 100 {
			return fmt.Errorf("anchor %v outside (0,100)", a)
		}
		if i > 0 && a <= n.Anchors[i-1] {
			return errors.New("anchors must increase")
		}
		if i > 0 && n.Thresholds[i] < n.Thresholds[i-1] {
			return errors.New("thresholds must not decrease")
		}
	}
	return nil
}

// Percentile converts a 0-100 score to a percentile in [1, 99] by linear
// interpolation between anchors. Scores below the first threshold are
// interpolated from (0, 1); scores at or past the last threshold get the
// last anchor.
func (n *NormTable) Percentile(score float64) float64 {
	score = stats.Clamp(score, 0, 100)
	if n == nil || len(n.Anchors) == 0 || len(n.Anchors) != len(n.Thresholds) {
		return stats.Clamp(score, 1, 99)
	}

	last := len(n.Thresholds) - 1
	if score >= n.Thresholds[last] {
		return stats.Clamp(n.Anchors[last], 1, 99)
	}
	if score < n.Thresholds[0] {
		if n.Thresholds[0] <= 0 {
			return stats.Clamp(n.Anchors[0], 1, 99)
		}
		p := 1 + (n.Anchors[0]-1)*score/n.Thresholds[0]
		return stats.Clamp(p, 1, 99)
	}

	for i := 0; i < last; i++ {
		lo, hi := n.Thresholds[i], n.Thresholds[i+1]
		if score < lo || score >= hi {
			continue
		}
		frac := (score - lo) / (hi - lo)
		p := n.Anchors[i] + frac*(n.Anchors[i+1]-n.Anchors[i])
		return stats.Clamp(p, 1, 99)
	}
	return stats.Clamp(n.Anchors[last], 1, 99)
}
