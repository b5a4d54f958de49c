package scoring

import (
	"math"

	"github.com/assessiq/backend/internal/models"
	"github.com/assessiq/backend/internal/stats"
)

// Smooth dampens a lopsided profile. When the gap between the highest and
// lowest dimension percentage exceeds cfg.SpreadThreshold, the highest is
// moved down and the lowest up by cfg.Nudge, never past their midpoint.
// Low-confidence dimensions are left alone. The input is not modified.
func Smooth(dims []models.DimensionScore, cfg models.Smoothing) []models.DimensionScore {
	out := append([]models.DimensionScore(nil), dims...)
	if !cfg.Enabled || cfg.Nudge <= 0 {
		return out
	}

	hi, lo := -1, -1
	for i, d := range out {
		if d.LowConfidence {
			continue
		}
		if hi < 0 || d.Percentage > out[hi].Percentage {
			hi = i
		}
		if lo < 0 || d.Percentage < out[lo].Percentage {
			lo = i
		}
	}
	if hi < 0 || hi == lo {
		return out
	}

	spread := out[hi].Percentage - out[lo].Percentage
	if spread <= cfg.SpreadThreshold {
		return out
	}
	nudge := math.Min(cfg.Nudge, spread/2)
	out[hi].Percentage = stats.Clamp(out[hi].Percentage-nudge, 0, 100)
	out[lo].Percentage = stats.Clamp(out[lo].Percentage+nudge, 0, 100)
	out[hi].Smoothed = true
	out[lo].Smoothed = true
	return out
}
