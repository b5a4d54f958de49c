package scoring

import (
	"math"
	"sort"

	"github.com/assessiq/backend/internal/models"
	"github.com/assessiq/backend/internal/stats"
)

// LevelScheme maps a 0-100 score to a qualitative label. Bands are sorted by
// descending lower bound; a score belongs to the first band whose Min it
// reaches.
type LevelScheme []models.LevelBand

// NewLevelScheme returns a sorted copy of bands, or the default scheme when
// bands is empty.
func NewLevelScheme(bands []models.LevelBand) LevelScheme {
	if len(bands) == 0 {
		bands = models.DefaultLevels
	}
	s := append(LevelScheme(nil), bands...)
	sort.SliceStable(s, func(i, j int) bool { return s[i].Min > s[j].Min })
	return s
}

// Level returns the label for score. Scores below every band get the lowest
// band, so the mapping is total.
func (s LevelScheme) Level(score float64) string {
	if len(s) == 0 {
		return ""
	}
	if math.IsNaN(score) {
		score = 0
	}
	for _, b := range s {
		if score >= b.Min {
			return b.Label
		}
	}
	return s[len(s)-1].Label
}

// ExperienceShift returns how many points the level thresholds move for a
// candidate with the given years of experience: positive for candidates
// above the baseline, negative below it, never beyond the cap. A nil config
// or unknown experience means no shift.
func ExperienceShift(years *float64, cfg *models.ExperienceAdjustment) float64 {
	if cfg == nil || years == nil || math.IsNaN(*years) {
		return 0
	}
	limit := math.Min(math.Max(cfg.Cap, 0), models.MaxExperienceCap)
	y := math.Max(*years, 0)
	shift := (y - cfg.BaselineYears) * math.Max(cfg.PointsPerYear, 0)
	return stats.Clamp(shift, -limit, limit)
}

// levelInput is the score a level is read at: the chosen basis with the
// experience shift applied to the thresholds.
func levelInput(basis string, percentage, percentile, shift float64) float64 {
	v := percentile
	if basis == models.BasisPercentage {
		v = percentage
	}
	return stats.Clamp(v-shift, 0, 100)
}
