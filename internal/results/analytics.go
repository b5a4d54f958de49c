package results

import (
	"sort"

	"github.com/assessiq/backend/internal/models"
	"github.com/assessiq/backend/internal/stats"
)

// ComputeAnalytics aggregates the stored results of one assessment. Results
// flagged by validity checks are counted but left out of score statistics
// and the cohort ranking.
func ComputeAnalytics(def *models.Definition, stored []models.StoredResult) *models.AssessmentAnalytics {
	a := &models.AssessmentAnalytics{
		AssessmentType: def.Type,
		Count:          len(stored),
		Dimensions:     make([]models.DimensionAnalytics, 0, len(def.Dimensions)),
		ProfileCounts:  map[string]int{},
		Ranking:        []models.CandidateRank{},
	}

	var valid []models.StoredResult
	for _, r := range stored {
		if r.IsValid {
			valid = append(valid, r)
		}
	}
	a.ValidCount = len(valid)
	if a.Count > 0 {
		a.ValidShare = stats.Round(float64(a.ValidCount)/float64(a.Count), 4)
	}

	overall := make([]float64, len(valid))
	for i, r := range valid {
		overall[i] = r.OverallScore
		if label := r.Result.Profile.Label; label != "" {
			a.ProfileCounts[label]++
		}
	}
	a.MeanOverall = stats.Round(stats.Mean(overall), 2)
	a.StdDevOverall = stats.Round(stats.StdDev(overall), 2)

	for _, dim := range def.Dimensions {
		da := models.DimensionAnalytics{
			Key:               dim.Key,
			Name:              dim.Name,
			LevelDistribution: map[string]int{},
		}
		var pcts []float64
		for _, r := range valid {
			ds, ok := r.Result.DimensionByKey(dim.Key)
			if !ok || ds.LowConfidence {
				continue
			}
			pcts = append(pcts, ds.Percentage)
			da.LevelDistribution[ds.Level]++
		}
		da.MeanPercentage = stats.Round(stats.Mean(pcts), 2)
		da.StdDevPercentage = stats.Round(stats.StdDev(pcts), 2)
		a.Dimensions = append(a.Dimensions, da)
	}

	for _, r := range valid {
		a.Ranking = append(a.Ranking, models.CandidateRank{
			ResultID:         r.ID,
			CandidateName:    r.Result.Candidate.Name,
			OverallScore:     r.OverallScore,
			CohortPercentile: stats.Round(stats.PercentileRank(r.OverallScore, overall), 2),
		})
	}
	sort.SliceStable(a.Ranking, func(i, j int) bool {
		if a.Ranking[i].OverallScore != a.Ranking[j].OverallScore {
			return a.Ranking[i].OverallScore > a.Ranking[j].OverallScore
		}
		return a.Ranking[i].ResultID < a.Ranking[j].ResultID
	})
	return a
}
