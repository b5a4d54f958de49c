package scoring

import (
	"sort"

	"github.com/assessiq/backend/internal/models"
	"github.com/assessiq/backend/internal/stats"
)

// Aggregate turns resolved answers into one DimensionScore per definition
// dimension, in definition order. Only Raw, MaxRaw, Percentage, ItemCount,
// Subdimensions and LowConfidence are filled here.
//
// A dimension's percentage is its weighted raw sum rescaled between the
// lowest and highest attainable weighted sums. When the dimension declares
// subdimension weights, the percentage is instead the weighted mean of its
// subdimension percentages. Dimensions with no answered items get the
// definition's neutral score and are flagged low-confidence.
func Aggregate(def *models.Definition, scored []Scored, demographics map[string]string, opts Options) []models.DimensionScore {
	byDim := make(map[string][]Scored)
	for _, s := range scored {
		byDim[s.Dimension] = append(byDim[s.Dimension], s)
	}

	out := make([]models.DimensionScore, 0, len(def.Dimensions))
	for _, dim := range def.Dimensions {
		items := byDim[dim.Key]
		ds := models.DimensionScore{
			Key:       dim.Key,
			Name:      dim.Name,
			ItemCount: len(items),
		}
		if len(items) == 0 {
			ds.Percentage = def.NeutralScore
			ds.LowConfidence = true
			out = append(out, ds)
			continue
		}

		raw, lo, hi := weightedSums(items, def.Scale)
		ds.Raw = stats.Round(raw, 2)
		ds.MaxRaw = stats.Round(hi, 2)
		ds.Percentage = stats.Normalize(raw, lo, hi)

		if subs := subdimensionScores(items, def.Scale); len(subs) > 0 {
			ds.Subdimensions = subs
			if len(dim.Subdimensions) > 0 {
				ds.Percentage = weightedSubdimensions(subs, dim.Subdimensions)
			}
		}

		if !opts.DisableDemographics && len(def.DemographicFactors) > 0 && len(demographics) > 0 {
			ds.Percentage = stats.AdjustForDemographics(ds.Percentage, demographics, def.DemographicFactors)
		}
		out = append(out, ds)
	}
	return out
}

func weightedSums(items []Scored, scale models.Scale) (raw, lo, hi float64) {
	for _, it := range items {
		raw += it.Weight * it.Value
		lo += it.Weight * scale.Min
		hi += it.Weight * scale.Max
	}
	return raw, lo, hi
}

func subdimensionScores(items []Scored, scale models.Scale) map[string]float64 {
	bySub := make(map[string][]Scored)
	for _, it := range items {
		if it.Subdimension != "" {
			bySub[it.Subdimension] = append(bySub[it.Subdimension], it)
		}
	}
	if len(bySub) == 0 {
		return nil
	}
	out := make(map[string]float64, len(bySub))
	for key, subItems := range bySub {
		raw, lo, hi := weightedSums(subItems, scale)
		out[key] = stats.Round(stats.Normalize(raw, lo, hi), 2)
	}
	return out
}

// weightedSubdimensions averages the scored subdimensions with the
// configured weights; subdimensions missing from the table count once.
func weightedSubdimensions(subs map[string]float64, weights map[string]float64) float64 {
	keys := make([]string, 0, len(subs))
	for k := range subs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	scores := make([]float64, len(keys))
	w := make([]float64, len(keys))
	for i, k := range keys {
		scores[i] = subs[k]
		w[i] = 1
		if configured, ok := weights[k]; ok {
			w[i] = configured
		}
	}
	score, err := stats.WeightedScore(scores, w)
	if err != nil {
		return stats.Mean(scores)
	}
	return score
}
