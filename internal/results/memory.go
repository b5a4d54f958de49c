package results

import (
	"context"
	"sort"
	"sync"

	"github.com/assessiq/backend/internal/models"
)

// MemoryRepository is a Repository held in process memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	results map[string]models.StoredResult
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{results: make(map[string]models.StoredResult)}
}

func (m *MemoryRepository) Save(_ context.Context, r *models.StoredResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[r.ID] = *r
	return nil
}

func (m *MemoryRepository) Get(_ context.Context, id string) (*models.StoredResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *MemoryRepository) ListByUser(_ context.Context, userID int64, limit, offset int) ([]models.ResultSummary, int, error) {
	m.mu.RLock()
	var mine []models.StoredResult
	for _, r := range m.results {
		if r.UserID == userID {
			mine = append(mine, r)
		}
	}
	m.mu.RUnlock()

	sort.Slice(mine, func(i, j int) bool {
		if !mine[i].CreatedAt.Equal(mine[j].CreatedAt) {
			return mine[i].CreatedAt.After(mine[j].CreatedAt)
		}
		return mine[i].ID < mine[j].ID
	})

	out := []models.ResultSummary{}
	for i := offset; i < len(mine) && len(out) < limit; i++ {
		out = append(out, summarize(mine[i]))
	}
	return out, len(mine), nil
}

func (m *MemoryRepository) ListByType(_ context.Context, assessmentType string) ([]models.StoredResult, error) {
	m.mu.RLock()
	var out []models.StoredResult
	for _, r := range m.results {
		if r.AssessmentType == assessmentType {
			out = append(out, r)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func summarize(r models.StoredResult) models.ResultSummary {
	return models.ResultSummary{
		ID:                r.ID,
		AssessmentType:    r.AssessmentType,
		OverallScore:      r.OverallScore,
		OverallPercentile: r.Result.OverallPercentile,
		ProfileLabel:      r.Result.Profile.Label,
		IsValid:           r.IsValid,
		CreatedAt:         r.CreatedAt,
	}
}
