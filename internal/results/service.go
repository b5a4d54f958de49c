package results

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/assessiq/backend/internal/assessments"
	"github.com/assessiq/backend/internal/cache"
	"github.com/assessiq/backend/internal/models"
	"github.com/assessiq/backend/internal/narrative"
	"github.com/assessiq/backend/internal/scoring"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Service struct {
	registry *assessments.Registry
	repo     Repository
	cache    cache.ResultCache
	narrator *narrative.Writer
	logger   *slog.Logger

	narrativeTimeout time.Duration
	now              func() time.Time
	newID            func() string
}

// NewService wires scoring, persistence and caching. narrator may be nil,
// in which case results are stored without a narrative.
func NewService(registry *assessments.Registry, repo Repository, c cache.ResultCache, narrator *narrative.Writer, narrativeTimeout time.Duration, logger *slog.Logger) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	if narrativeTimeout <= 0 {
		narrativeTimeout = 30 * time.Second
	}
	return &Service{
		registry:         registry,
		repo:             repo,
		cache:            c,
		narrator:         narrator,
		logger:           logger,
		narrativeTimeout: narrativeTimeout,
		now:              time.Now,
		newID:            uuid.NewString,
	}
}

func (s *Service) Assessments() []models.AssessmentInfo {
	return s.registry.List()
}

// Preview scores a submission without storing it or generating a narrative.
func (s *Service) Preview(assessmentType string, req models.SubmitRequest) (*models.AssessmentResult, error) {
	return s.registry.Score(submission(assessmentType, req), scoring.Options{})
}

// Submit scores, narrates and persists a candidate's submission.
func (s *Service) Submit(ctx context.Context, userID int64, assessmentType string, req models.SubmitRequest) (*models.AssessmentResult, error) {
	def, err := s.registry.Get(assessmentType)
	if err != nil {
		return nil, err
	}
	result, err := s.registry.Score(submission(assessmentType, req), scoring.Options{})
	if err != nil {
		return nil, fmt.Errorf("score %s: %w", assessmentType, err)
	}

	if s.narrator != nil {
		nctx, cancel := context.WithTimeout(ctx, s.narrativeTimeout)
		text, err := s.narrator.Write(nctx, def, result)
		cancel()
		if err != nil {
			s.logger.Warn("narrative generation failed",
				"assessment_type", assessmentType, "model", s.narrator.ModelName(), "error", err)
		} else {
			result.Narrative = text
		}
	}

	completed := s.now().UTC()
	result.ID = s.newID()
	result.CompletedAt = &completed

	stored := &models.StoredResult{
		ID:             result.ID,
		UserID:         userID,
		AssessmentType: result.AssessmentType,
		OverallScore:   result.OverallScore,
		IsValid:        result.Validity.IsValid,
		Result:         *result,
		CreatedAt:      completed,
	}
	if err := s.repo.Save(ctx, stored); err != nil {
		return nil, fmt.Errorf("save result: %w", err)
	}

	if err := s.cache.SetResult(ctx, stored); err != nil {
		s.logger.Warn("cache result failed", "result_id", stored.ID, "error", err)
	}
	if err := s.cache.InvalidateAnalytics(ctx, assessmentType); err != nil {
		s.logger.Warn("invalidate analytics failed", "assessment_type", assessmentType, "error", err)
	}

	s.logger.Info("result stored",
		"result_id", stored.ID,
		"user_id", userID,
		"assessment_type", assessmentType,
		"overall_score", stored.OverallScore,
		"is_valid", stored.IsValid,
	)
	return result, nil
}

// Get returns a stored result. Candidates may only read their own results;
// employers may read any.
func (s *Service) Get(ctx context.Context, id string, userID int64, role models.Role) (*models.StoredResult, error) {
	stored, err := s.cache.GetResult(ctx, id)
	if err != nil {
		s.logger.Warn("cache read failed", "result_id", id, "error", err)
		stored = nil
	}
	if stored == nil {
		stored, err = s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetResult(ctx, stored); err != nil {
			s.logger.Warn("cache result failed", "result_id", id, "error", err)
		}
	}

	if role != models.RoleEmployer && stored.UserID != userID {
		return nil, ErrForbidden
	}
	return stored, nil
}

func (s *Service) List(ctx context.Context, userID int64, limit, offset int) (*models.ResultList, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	summaries, total, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &models.ResultList{Results: summaries, Total: total, Limit: limit, Offset: offset}, nil
}

// Analytics aggregates every stored result of an assessment type. Results
// are read through the cache and invalidated on each new submission.
func (s *Service) Analytics(ctx context.Context, assessmentType string) (*models.AssessmentAnalytics, error) {
	def, err := s.registry.Get(assessmentType)
	if err != nil {
		return nil, err
	}

	cached, err := s.cache.GetAnalytics(ctx, assessmentType)
	if err != nil {
		s.logger.Warn("cache read failed", "assessment_type", assessmentType, "error", err)
	}
	if cached != nil {
		return cached, nil
	}

	stored, err := s.repo.ListByType(ctx, assessmentType)
	if err != nil {
		return nil, err
	}
	analytics := ComputeAnalytics(def, stored)
	if err := s.cache.SetAnalytics(ctx, analytics); err != nil {
		s.logger.Warn("cache analytics failed", "assessment_type", assessmentType, "error", err)
	}
	return analytics, nil
}

func submission(assessmentType string, req models.SubmitRequest) models.Submission {
	return models.Submission{
		AssessmentType: assessmentType,
		Candidate:      req.Candidate,
		Responses:      req.Responses,
	}
}
