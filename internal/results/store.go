package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/assessiq/backend/internal/models"
)

var (
	ErrNotFound  = errors.New("result not found")
	ErrForbidden = errors.New("result belongs to another user")
)

// Repository persists scored results.
type Repository interface {
	Save(ctx context.Context, r *models.StoredResult) error
	Get(ctx context.Context, id string) (*models.StoredResult, error)
	// ListByUser returns one page of a user's results, newest first, and the
	// user's total result count.
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.ResultSummary, int, error)
	// ListByType returns every result of an assessment type, oldest first.
	ListByType(ctx context.Context, assessmentType string) ([]models.StoredResult, error)
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Save(ctx context.Context, r *models.StoredResult) error {
	payload, err := json.Marshal(r.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO assessment_results (id, user_id, assessment_type, overall_score, is_valid, result, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.UserID, r.AssessmentType, r.OverallScore, r.IsValid, payload, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*models.StoredResult, error) {
	// ids are UUID columns; anything else cannot exist
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, assessment_type, overall_score, is_valid, result, created_at
		 FROM assessment_results WHERE id = $1`,
		id,
	)
	r, err := scanStored(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}
	return r, nil
}

func (s *Store) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.ResultSummary, int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, assessment_type, overall_score,
		        COALESCE((result->>'overall_percentile')::DOUBLE PRECISION, 0),
		        COALESCE(result->'profile'->>'label', ''),
		        is_valid, created_at, COUNT(*) OVER()
		 FROM assessment_results
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	summaries := []models.ResultSummary{}
	total := 0
	for rows.Next() {
		var rs models.ResultSummary
		if err := rows.Scan(&rs.ID, &rs.AssessmentType, &rs.OverallScore, &rs.OverallPercentile,
			&rs.ProfileLabel, &rs.IsValid, &rs.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan result summary: %w", err)
		}
		summaries = append(summaries, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// An offset past the end returns no rows and so no window count.
	if len(summaries) == 0 && offset > 0 {
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM assessment_results WHERE user_id = $1`, userID,
		).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count results: %w", err)
		}
	}
	return summaries, total, nil
}

func (s *Store) ListByType(ctx context.Context, assessmentType string) ([]models.StoredResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, assessment_type, overall_score, is_valid, result, created_at
		 FROM assessment_results
		 WHERE assessment_type = $1
		 ORDER BY created_at, id`,
		assessmentType,
	)
	if err != nil {
		return nil, fmt.Errorf("list results by type: %w", err)
	}
	defer rows.Close()

	var out []models.StoredResult
	for rows.Next() {
		r, err := scanStored(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanStored(row scanner) (*models.StoredResult, error) {
	var r models.StoredResult
	var payload []byte
	if err := row.Scan(&r.ID, &r.UserID, &r.AssessmentType, &r.OverallScore, &r.IsValid, &payload, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &r.Result); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", r.ID, err)
	}
	return &r, nil
}
