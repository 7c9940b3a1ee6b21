package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"growthwatch/backend/services/growth-service/internal/models"
)

// DefaultListLimit and MaxListLimit bound ListRecent.
const (
	DefaultListLimit = 20
	MaxListLimit     = 200
)

// AssessmentRepository stores assessments in Postgres.
type AssessmentRepository struct {
	db *sql.DB
}

// NewAssessmentRepository returns repository instance.
func NewAssessmentRepository(db *sql.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// Insert stores a row, assigning an id when empty.
func (r *AssessmentRepository) Insert(ctx context.Context, a *models.Assessment) error {
	if a == nil {
		return errors.New("assessment: nil record")
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	const query = `
		INSERT INTO assessments (id, session_id, child_name, age_months, weight_kg, height_cm, strategy, status, z_score, bmi)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`
	return r.db.QueryRowContext(ctx, query,
		a.ID, a.SessionID, a.ChildName, a.AgeMonths, a.WeightKg, a.HeightCm,
		a.Strategy, a.Status, nullFloat(a.ZScore), nullFloat(a.BMI),
	).Scan(&a.CreatedAt)
}

// ListRecent returns the newest rows first.
func (r *AssessmentRepository) ListRecent(ctx context.Context, limit int) ([]models.Assessment, error) {
	limit = ClampLimit(limit)
	const query = `
		SELECT id, session_id, child_name, age_months, weight_kg, height_cm, strategy, status, z_score, bmi, created_at
		FROM assessments
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Assessment
	for rows.Next() {
		var (
			a      models.Assessment
			zScore sql.NullFloat64
			bmi    sql.NullFloat64
		)
		if err := rows.Scan(&a.ID, &a.SessionID, &a.ChildName, &a.AgeMonths, &a.WeightKg, &a.HeightCm,
			&a.Strategy, &a.Status, &zScore, &bmi, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.ZScore = floatPtr(zScore)
		a.BMI = floatPtr(bmi)
		out = append(out, a)
	}
	return out, rows.Err()
}

// ClampLimit maps non-positive limits to DefaultListLimit and caps at MaxListLimit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
