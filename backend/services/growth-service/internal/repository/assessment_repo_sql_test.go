package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"growthwatch/backend/services/growth-service/internal/models"
)

func newMockRepo(t *testing.T) (*AssessmentRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewAssessmentRepository(db), mock
}

func TestInsertAssignsIDAndCreatedAt(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	z := -2.5

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO assessments (id, session_id, child_name, age_months, weight_kg, height_cm, strategy, status, z_score, bmi)")).
		WithArgs(sqlmock.AnyArg(), "sess-1", "Ana", 24, 10.5, 80.0, "zscore", "chronic_malnutrition_risk", z, nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	a := &models.Assessment{
		SessionID: "sess-1",
		ChildName: "Ana",
		AgeMonths: 24,
		WeightKg:  10.5,
		HeightCm:  80,
		Strategy:  "zscore",
		Status:    "chronic_malnutrition_risk",
		ZScore:    &z,
	}
	if err := repo.Insert(context.Background(), a); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := uuid.Parse(a.ID); err != nil {
		t.Fatalf("expected generated uuid, got %q", a.ID)
	}
	if !a.CreatedAt.Equal(created) {
		t.Fatalf("expected created_at %v, got %v", created, a.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsertKeepsIDAndReturnsErrors(t *testing.T) {
	repo, mock := newMockRepo(t)
	boom := errors.New("connection reset")
	mock.ExpectQuery("INSERT INTO assessments").
		WithArgs("fixed-id", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), nil, nil).
		WillReturnError(boom)

	err := repo.Insert(context.Background(), &models.Assessment{ID: "fixed-id", Strategy: "bmi", Status: "normal"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected driver error, got %v", err)
	}
	if err := repo.Insert(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil record")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListRecentScansRowsNewestFirst(t *testing.T) {
	repo, mock := newMockRepo(t)
	newer := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	older := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "session_id", "child_name", "age_months", "weight_kg", "height_cm", "strategy", "status", "z_score", "bmi", "created_at"}).
		AddRow("a2", "s2", "", int64(36), 14.0, 95.0, "bmi", "normal", nil, 15.5, newer).
		AddRow("a1", "s1", "Ana", int64(24), 10.5, 80.0, "zscore", "chronic_malnutrition_risk", -2.5, nil, older)
	mock.ExpectQuery(regexp.QuoteMeta("FROM assessments ORDER BY created_at DESC LIMIT $1")).
		WithArgs(DefaultListLimit).
		WillReturnRows(rows)

	got, err := repo.ListRecent(context.Background(), 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a2" || got[1].ID != "a1" {
		t.Fatalf("unexpected rows %+v", got)
	}
	if got[0].ZScore != nil || got[0].BMI == nil || *got[0].BMI != 15.5 {
		t.Fatalf("unexpected nullable mapping for bmi row %+v", got[0])
	}
	if got[1].ZScore == nil || *got[1].ZScore != -2.5 || got[1].BMI != nil {
		t.Fatalf("unexpected nullable mapping for zscore row %+v", got[1])
	}
	if got[1].AgeMonths != 24 || got[1].HeightCm != 80 || got[1].ChildName != "Ana" || !got[1].CreatedAt.Equal(older) {
		t.Fatalf("unexpected scan order %+v", got[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListRecentCapsLimit(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("FROM assessments").
		WithArgs(MaxListLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	got, err := repo.ListRecent(context.Background(), 5000)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no rows, got %d", len(got))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
