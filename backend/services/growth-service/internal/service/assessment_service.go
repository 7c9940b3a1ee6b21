package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"growthwatch/backend/services/growth-service/internal/chatbot"
	"growthwatch/backend/services/growth-service/internal/clients"
	"growthwatch/backend/services/growth-service/internal/growth"
	"growthwatch/backend/services/growth-service/internal/models"
	"growthwatch/backend/services/growth-service/internal/session"
)

// MaxChildNameLength bounds the optional child name, in characters.
const MaxChildNameLength = 100

var (
	// ErrInvalidInput wraps every validation failure.
	ErrInvalidInput = errors.New("assessment: invalid input")
	// ErrHistoryDisabled is returned when no database is configured.
	ErrHistoryDisabled = errors.New("assessment: history disabled")
)

// User-facing texts for recommendation failures.
const (
	MissingCredentialMessage = "No se ha configurado una clave de API para el servicio de recomendaciones. Ingrese una clave para obtener la guía personalizada."
	ServiceFailureMessage    = "No se pudo obtener la recomendación personalizada en este momento. Intente nuevamente más tarde."
)

// HistoryRepository defines storage contract used by the service.
type HistoryRepository interface {
	Insert(ctx context.Context, a *models.Assessment) error
	ListRecent(ctx context.Context, limit int) ([]models.Assessment, error)
}

// Recommender produces a narrative feeding guide.
type Recommender interface {
	Recommend(ctx context.Context, req clients.RecommendationRequest) (string, error)
}

// AssessInput is one form submission.
type AssessInput struct {
	SessionID   string
	ChildName   string
	Measurement growth.Measurement
	// APIKey is used for this submission only and never stored.
	APIKey string
}

// Classification is the synchronous classify result used by the JSON API.
type Classification struct {
	Measurement growth.Measurement `json:"measurement"`
	Result      growth.Result      `json:"result"`
	Label       string             `json:"label"`
	Severity    string             `json:"severity"`
	Chart       growth.ChartData   `json:"chart"`
	Guide       string             `json:"guide"`
}

// AssessmentService ties the classifier, session store, history and recommendation client.
type AssessmentService struct {
	strategy    growth.Strategy
	sessions    session.Store
	history     HistoryRepository
	recommender Recommender
	responder   *chatbot.Responder
	logger      *zap.Logger
	now         func() time.Time
}

// NewAssessmentService builds service. history and recommender may be nil.
func NewAssessmentService(
	strategy growth.Strategy,
	sessions session.Store,
	history HistoryRepository,
	recommender Recommender,
	responder *chatbot.Responder,
	logger *zap.Logger,
) *AssessmentService {
	if responder == nil {
		responder = chatbot.NewResponder(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{
		strategy:    strategy,
		sessions:    sessions,
		history:     history,
		recommender: recommender,
		responder:   responder,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Strategy returns the active classification strategy.
func (s *AssessmentService) Strategy() growth.Strategy { return s.strategy }

// HistoryEnabled reports whether assessments are persisted.
func (s *AssessmentService) HistoryEnabled() bool { return s.history != nil }

// Classify validates and classifies without touching session or history. A missing
// reference age is not an error here: the result carries out_of_range.
func (s *AssessmentService) Classify(m growth.Measurement) (*Classification, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	result, err := s.strategy.Classify(m)
	if err != nil && !errors.Is(err, growth.ErrNoReferenceData) {
		return nil, err
	}
	return &Classification{
		Measurement: m,
		Result:      result,
		Label:       result.Status.Label(),
		Severity:    result.Status.Severity(),
		Chart:       growth.DeriveChart(s.strategy.Reference(), m),
		Guide:       chatbot.Guide(result.Status),
	}, nil
}

// Assess classifies a submission, asks for a recommendation, replaces the session record
// and appends to history. Recommendation and history failures never fail the submission.
func (s *AssessmentService) Assess(ctx context.Context, in AssessInput) (*session.Record, error) {
	if in.SessionID == "" {
		return nil, errors.New("assessment: session id is required")
	}
	name := strings.TrimSpace(in.ChildName)
	if utf8.RuneCountInString(name) > MaxChildNameLength {
		return nil, fmt.Errorf("%w: child name longer than %d characters", ErrInvalidInput, MaxChildNameLength)
	}
	c, err := s.Classify(in.Measurement)
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := session.Record{
		ID:          in.SessionID,
		ChildName:   name,
		Measurement: c.Measurement,
		Result:      c.Result,
		Chart:       c.Chart,
		Guide:       c.Guide,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if prev, err := s.sessions.Get(ctx, in.SessionID); err == nil {
		record.CreatedAt = prev.CreatedAt
	} else if !errors.Is(err, session.ErrNotFound) {
		s.logger.Warn("load session record", zap.String("session_id", in.SessionID), zap.Error(err))
	}

	if c.Result.Status != growth.StatusOutOfRange {
		text, err := s.recommend(ctx, c.Measurement, c.Result.Status, in.APIKey)
		if err != nil {
			record.RecommendationError = RecommendationErrorMessage(err)
		} else {
			record.Recommendation = text
		}
	}

	if err := s.sessions.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("assessment: save session: %w", err)
	}
	s.saveHistory(ctx, record)

	s.logger.Info("assessment completed",
		zap.String("session_id", record.ID),
		zap.String("strategy", string(c.Result.Strategy)),
		zap.String("status", string(c.Result.Status)),
		zap.Int("age_months", c.Measurement.AgeMonths),
	)
	return &record, nil
}

// Recommend classifies m and asks the recommendation service about it.
func (s *AssessmentService) Recommend(ctx context.Context, m growth.Measurement, apiKey string) (*Classification, string, error) {
	c, err := s.Classify(m)
	if err != nil {
		return nil, "", err
	}
	if c.Result.Status == growth.StatusOutOfRange {
		return c, "", &growth.NoReferenceDataError{Strategy: c.Result.Strategy, AgeMonths: m.AgeMonths}
	}
	text, err := s.recommend(ctx, m, c.Result.Status, apiKey)
	return c, text, err
}

func (s *AssessmentService) recommend(ctx context.Context, m growth.Measurement, status growth.Status, apiKey string) (string, error) {
	if s.recommender == nil {
		return "", clients.ErrMissingCredential
	}
	text, err := s.recommender.Recommend(ctx, clients.RecommendationRequest{Measurement: m, Status: status, APIKey: apiKey})
	if err != nil {
		s.logger.Warn("recommendation unavailable", zap.Error(err))
	}
	return text, err
}

// RecommendationErrorMessage is the text shown in place of a failed recommendation.
func RecommendationErrorMessage(err error) string {
	if errors.Is(err, clients.ErrMissingCredential) {
		return MissingCredentialMessage
	}
	return ServiceFailureMessage
}

func (s *AssessmentService) saveHistory(ctx context.Context, record session.Record) {
	if s.history == nil {
		return
	}
	row := &models.Assessment{
		SessionID: record.ID,
		ChildName: record.ChildName,
		AgeMonths: record.Measurement.AgeMonths,
		WeightKg:  record.Measurement.WeightKg,
		HeightCm:  record.Measurement.HeightCm,
		Strategy:  string(record.Result.Strategy),
		Status:    string(record.Result.Status),
		ZScore:    record.Result.ZScore,
		BMI:       record.Result.BMI,
	}
	if err := s.history.Insert(ctx, row); err != nil {
		s.logger.Error("store assessment history", zap.String("session_id", record.ID), zap.Error(err))
	}
}

// Current returns the session's latest record, or nil when there is none.
func (s *AssessmentService) Current(ctx context.Context, sessionID string) (*session.Record, error) {
	record, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return nil, nil
	}
	return record, err
}

// End discards the session record and chat transcript.
func (s *AssessmentService) End(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.logger.Info("session ended", zap.String("session_id", sessionID))
	return nil
}

// History lists recent assessments.
func (s *AssessmentService) History(ctx context.Context, limit int) ([]models.Assessment, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.ListRecent(ctx, limit)
}

// Chat answers a question and records both sides in the session transcript. A transcript
// write failure is logged; the answer is still returned.
func (s *AssessmentService) Chat(ctx context.Context, sessionID, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: empty question", ErrInvalidInput)
	}
	answer := s.responder.Reply(question)
	now := s.now()
	if err := s.sessions.AppendChat(ctx, sessionID,
		session.ChatMessage{Role: session.RoleUser, Content: question, At: now},
		session.ChatMessage{Role: session.RoleAssistant, Content: answer, At: now},
	); err != nil {
		s.logger.Warn("append chat transcript", zap.String("session_id", sessionID), zap.Error(err))
	}
	return answer, nil
}

// Transcript returns the session's chat history.
func (s *AssessmentService) Transcript(ctx context.Context, sessionID string) ([]session.ChatMessage, error) {
	return s.sessions.Chat(ctx, sessionID)
}
