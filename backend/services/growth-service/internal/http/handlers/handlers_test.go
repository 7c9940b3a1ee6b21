package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"growthwatch/backend/services/growth-service/internal/clients"
	"growthwatch/backend/services/growth-service/internal/growth"
	"growthwatch/backend/services/growth-service/internal/http/middleware"
	"growthwatch/backend/services/growth-service/internal/service"
	"growthwatch/backend/services/growth-service/internal/session"
)

type memoryStore struct {
	mu      sync.Mutex
	records map[string]session.Record
	chat    map[string][]session.ChatMessage
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: map[string]session.Record{}, chat: map[string][]session.ChatMessage{}}
}

func (m *memoryStore) Get(_ context.Context, id string) (*session.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return &r, nil
}

func (m *memoryStore) Save(_ context.Context, r session.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.ID] = r
	return nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	delete(m.chat, id)
	return nil
}

func (m *memoryStore) AppendChat(_ context.Context, id string, msgs ...session.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chat[id] = append(m.chat[id], msgs...)
	return nil
}

func (m *memoryStore) Chat(_ context.Context, id string) ([]session.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]session.ChatMessage(nil), m.chat[id]...), nil
}

type stubRecommender struct {
	text string
	err  error
}

func (s stubRecommender) Recommend(context.Context, clients.RecommendationRequest) (string, error) {
	return s.text, s.err
}

func newTestService(t *testing.T, name growth.StrategyName, rec service.Recommender) (*service.AssessmentService, *memoryStore) {
	t.Helper()
	strategy, err := growth.NewStrategy(name, nil)
	if err != nil {
		t.Fatalf("strategy: %v", err)
	}
	store := newMemoryStore()
	return service.NewAssessmentService(strategy, store, nil, rec, nil, zap.NewNop()), store
}

func withSession(r *http.Request, id string) *http.Request {
	return r.WithContext(middleware.WithSessionID(r.Context(), id))
}

func TestClassifyAPI(t *testing.T) {
	svc, _ := newTestService(t, growth.StrategyZScore, nil)
	h := NewAPIHandlers(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Classify(rec, httptest.NewRequest(http.MethodPost, "/api/classify",
		strings.NewReader(`{"age_months":24,"weight_kg":11,"height_cm":80}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Result growth.Result   `json:"result"`
		Label  string          `json:"label"`
		Rows   []growth.Triple `json:"rows"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Result.Status != growth.StatusChronicRisk || body.Label != "Riesgo de Desnutrición Crónica" {
		t.Fatalf("unexpected body %+v", body)
	}
	if len(body.Rows) != 3*61+1 || body.Rows[len(body.Rows)-1].Label != growth.SeriesChild {
		t.Fatalf("unexpected rows %d", len(body.Rows))
	}
}

func TestClassifyAPIErrors(t *testing.T) {
	svc, _ := newTestService(t, growth.StrategyBanded, nil)
	h := NewAPIHandlers(svc, zap.NewNop())
	cases := []struct {
		body string
		want int
	}{
		{`{`, http.StatusBadRequest},
		{`{"age_months":70,"weight_kg":11,"height_cm":80}`, http.StatusBadRequest},
		{`{"age_months":12,"weight_kg":-1,"height_cm":80}`, http.StatusBadRequest},
		{`{"age_months":18,"weight_kg":10,"height_cm":80}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.Classify(rec, httptest.NewRequest(http.MethodPost, "/api/classify", strings.NewReader(tc.body)))
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.body, tc.want, rec.Code)
		}
	}
}

func TestRecommendationAPI(t *testing.T) {
	cases := []struct {
		name string
		rec  service.Recommender
		want int
	}{
		{"no client", nil, http.StatusServiceUnavailable},
		{"missing credential", stubRecommender{err: clients.ErrMissingCredential}, http.StatusServiceUnavailable},
		{"upstream failure", stubRecommender{err: &clients.ServiceError{StatusCode: 500, Err: errors.New("x")}}, http.StatusBadGateway},
		{"ok", stubRecommender{text: "**come bien**"}, http.StatusOK},
	}
	for _, tc := range cases {
		svc, _ := newTestService(t, growth.StrategyZScore, tc.rec)
		h := NewAPIHandlers(svc, zap.NewNop())
		rec := httptest.NewRecorder()
		h.Recommendation(rec, httptest.NewRequest(http.MethodPost, "/api/recommendation",
			strings.NewReader(`{"age_months":24,"weight_kg":11,"height_cm":86}`)))
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d: %s", tc.name, tc.want, rec.Code, rec.Body.String())
		}
	}
}

func TestReferenceAndHistoryAPI(t *testing.T) {
	svc, _ := newTestService(t, growth.StrategyBanded, nil)
	h := NewAPIHandlers(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Reference(rec, httptest.NewRequest(http.MethodGet, "/api/reference", nil))
	var body struct {
		Kind   growth.TableKind        `json:"kind"`
		Points []growth.ReferencePoint `json:"points"`
		Series []growth.Series         `json:"series"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Kind != growth.KindBanded || len(body.Points) != 5 || len(body.Series) != 3 {
		t.Fatalf("unexpected reference %+v", body)
	}

	rec = httptest.NewRecorder()
	h.Assessments(rec, httptest.NewRequest(http.MethodGet, "/api/assessments", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 with history disabled, got %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	h.Assessments(rec, httptest.NewRequest(http.MethodGet, "/api/assessments?limit=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}
}

func TestChatAPI(t *testing.T) {
	svc, store := newTestService(t, growth.StrategyZScore, nil)
	h := NewChatHandlers(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Ask(rec, withSession(httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"question":"¿Qué dieta?"}`)), "s1"))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "lactancia materna") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if len(store.chat["s1"]) != 2 {
		t.Fatalf("expected transcript of 2, got %d", len(store.chat["s1"]))
	}

	rec = httptest.NewRecorder()
	h.History(rec, withSession(httptest.NewRequest(http.MethodGet, "/api/chat/history", nil), "s1"))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"role":"assistant"`) {
		t.Fatalf("unexpected history %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.Ask(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"question":"x"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rec.Code)
	}

	out, err := h.Process(context.Background(), "s2", []byte(`{"question":"desnutrición crónica"}`))
	if err != nil || !strings.Contains(string(out), "retraso en la talla") {
		t.Fatalf("unexpected ws reply %s %v", out, err)
	}
	out, _ = h.Process(context.Background(), "s2", []byte(`nope`))
	if !strings.Contains(string(out), `"error"`) {
		t.Fatalf("expected error frame, got %s", out)
	}
}

func TestAnalyzeFlow(t *testing.T) {
	svc, store := newTestService(t, growth.StrategyZScore, stubRecommender{text: "- **Huevos** cada día"})
	h := NewPageHandlers(svc, nil, zap.NewNop())

	form := url.Values{
		"child_name": {"Ana <b>"},
		"age_months": {"24"},
		"weight_kg":  {"11,5"},
		"height_cm":  {"80"},
	}
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.Analyze(rec, withSession(req, "s1"))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if store.records["s1"].Measurement.WeightKg != 11.5 {
		t.Fatalf("decimal comma not parsed: %+v", store.records["s1"].Measurement)
	}

	rec = httptest.NewRecorder()
	h.Index(rec, withSession(httptest.NewRequest(http.MethodGet, "/", nil), "s1"))
	page := rec.Body.String()
	for _, want := range []string{"Riesgo de Desnutrición Crónica", "<svg", "<strong>Huevos</strong>", "notice error", "Ana &lt;b&gt;"} {
		if !strings.Contains(page, want) {
			t.Fatalf("page missing %q", want)
		}
	}

	rec = httptest.NewRecorder()
	h.EndSession(rec, withSession(httptest.NewRequest(http.MethodPost, "/session/end", nil), "s1"))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if _, ok := store.records["s1"]; ok {
		t.Fatalf("record should be discarded")
	}
}

func TestAnalyzeValidation(t *testing.T) {
	svc, store := newTestService(t, growth.StrategyZScore, nil)
	h := NewPageHandlers(svc, nil, zap.NewNop())

	for _, form := range []url.Values{
		{"age_months": {"doce"}, "weight_kg": {"10"}, "height_cm": {"75"}},
		{"age_months": {"72"}, "weight_kg": {"10"}, "height_cm": {"75"}},
		{"age_months": {"12"}, "weight_kg": {"0"}, "height_cm": {"75"}},
	} {
		req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h.Analyze(rec, withSession(req, "s1"))
		if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), `role="alert"`) {
			t.Fatalf("expected 400 with message for %v, got %d", form, rec.Code)
		}
	}
	if len(store.records) != 0 {
		t.Fatalf("invalid input must not create a record")
	}
}

func TestIndexUnknownPath(t *testing.T) {
	svc, _ := newTestService(t, growth.StrategyZScore, nil)
	rec := httptest.NewRecorder()
	NewPageHandlers(svc, nil, zap.NewNop()).Index(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
