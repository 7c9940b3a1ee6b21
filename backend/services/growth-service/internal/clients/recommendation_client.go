package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"growthwatch/backend/services/growth-service/internal/growth"
)

// HTTPDoer is the subset of *http.Client used by the clients.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// ErrMissingCredential is returned before any request when no API key is available.
var ErrMissingCredential = errors.New("recommendation: api credential not configured")

// ServiceError covers network failures, non-2xx replies and unusable bodies.
type ServiceError struct {
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("recommendation service: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("recommendation service: %v", e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

const (
	defaultBaseURL    = "https://api.openai.com/v1"
	defaultModel      = "gpt-4o"
	defaultTimeout    = 30 * time.Second
	defaultRetryDelay = 500 * time.Millisecond
	maxResponseBytes  = 1 << 20

	systemPrompt = "Eres un experto en nutrición infantil que provee recomendaciones prácticas."
)

// RecommendationConfig configures the chat-completion call.
type RecommendationConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	// Timeout bounds each attempt.
	Timeout time.Duration
	// Retries is how many times a transient failure is retried; negative disables retrying.
	Retries    int
	RetryDelay time.Duration
}

// RecommendationRequest is one child's data plus the classification outcome.
type RecommendationRequest struct {
	Measurement growth.Measurement
	Status      growth.Status
	// APIKey overrides the configured key for this request only.
	APIKey string
}

// RecommendationClient asks a hosted chat-completion model for a feeding guide.
type RecommendationClient struct {
	cfg    RecommendationConfig
	client HTTPDoer
	logger *zap.Logger
}

// NewRecommendationClient fills config defaults. A nil doer gets an *http.Client with the
// attempt timeout.
func NewRecommendationClient(cfg RecommendationConfig, doer HTTPDoer, logger *zap.Logger) *RecommendationClient {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Retries == 0 {
		cfg.Retries = 1
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if doer == nil {
		doer = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecommendationClient{cfg: cfg, client: doer, logger: logger}
}

// HasCredential reports whether a server-side key is configured.
func (c *RecommendationClient) HasCredential() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Recommend returns the model's markdown text. It fails with ErrMissingCredential without
// touching the network when no key is set, and with *ServiceError otherwise.
func (c *RecommendationClient) Recommend(ctx context.Context, req RecommendationRequest) (string, error) {
	apiKey := strings.TrimSpace(req.APIKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(c.cfg.APIKey)
	}
	if apiKey == "" {
		return "", ErrMissingCredential
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildPrompt(req.Measurement, req.Status)},
		},
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("retrying recommendation request", zap.Int("attempt", attempt+1), zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return "", &ServiceError{Err: ctx.Err()}
			case <-time.After(c.cfg.RetryDelay):
			}
		}

		text, transient, err := c.attempt(ctx, apiKey, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !transient {
			break
		}
	}

	c.logger.Warn("recommendation request failed", zap.Error(lastErr))
	return "", lastErr
}

// attempt performs one POST. transient is true for transport errors and gateway statuses.
func (c *RecommendationClient) attempt(ctx context.Context, apiKey string, body []byte) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", false, &ServiceError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		parentDone := errors.Is(err, context.Canceled)
		return "", !parentDone, &ServiceError{Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", true, &ServiceError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		transient := resp.StatusCode == http.StatusBadGateway ||
			resp.StatusCode == http.StatusServiceUnavailable ||
			resp.StatusCode == http.StatusGatewayTimeout
		return "", transient, &ServiceError{StatusCode: resp.StatusCode, Err: errors.New(upstreamMessage(payload))}
	}

	var parsed chatResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", false, &ServiceError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode body: %w", err)}
	}
	if parsed.Error != nil {
		return "", false, &ServiceError{StatusCode: resp.StatusCode, Err: errors.New(parsed.Error.Message)}
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", false, &ServiceError{StatusCode: resp.StatusCode, Err: errors.New("response has no completion")}
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), false, nil
}

func upstreamMessage(payload []byte) string {
	var parsed chatResponse
	if err := json.Unmarshal(payload, &parsed); err == nil && parsed.Error != nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	msg := strings.TrimSpace(string(payload))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		msg = "empty response"
	}
	return msg
}

// BuildPrompt phrases the child's data and status for the model.
func BuildPrompt(m growth.Measurement, status growth.Status) string {
	return fmt.Sprintf(
		"Un niño de %d meses de edad, que pesa %s kg y mide %s cm, ha sido clasificado con un estado de salud de '%s'. "+
			"Basado en esta información y en los estándares nutricionales para niños de esta edad, "+
			"por favor, genera una guía práctica y personalizada de alimentación que incluya recomendaciones de alimentos, "+
			"frecuencias y porciones, adaptadas al contexto de una comunidad rural en Ecuador, con énfasis en alimentos locales.",
		m.AgeMonths, trimFloat(m.WeightKg), trimFloat(m.HeightCm), status.Label(),
	)
}

func trimFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.1f", v), "0"), ".")
}
