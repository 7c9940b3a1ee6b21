package handlers

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"growthwatch/backend/services/growth-service/internal/chart"
	"growthwatch/backend/services/growth-service/internal/chatbot"
	"growthwatch/backend/services/growth-service/internal/growth"
	"growthwatch/backend/services/growth-service/internal/markdown"
	"growthwatch/backend/services/growth-service/internal/service"
	"growthwatch/backend/services/growth-service/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// PageHandlers serves the HTML form and result page.
type PageHandlers struct {
	svc      *service.AssessmentService
	markdown *markdown.Renderer
	logger   *zap.Logger
}

// NewPageHandlers returns handler struct.
func NewPageHandlers(svc *service.AssessmentService, md *markdown.Renderer, logger *zap.Logger) *PageHandlers {
	if md == nil {
		md = markdown.NewRenderer()
	}
	return &PageHandlers{svc: svc, markdown: md, logger: logger}
}

type formValues struct {
	ChildName string
	AgeMonths string
	WeightKg  string
	HeightCm  string
}

type chatLine struct {
	Role    string
	Content string
}

type resultView struct {
	ChildName           string
	Label               string
	Severity            string
	Summary             template.HTML
	Evidence            []string
	Chart               template.HTML
	Guide               template.HTML
	Recommendation      template.HTML
	RecommendationError string
}

type pageView struct {
	Strategy string
	Form     formValues
	Error    string
	Result   *resultView
	Chat     []chatLine
}

// Index handles GET /.
func (h *PageHandlers) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	h.render(w, r, http.StatusOK, formValues{}, "")
}

// Analyze handles POST /analyze. Valid submissions redirect to / so a reload does not
// resubmit; invalid ones re-render the form with the message.
func (h *PageHandlers) Analyze(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, formValues{}, "formulario inválido")
		return
	}
	form := formValues{
		ChildName: r.PostFormValue("child_name"),
		AgeMonths: r.PostFormValue("age_months"),
		WeightKg:  r.PostFormValue("weight_kg"),
		HeightCm:  r.PostFormValue("height_cm"),
	}
	m, err := parseMeasurement(r)
	if err != nil {
		h.render(w, r, http.StatusBadRequest, form, err.Error())
		return
	}

	_, err = h.svc.Assess(r.Context(), service.AssessInput{
		SessionID:   id,
		ChildName:   form.ChildName,
		Measurement: m,
		APIKey:      r.PostFormValue("api_key"),
	})
	if errors.Is(err, service.ErrInvalidInput) {
		h.render(w, r, http.StatusBadRequest, form, validationMessage(err))
		return
	}
	if err != nil {
		h.logger.Error("assessment failed", zap.Error(err))
		h.render(w, r, http.StatusInternalServerError, form, "no se pudo completar el análisis, intente de nuevo")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// EndSession handles POST /session/end.
func (h *PageHandlers) EndSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if err := h.svc.End(r.Context(), id); err != nil {
		h.logger.Error("end session failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, session.ExpiredCookie())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Chat handles POST /chat, the form fallback for the websocket chat.
func (h *PageHandlers) Chat(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if _, err := h.svc.Chat(r.Context(), id, r.FormValue("question")); err != nil && !errors.Is(err, service.ErrInvalidInput) {
		h.logger.Error("chat failed", zap.Error(err))
	}
	http.Redirect(w, r, "/#chat", http.StatusSeeOther)
}

func (h *PageHandlers) render(w http.ResponseWriter, r *http.Request, status int, form formValues, formErr string) {
	view := pageView{
		Strategy: string(h.svc.Strategy().Name()),
		Form:     form,
		Error:    formErr,
	}

	if id, err := sessionID(r); err == nil {
		record, err := h.svc.Current(r.Context(), id)
		if err != nil {
			h.logger.Warn("load session record", zap.Error(err))
		}
		if record != nil {
			view.Result = h.resultView(record)
			if formErr == "" {
				view.Form = formValues{
					ChildName: record.ChildName,
					AgeMonths: fmt.Sprintf("%d", record.Measurement.AgeMonths),
					WeightKg:  trimNumber(record.Measurement.WeightKg),
					HeightCm:  trimNumber(record.Measurement.HeightCm),
				}
			}
		}
		msgs, err := h.svc.Transcript(r.Context(), id)
		if err != nil {
			h.logger.Warn("load chat transcript", zap.Error(err))
		}
		for _, m := range msgs {
			view.Chat = append(view.Chat, chatLine{Role: m.Role, Content: m.Content})
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, view); err != nil {
		h.logger.Error("render page", zap.Error(err))
	}
}

func (h *PageHandlers) resultView(record *session.Record) *resultView {
	status := record.Result.Status
	v := &resultView{
		ChildName:           record.ChildName,
		Label:               status.Label(),
		Severity:            status.Severity(),
		Summary:             h.markdown.HTML(chatbot.Summary(status)),
		Guide:               h.markdown.HTML(record.Guide),
		Recommendation:      h.markdown.HTML(record.Recommendation),
		RecommendationError: record.RecommendationError,
		Evidence:            evidence(record.Result),
	}
	svg, err := chart.RenderSVG(record.Chart, chart.Options{})
	if err != nil {
		h.logger.Warn("render chart", zap.Error(err))
	} else {
		v.Chart = svg
	}
	return v
}

func evidence(res growth.Result) []string {
	var out []string
	if res.ZScore != nil {
		out = append(out, fmt.Sprintf("Puntaje Z talla/edad: %.2f", *res.ZScore))
	}
	if res.Percentile != nil {
		out = append(out, fmt.Sprintf("Percentil: %.1f", *res.Percentile))
	}
	if res.ExpectedHeight != nil {
		out = append(out, fmt.Sprintf("Estatura esperada: %.1f cm", *res.ExpectedHeight))
	}
	if res.BMI != nil {
		out = append(out, fmt.Sprintf("IMC: %.2f", *res.BMI))
	}
	if res.Reference != nil && res.Reference.StdDev == 0 && res.Reference.HeightMax > 0 {
		out = append(out, fmt.Sprintf("Rango de referencia: %.1f–%.1f cm", res.Reference.HeightMin, res.Reference.HeightMax))
	}
	return out
}

func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

func trimNumber(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
