package httpserver

import (
	"net/http"

	"growthwatch/backend/services/growth-service/internal/http/handlers"
)

// RouterDeps collects handler dependencies.
type RouterDeps struct {
	PageHandlers  *handlers.PageHandlers
	APIHandlers   *handlers.APIHandlers
	ChatHandlers  *handlers.ChatHandlers
	ChatSocket    http.HandlerFunc
	HealthHandler http.HandlerFunc
}

// NewRouter wires HTTP routes.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/health", method(http.MethodGet, deps.HealthHandler))

	mux.Handle("/", method(http.MethodGet, http.HandlerFunc(deps.PageHandlers.Index)))
	mux.Handle("/analyze", method(http.MethodPost, http.HandlerFunc(deps.PageHandlers.Analyze)))
	mux.Handle("/session/end", method(http.MethodPost, http.HandlerFunc(deps.PageHandlers.EndSession)))
	mux.Handle("/chat", method(http.MethodPost, http.HandlerFunc(deps.PageHandlers.Chat)))

	mux.Handle("/api/classify", method(http.MethodPost, http.HandlerFunc(deps.APIHandlers.Classify)))
	mux.Handle("/api/recommendation", method(http.MethodPost, http.HandlerFunc(deps.APIHandlers.Recommendation)))
	mux.Handle("/api/reference", method(http.MethodGet, http.HandlerFunc(deps.APIHandlers.Reference)))
	mux.Handle("/api/assessments", method(http.MethodGet, http.HandlerFunc(deps.APIHandlers.Assessments)))
	mux.Handle("/api/chat", method(http.MethodPost, http.HandlerFunc(deps.ChatHandlers.Ask)))
	mux.Handle("/api/chat/history", method(http.MethodGet, http.HandlerFunc(deps.ChatHandlers.History)))

	if deps.ChatSocket != nil {
		mux.Handle("/chat/ws", method(http.MethodGet, deps.ChatSocket))
	}

	return mux
}

func method(expected string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
