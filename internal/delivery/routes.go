package delivery

import (
	"net/http"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(
	r chi.Router,
	hT *TranscribeHandler,
	hS *SessionHandler,
	hC *ChatHandler,
	metricsHandler http.Handler,
	staticDir string,
) {
	r.Group(func(pr chi.Router) {
		pr.Use(httputil.RecoverMiddleware)

		// --- голос ---
		pr.Post("/transcribe", hT.Transcribe)

		// --- сессия ---
		pr.Get("/session/history", hS.History)
		pr.Delete("/session", hS.Reset)

		// --- перевод ---
		pr.Post("/api/chat", hC.Chat)
		pr.Get("/api/messages", hC.List)

		pr.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("pong"))
		})
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}
	if staticDir != "" {
		r.Handle("/*", spaHandler(staticDir))
	}
}
