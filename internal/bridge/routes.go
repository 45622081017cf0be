package bridge

import "github.com/go-chi/chi/v5"

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/telegram/webhook", h.HandleWebhook)
	r.Post("/greetings", h.HandleGreeting)
	r.Get("/stats", h.HandleStats)
}
