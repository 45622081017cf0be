package bridge

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/Vovarama1992/school-tg-bridge/internal/delivery"
	"github.com/Vovarama1992/school-tg-bridge/internal/ratelimit"
)

// Orchestrator — то, что нужно хендлеру от конвейера доставки.
type Orchestrator interface {
	Handle(ctx context.Context, msg delivery.Inbound)
}

// Enqueuer — постановка приветствий в очередь.
type Enqueuer interface {
	Enqueue(username string) error
}

type Handler struct {
	orch    Orchestrator
	greeter Enqueuer
	limiter *ratelimit.Limiter
}

func NewHandler(orch Orchestrator, greeter Enqueuer, limiter *ratelimit.Limiter) *Handler {
	return &Handler{orch: orch, greeter: greeter, limiter: limiter}
}

// HandleWebhook — вход от транспортного sidecar-а.
// Sidecar ответа не ждёт — ACK сразу, конвейер работает в фоне.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		TelegramID int64  `json:"telegram_id"`
		Username   string `json:"username"`
		Text       string `json:"text"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if payload.TelegramID == 0 || payload.Text == "" {
		http.Error(w, "missing telegram_id or text", http.StatusBadRequest)
		return
	}

	msg := delivery.Inbound{
		TelegramID: payload.TelegramID,
		Username:   payload.Username,
		Text:       payload.Text,
		ArrivedAt:  time.Now(),
	}

	go h.orch.Handle(context.Background(), msg)

	w.WriteHeader(http.StatusOK)
}

// HandleGreeting ставит нового студента в очередь приветствий.
func (h *Handler) HandleGreeting(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if payload.Username == "" {
		http.Error(w, "missing username", http.StatusBadRequest)
		return
	}

	if err := h.greeter.Enqueue(payload.Username); err != nil {
		log.Printf("[bridge] greeting enqueue failed: %v", err)
		http.Error(w, "queue is full", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// HandleStats — снимок счётчиков лимитера.
func (h *Handler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.limiter.Stats())
}
