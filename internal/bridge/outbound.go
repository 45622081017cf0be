package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Vovarama1992/school-tg-bridge/internal/delivery"
)

// Outbound — исходящая сторона транспорта: HTTP-клиент к sidecar-у,
// который держит реальную Telegram-сессию.
type Outbound struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewOutbound(baseURL, token string) *Outbound {
	return &Outbound{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (o *Outbound) Send(ctx context.Context, telegramID int64, text string) error {
	return o.post(ctx, "/sendMessage", map[string]any{
		"telegram_id": telegramID,
		"text":        text,
	}, nil)
}

func (o *Outbound) SetComposing(ctx context.Context, telegramID int64) error {
	return o.post(ctx, "/setTyping", map[string]any{
		"telegram_id": telegramID,
	}, nil)
}

func (o *Outbound) Resolve(ctx context.Context, username string) (int64, error) {
	var resp struct {
		TelegramID int64 `json:"telegram_id"`
	}
	err := o.post(ctx, "/resolve", map[string]any{
		"username": username,
	}, &resp)
	if err != nil {
		return 0, err
	}
	if resp.TelegramID == 0 {
		return 0, errors.New("bridge: username not resolved")
	}
	return resp.TelegramID, nil
}

func (o *Outbound) post(ctx context.Context, path string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if o.token != "" {
		req.Header.Set("Authorization", "Bearer "+o.token)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Флуд-контроль sidecar отдаёт как 429 с Retry-After (в секундах).
	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 30 * time.Second
		if v := resp.Header.Get("Retry-After"); v != "" {
			if secs, perr := strconv.Atoi(v); perr == nil && secs > 0 {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return &delivery.ThrottledError{RetryAfter: retryAfter}
	}

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("transport api error: %s body=%s", resp.Status, respBody)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
