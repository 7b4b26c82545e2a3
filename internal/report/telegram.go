package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"ventasetl/internal/config"
)

// TelegramClient posts messages through the Bot API with bounded retry on
// transient failures.
type TelegramClient struct {
	baseURL    string
	token      string
	chatID     string
	httpClient *http.Client
}

func NewTelegramClient(cfg config.Config) (*TelegramClient, error) {
	if err := cfg.Require("TELEGRAM_TOKEN", cfg.TelegramToken); err != nil {
		return nil, err
	}
	if err := cfg.Require("TELEGRAM_CHAT_ID", cfg.TelegramChatID); err != nil {
		return nil, err
	}
	return &TelegramClient{
		baseURL:    "https://api.telegram.org",
		token:      cfg.TelegramToken,
		chatID:     cfg.TelegramChatID,
		httpClient: &http.Client{Timeout: time.Duration(cfg.TelegramTimeoutMs) * time.Millisecond},
	}, nil
}

func (c *TelegramClient) SendMessage(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id":    c.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)

	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			sleepBackoff(attempt)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			sleepBackoff(attempt)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		if isRetryableStatus(resp.StatusCode) && attempt < 5 {
			lastErr = fmt.Errorf("telegram status %d", resp.StatusCode)
			sleepBackoff(attempt)
			continue
		}
		return fmt.Errorf("telegram api error: status=%d body=%s", resp.StatusCode, string(body))
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("telegram request failed")
	}
	return lastErr
}

func sleepBackoff(attempt int) {
	if attempt >= 5 {
		return
	}
	time.Sleep(time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond)
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
