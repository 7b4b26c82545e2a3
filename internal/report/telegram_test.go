package report

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"ventasetl/internal/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func telegramConfig() config.Config {
	return config.Config{
		TelegramToken:     "test-token",
		TelegramChatID:    "-100123",
		TelegramTimeoutMs: 1000,
	}
}

func TestSendMessageRetriesTransientFailures(t *testing.T) {
	attempt := 0

	client, err := NewTelegramClient(telegramConfig())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.URL.Path != "/bottest-token/sendMessage" {
				t.Fatalf("unexpected path %s", r.URL.Path)
			}
			var payload map[string]string
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Fatalf("decode payload: %v", err)
			}
			if payload["chat_id"] != "-100123" {
				t.Fatalf("unexpected chat_id %q", payload["chat_id"])
			}
			if payload["text"] != "hola" {
				t.Fatalf("unexpected text %q", payload["text"])
			}

			attempt++
			if attempt < 3 {
				return &http.Response{
					StatusCode: http.StatusTooManyRequests,
					Body:       io.NopCloser(strings.NewReader(`{"ok":false}`)),
				}, nil
			}
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(`{"ok":true}`)),
			}, nil
		}),
	}

	if err := client.SendMessage(context.Background(), "hola"); err != nil {
		t.Fatalf("send message: %v", err)
	}
	if attempt != 3 {
		t.Errorf("expected 3 attempts, got %d", attempt)
	}
}

func TestSendMessageBacksOffOnTransportError(t *testing.T) {
	attempt := 0

	client, err := NewTelegramClient(telegramConfig())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			attempt++
			if attempt < 3 {
				return nil, errors.New("connection reset")
			}
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(`{"ok":true}`)),
			}, nil
		}),
	}

	start := time.Now()
	if err := client.SendMessage(context.Background(), "hola"); err != nil {
		t.Fatalf("send message: %v", err)
	}
	if attempt != 3 {
		t.Errorf("expected 3 attempts, got %d", attempt)
	}
	// Two failed attempts must not fire back-to-back: the first two backoff
	// windows alone are at least 750ms.
	if elapsed := time.Since(start); elapsed < 500*time.Millisecond {
		t.Errorf("transport errors retried without backoff, elapsed=%v", elapsed)
	}
}

func TestSendMessageFailsFastOnClientError(t *testing.T) {
	attempt := 0

	client, err := NewTelegramClient(telegramConfig())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			attempt++
			return &http.Response{
				StatusCode: http.StatusBadRequest,
				Body:       io.NopCloser(strings.NewReader(`{"ok":false,"description":"chat not found"}`)),
			}, nil
		}),
	}

	err = client.SendMessage(context.Background(), "hola")
	if err == nil {
		t.Fatal("expected error on 400 response")
	}
	if attempt != 1 {
		t.Errorf("400 should not be retried, got %d attempts", attempt)
	}
	if !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("error should carry the api body, got %v", err)
	}
}

func TestNewTelegramClientRequiresCredentials(t *testing.T) {
	cfg := telegramConfig()
	cfg.TelegramToken = ""
	if _, err := NewTelegramClient(cfg); err == nil {
		t.Fatal("expected error without TELEGRAM_TOKEN")
	}

	cfg = telegramConfig()
	cfg.TelegramChatID = ""
	if _, err := NewTelegramClient(cfg); err == nil {
		t.Fatal("expected error without TELEGRAM_CHAT_ID")
	}
}
