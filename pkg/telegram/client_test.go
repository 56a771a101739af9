package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient("123:abc", WithBaseURL("http://tg.test/"), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestSendMessageRequestShape(t *testing.T) {
	var captured *http.Request
	var payload map[string]any

	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		body, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		return jsonResponse(http.StatusOK, `{"ok":true,"result":{"message_id":42,"date":1700000000,"chat":{"id":-100123}}}`), nil
	})

	msg, err := client.SendMessage(context.Background(), -100123, "*New order*")
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if msg.MessageID != 42 || msg.Chat.ID != -100123 {
		t.Fatalf("unexpected message %+v", msg)
	}
	if captured.Method != http.MethodPost {
		t.Fatalf("expected POST, got %s", captured.Method)
	}
	if got := captured.URL.String(); got != "http://tg.test/bot123:abc/sendMessage" {
		t.Fatalf("unexpected url %q", got)
	}
	if captured.Header.Get("Content-Type") != "application/json" {
		t.Fatalf("missing json content type")
	}
	if payload["chat_id"] != float64(-100123) {
		t.Fatalf("unexpected chat_id %v", payload["chat_id"])
	}
	if payload["text"] != "*New order*" {
		t.Fatalf("unexpected text %v", payload["text"])
	}
	if payload["parse_mode"] != "Markdown" {
		t.Fatalf("unexpected parse_mode %v", payload["parse_mode"])
	}
}

func TestSendMessageFailures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantDesc string
	}{
		{name: "not ok", status: http.StatusOK, body: `{"ok":false,"description":"Bad Request: chat not found"}`, wantDesc: "Bad Request: chat not found"},
		{name: "non 2xx", status: http.StatusForbidden, body: `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked"}`, wantDesc: "Forbidden: bot was blocked"},
		{name: "non 2xx html", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, wantDesc: "<html>bad gateway</html>"},
		{name: "malformed body", status: http.StatusOK, body: `not json`},
		{name: "missing ok", status: http.StatusOK, body: `{"result":{"message_id":1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(*http.Request) (*http.Response, error) {
				return jsonResponse(tt.status, tt.body), nil
			})
			_, err := client.SendMessage(context.Background(), 1, "hello")
			if err == nil {
				t.Fatal("expected error")
			}
			if pkgerrors.CodeOf(err) != pkgerrors.CodeDependency {
				t.Fatalf("expected dependency code, got %s", pkgerrors.CodeOf(err))
			}
			if tt.wantDesc != "" {
				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("expected APIError in chain, got %v", err)
				}
				if apiErr.Description != tt.wantDesc {
					t.Fatalf("unexpected description %q", apiErr.Description)
				}
			}
		})
	}
}

func TestSendMessageTransportErrorRedactsToken(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	})
	_, err := client.SendMessage(context.Background(), 1, "hello")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if strings.Contains(errors.Unwrap(err).Error(), "123:abc") {
		t.Fatalf("bot token leaked into error: %v", errors.Unwrap(err))
	}
}

func TestSendMessageValidatesInput(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	if _, err := client.SendMessage(context.Background(), 0, "hi"); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for zero chat id, got %v", err)
	}
	if _, err := client.SendMessage(context.Background(), 1, "  "); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for blank text, got %v", err)
	}
}

func TestNewClientOptions(t *testing.T) {
	if _, err := NewClient(" "); err == nil {
		t.Fatal("expected missing token error")
	}
	client, err := NewClient("t", WithParseMode(enums.ParseModeHTML), WithParseMode("bogus"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.parseMode != enums.ParseModeHTML {
		t.Fatalf("expected HTML parse mode, got %s", client.parseMode)
	}
}

func TestWithTimeoutKeepsConfiguredTransport(t *testing.T) {
	rt := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"ok":true,"result":{"message_id":9}}`), nil
	})
	custom := &http.Client{Transport: rt}

	for name, opts := range map[string][]Option{
		"timeout last":  {WithHTTPClient(custom), WithTimeout(3 * time.Second)},
		"timeout first": {WithTimeout(3 * time.Second), WithHTTPClient(custom)},
	} {
		t.Run(name, func(t *testing.T) {
			client, err := NewClient("t", append([]Option{WithBaseURL("http://tg.test")}, opts...)...)
			if err != nil {
				t.Fatalf("new client: %v", err)
			}
			if client.httpClient.Transport == nil {
				t.Fatalf("custom transport dropped")
			}
			msg, err := client.SendMessage(context.Background(), 1, "hi")
			if err != nil {
				t.Fatalf("send: %v", err)
			}
			if msg.MessageID != 9 {
				t.Fatalf("unexpected message id %d", msg.MessageID)
			}
		})
	}

	client, err := NewClient("t", WithHTTPClient(custom), WithTimeout(3*time.Second))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.httpClient.Timeout != 3*time.Second {
		t.Fatalf("expected timeout on the configured client, got %s", client.httpClient.Timeout)
	}
	if custom.Timeout != 0 {
		t.Fatalf("caller's client must not be mutated")
	}
}
