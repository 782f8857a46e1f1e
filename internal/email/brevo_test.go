package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/dochub-service/internal/config"
)

func brevoConfig(url string) config.EmailConfig {
	return config.EmailConfig{
		APIURL:      url,
		APIKey:      "test-key",
		SenderEmail: "noreply@example.com",
		SenderName:  "DocHub",
	}
}

func TestBrevoMailerSend(t *testing.T) {
	var received brevoPayload
	var apiKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"messageId": "msg-1"})
	}))
	defer srv.Close()

	mailer := NewBrevoMailer(brevoConfig(srv.URL), zap.NewNop())
	err := mailer.Send(context.Background(), []string{"jane@example.com"}, "Welcome", "<p>hi</p>")
	require.NoError(t, err)

	assert.Equal(t, "test-key", apiKey)
	assert.Equal(t, "noreply@example.com", received.Sender.Email)
	require.Len(t, received.To, 1)
	assert.Equal(t, "jane@example.com", received.To[0].Email)
	assert.Equal(t, "Welcome", received.Subject)
	assert.Equal(t, "<p>hi</p>", received.HTMLContent)
}

func TestBrevoMailerSendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	mailer := NewBrevoMailer(brevoConfig(srv.URL), zap.NewNop())
	err := mailer.Send(context.Background(), []string{"jane@example.com"}, "Welcome", "<p>hi</p>")
	assert.Error(t, err)
}

func TestBrevoMailerSendMissingMessageID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	mailer := NewBrevoMailer(brevoConfig(srv.URL), zap.NewNop())
	err := mailer.Send(context.Background(), []string{"jane@example.com"}, "Welcome", "<p>hi</p>")
	assert.Error(t, err)
}

func TestRenderInvitation(t *testing.T) {
	body, err := RenderInvitation("Jane", "http://localhost:5173/register/tok123")
	require.NoError(t, err)
	assert.Contains(t, body, "Jane")
	assert.Contains(t, body, "http://localhost:5173/register/tok123")
}

func TestRenderPasswordReset(t *testing.T) {
	body, err := RenderPasswordReset("Jane", "http://localhost:5173/reset-password/tok123")
	require.NoError(t, err)
	assert.Contains(t, body, "Jane")
	assert.Contains(t, body, "http://localhost:5173/reset-password/tok123")
}
