package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubConfirmer struct {
	calls []string
	err   error
}

func (s *stubConfirmer) ConfirmPayment(ctx context.Context, providerPaymentID string) error {
	s.calls = append(s.calls, providerPaymentID)
	return s.err
}

func newWebhookRouter(confirmer *stubConfirmer, secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewWebhookHandler(confirmer, secret).RegisterRoutes(r)
	return r
}

func postWebhook(r *gin.Engine, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/payment-webhook", bytes.NewBufferString(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookHandle(t *testing.T) {
	t.Run("payment notification triggers reconciliation", func(t *testing.T) {
		confirmer := &stubConfirmer{}
		r := newWebhookRouter(confirmer, "")

		w := postWebhook(r, `{"type":"payment","data":{"id":12345}}`, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"12345"}, confirmer.calls)
	})

	t.Run("reconciliation failure still returns 200", func(t *testing.T) {
		confirmer := &stubConfirmer{err: errors.New("db down")}
		r := newWebhookRouter(confirmer, "")

		w := postWebhook(r, `{"type":"payment","data":{"id":12345}}`, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("non payment notification is ignored", func(t *testing.T) {
		confirmer := &stubConfirmer{}
		r := newWebhookRouter(confirmer, "")

		w := postWebhook(r, `{"type":"plan","data":{"id":7}}`, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, confirmer.calls)
	})

	t.Run("malformed body is ignored with 200", func(t *testing.T) {
		confirmer := &stubConfirmer{}
		r := newWebhookRouter(confirmer, "")

		w := postWebhook(r, `{not json`, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, confirmer.calls)
	})
}

func TestWebhookSignature(t *testing.T) {
	const secret = "super-secret"
	body := `{"type":"payment","data":{"id":555}}`

	sign := func(ts, payload string) string {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write([]byte(ts))
		mac.Write([]byte("."))
		mac.Write([]byte(payload))
		return hex.EncodeToString(mac.Sum(nil))
	}

	t.Run("valid signature is accepted", func(t *testing.T) {
		confirmer := &stubConfirmer{}
		r := newWebhookRouter(confirmer, secret)

		header := "ts=1725000000,v1=" + sign("1725000000", body)
		w := postWebhook(r, body, map[string]string{"x-signature": header})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"555"}, confirmer.calls)
	})

	t.Run("invalid signature is dropped with 200", func(t *testing.T) {
		confirmer := &stubConfirmer{}
		r := newWebhookRouter(confirmer, secret)

		header := "ts=1725000000,v1=deadbeef"
		w := postWebhook(r, body, map[string]string{"x-signature": header})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, confirmer.calls)
	})

	t.Run("missing signature header is dropped with 200", func(t *testing.T) {
		confirmer := &stubConfirmer{}
		r := newWebhookRouter(confirmer, secret)

		w := postWebhook(r, body, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, confirmer.calls)
	})

	t.Run("empty secret disables verification", func(t *testing.T) {
		confirmer := &stubConfirmer{}
		r := newWebhookRouter(confirmer, "")

		w := postWebhook(r, body, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"555"}, confirmer.calls)
	})
}
