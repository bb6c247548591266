package server

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loft/finassist/artifact"
	"github.com/loft/finassist/channel"
	"github.com/loft/finassist/core"
	"github.com/loft/finassist/financing"
	"github.com/loft/finassist/flow"
	"github.com/loft/finassist/internal/config"
	"github.com/loft/finassist/internal/whatsapp"
	"github.com/loft/finassist/runner"
)

type echoHandler struct {
	mu    sync.Mutex
	calls []string
}

func (h *echoHandler) Handle(_ context.Context, identity, text string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, identity+"|"+text)
	return "eco: " + text
}

type recordingSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *recordingSender) Send(_ context.Context, to, body string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to+"|"+body)
	return []string{"SM1"}, nil
}

func webhook(form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/receive_whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func twimlMessage(t *testing.T, body []byte) string {
	t.Helper()
	var doc struct {
		XMLName xml.Name `xml:"Response"`
		Message string   `xml:"Message"`
	}
	require.NoError(t, xml.Unmarshal(body, &doc))
	return doc.Message
}

func TestHealth(t *testing.T) {
	now := time.Date(2025, 3, 7, 12, 30, 0, 0, time.UTC)
	s, err := New(&echoHandler{}, func(o *Options) { o.Now = func() time.Time { return now } })
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{
		"status":    "ok",
		"timestamp": "2025-03-07T12:30:00Z",
		"message":   "Service is running",
	}, body)
}

func TestReceiveWhatsApp_TwiML(t *testing.T) {
	h := &echoHandler{}
	s, err := New(h)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, webhook(url.Values{"From": {"whatsapp:+5511912345678"}, "Body": {"  Olá <bot> & cia  "}}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/xml", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "<?xml"))
	assert.Equal(t, "eco: Olá <bot> & cia", twimlMessage(t, rec.Body.Bytes()))
	assert.Equal(t, []string{"whatsapp:+5511912345678|Olá <bot> & cia"}, h.calls)
}

func TestReceiveWhatsApp_MissingFrom(t *testing.T) {
	s, err := New(&echoHandler{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, webhook(url.Values{"Body": {"oi"}}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReceiveWhatsApp_APIMode(t *testing.T) {
	sender := &recordingSender{}
	s, err := New(&echoHandler{}, func(o *Options) {
		o.ReplyMode = config.ReplyModeAPI
		o.Sender = sender
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, webhook(url.Values{"From": {"whatsapp:+5511"}, "Body": {"oi"}}))
	s.Wait()

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, twimlMessage(t, rec.Body.Bytes()))
	assert.NotContains(t, rec.Body.String(), "<Message>")
	assert.Equal(t, []string{"whatsapp:+5511|eco: oi"}, sender.sent)
}

func TestReceiveWhatsApp_RateLimitedPerSender(t *testing.T) {
	s, err := New(&echoHandler{}, func(o *Options) {
		o.InboundPerMinute = 1
		o.InboundBurst = 2
	})
	require.NoError(t, err)

	codes := func(from string) int {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, webhook(url.Values{"From": {from}, "Body": {"oi"}}))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, codes("whatsapp:+1"))
	assert.Equal(t, http.StatusOK, codes("whatsapp:+1"))
	assert.Equal(t, http.StatusTooManyRequests, codes("whatsapp:+1"))
	assert.Equal(t, http.StatusOK, codes("whatsapp:+2"))
}

func TestReceiveWhatsApp_Signature(t *testing.T) {
	s, err := New(&echoHandler{}, func(o *Options) {
		o.ValidateSignature = true
		o.AuthToken = "token"
		o.PublicBaseURL = "https://bot.example.com/"
	})
	require.NoError(t, err)

	form := url.Values{"From": {"whatsapp:+5511"}, "Body": {"oi"}}

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, webhook(form))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req := webhook(form)
	req.Header.Set(whatsapp.SignatureHeader, whatsapp.Signature("token", "https://bot.example.com/receive_whatsapp", form))
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "eco: oi", twimlMessage(t, rec.Body.Bytes()))
}

func TestAssets(t *testing.T) {
	assets := artifact.NewInMemoryStore()
	assets.Save(financing.SimulationAsset, []byte("%PDF-1.4"))

	s, err := New(&echoHandler{}, func(o *Options) { o.Assets = assets })
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/simulacao.pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.4", rec.Body.String())

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/outro.pdf", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, core.ErrConfiguration)

	_, err = New(&echoHandler{}, func(o *Options) { o.ReplyMode = config.ReplyModeAPI })
	assert.ErrorIs(t, err, core.ErrConfiguration)

	_, err = New(&echoHandler{}, func(o *Options) { o.ValidateSignature = true })
	assert.ErrorIs(t, err, core.ErrConfiguration)

	_, err = New(&echoHandler{}, func(o *Options) { o.ReplyMode = "sms" })
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestSenderLimiter_DropsIdleSenders(t *testing.T) {
	now := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	l := newSenderLimiter(60, 1, func() time.Time { return now })

	assert.True(t, l.allow("a"))
	assert.True(t, l.allow("b"))
	assert.Equal(t, 2, l.size())

	now = now.Add(5 * time.Minute)
	assert.True(t, l.allow("c"))
	assert.Equal(t, 1, l.size())
}

func TestEndToEnd_SimulationOverWebhook(t *testing.T) {
	agents, err := financing.NewAgents()
	require.NoError(t, err)
	d, err := flow.NewDispatcher(agents.Triage, financing.NewRuleModel(nil))
	require.NoError(t, err)
	r, err := runner.New(d)
	require.NoError(t, err)

	s, err := New(channel.NewAdapter(r, nil))
	require.NoError(t, err)

	srv := httptest.NewServer(s)
	defer srv.Close()

	post := func(body string) string {
		resp, err := http.PostForm(srv.URL+"/receive_whatsapp", url.Values{"From": {"whatsapp:+5511912345678"}, "Body": {body}})
		require.NoError(t, err)
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return twimlMessage(t, raw)
	}

	assert.Contains(t, post("quero simular um financiamento"), "pessoa física ou jurídica")
	assert.Contains(t, post("pessoa física"), "valor do imóvel")
	assert.Equal(t, channel.ReplyEmptyMessage, post("   "))
}
