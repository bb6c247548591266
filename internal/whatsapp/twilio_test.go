package whatsapp

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loft/finassist/core"
)

func TestSender_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "secret", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "whatsapp:+14155238886", r.PostForm.Get("From"))
		assert.Equal(t, "whatsapp:+5511912345678", r.PostForm.Get("To"))
		assert.Equal(t, "Olá!", r.PostForm.Get("Body"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM42","status":"queued"}`))
	}))
	defer srv.Close()

	s, err := NewSender("AC123", "secret", "+14155238886", func(o *Options) {
		o.BaseURL = srv.URL
		o.RatePerSecond = 100
	})
	require.NoError(t, err)

	sids, err := s.Send(context.Background(), "whatsapp:+5511912345678", "Olá!")
	require.NoError(t, err)
	assert.Equal(t, []string{"SM42"}, sids)
}

func TestSender_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"The 'To' number is not a valid phone number.","status":400}`))
	}))
	defer srv.Close()

	s, err := NewSender("AC123", "secret", "+14155238886", func(o *Options) { o.BaseURL = srv.URL })
	require.NoError(t, err)

	_, err = s.Send(context.Background(), "+55", "oi")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrExternalService)
	assert.Contains(t, err.Error(), "21211")
	assert.Contains(t, err.Error(), "not a valid phone number")
}

func TestSender_SplitsLongBodies(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.LessOrEqual(t, len([]rune(r.PostForm.Get("Body"))), MaxBodyRunes)
		n := calls.Add(1)
		_, _ = w.Write([]byte(`{"sid":"SM` + string(rune('0'+n)) + `"}`))
	}))
	defer srv.Close()

	s, err := NewSender("AC123", "secret", "whatsapp:+14155238886", func(o *Options) {
		o.BaseURL = srv.URL
		o.RatePerSecond = 100
		o.Burst = 5
	})
	require.NoError(t, err)

	sids, err := s.Send(context.Background(), "+5511912345678", strings.Repeat("parcela ", 400))
	require.NoError(t, err)
	assert.Len(t, sids, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSender_Validation(t *testing.T) {
	_, err := NewSender("", "secret", "+1")
	assert.ErrorIs(t, err, core.ErrConfiguration)

	_, err = NewSender("AC", "secret", "+1", func(o *Options) { o.RatePerSecond = 0 })
	assert.ErrorIs(t, err, core.ErrConfiguration)

	s, err := NewSender("AC", "secret", "+1")
	require.NoError(t, err)

	_, err = s.Send(context.Background(), "", "oi")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = s.Send(context.Background(), "+55", "  ")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestSender_CancelledWhileWaitingForRate(t *testing.T) {
	s, err := NewSender("AC", "secret", "+1", func(o *Options) { o.RatePerSecond = 0.001 })
	require.NoError(t, err)
	require.True(t, s.limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Send(ctx, "+55", "oi")
	assert.Error(t, err)
}

func TestAddress(t *testing.T) {
	assert.Equal(t, "whatsapp:+5511912345678", Address("+5511912345678"))
	assert.Equal(t, "whatsapp:+5511912345678", Address(" whatsapp:+5511912345678 "))
}

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{"curto"}, Split("curto", 10))
	assert.Equal(t, []string{"aaaa bbbb", "cccc"}, Split("aaaa bbbb cccc", 10))
	assert.Equal(t, []string{"abcdefghij", "klm"}, Split("abcdefghijklm", 10))
}

func TestSignature(t *testing.T) {
	params := url.Values{
		"From": {"whatsapp:+5511912345678"},
		"Body": {"oi"},
	}
	fullURL := "https://bot.example.com/receive_whatsapp"

	mac := hmac.New(sha1.New, []byte("token"))
	mac.Write([]byte(fullURL + "Bodyoi" + "Fromwhatsapp:+5511912345678"))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, Signature("token", fullURL, params))
	assert.True(t, ValidSignature("token", fullURL, params, want))
	assert.False(t, ValidSignature("other", fullURL, params, want))
	assert.False(t, ValidSignature("token", fullURL, params, ""))

	params.Set("Body", "tchau")
	assert.False(t, ValidSignature("token", fullURL, params, want))
}
