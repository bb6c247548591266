// Package whatsapp talks to the Twilio WhatsApp API: it sends outbound
// messages and verifies that inbound webhooks were signed by Twilio.
package whatsapp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/loft/finassist/core"
	"github.com/loft/finassist/logging"
)

const (
	// DefaultBaseURL is the Twilio REST API root.
	DefaultBaseURL = "https://api.twilio.com"
	// MaxBodyRunes is the longest body Twilio accepts in one message.
	MaxBodyRunes = 1600

	addressPrefix = "whatsapp:"
)

// Options holds overrides for NewSender.
type Options struct {
	BaseURL       string
	Client        *http.Client
	RatePerSecond float64
	Burst         int
	Logger        logging.Logger
}

// Sender delivers WhatsApp messages through the Twilio Messages API. Sends
// are paced by a shared limiter, so concurrent callers queue instead of
// tripping Twilio's rate limits.
type Sender struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	client     *http.Client
	limiter    *rate.Limiter
	logger     logging.Logger
}

// NewSender creates a sender for the Twilio account. from is the WhatsApp
// number messages are sent from, with or without the whatsapp: prefix.
func NewSender(accountSID, authToken, from string, optFns ...func(o *Options)) (*Sender, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, core.ConfigErrorf("whatsapp.NewSender", "account SID, auth token and sender number are required")
	}

	opts := Options{
		BaseURL:       DefaultBaseURL,
		Client:        http.DefaultClient,
		RatePerSecond: 1,
		Burst:         1,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.RatePerSecond <= 0 {
		return nil, core.ConfigErrorf("whatsapp.NewSender", "send rate must be positive, got %g", opts.RatePerSecond)
	}
	if opts.Burst < 1 {
		opts.Burst = 1
	}

	return &Sender{
		accountSID: accountSID,
		authToken:  authToken,
		from:       Address(from),
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		client:     opts.Client,
		limiter:    rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst),
		logger:     opts.Logger,
	}, nil
}

// Address returns number in Twilio's WhatsApp address form.
func Address(number string) string {
	number = strings.TrimSpace(number)
	if strings.HasPrefix(number, addressPrefix) {
		return number
	}
	return addressPrefix + number
}

// Send delivers body to the recipient, splitting it when it exceeds
// MaxBodyRunes. It returns the message SIDs Twilio assigned.
func (s *Sender) Send(ctx context.Context, to, body string) ([]string, error) {
	if strings.TrimSpace(to) == "" {
		return nil, core.NewError("whatsapp.Send", core.ErrInvalidArgument, "recipient is required")
	}
	if strings.TrimSpace(body) == "" {
		return nil, core.NewError("whatsapp.Send", core.ErrInvalidArgument, "message body is empty")
	}

	var sids []string
	for _, chunk := range Split(body, MaxBodyRunes) {
		sid, err := s.send(ctx, Address(to), chunk)
		if err != nil {
			return sids, err
		}
		sids = append(sids, sid)
	}

	return sids, nil
}

func (s *Sender) send(ctx context.Context, to, body string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("whatsapp send: %w", err)
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, url.PathEscape(s.accountSID))
	form := url.Values{
		"From": {s.from},
		"To":   {to},
		"Body": {body},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: twilio request: %w", core.ErrExternalService, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read twilio response: %w", core.ErrExternalService, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		msg := gjson.GetBytes(raw, "message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		s.logger.Error("whatsapp.send.failed", "to", to, "status", resp.StatusCode, "code", gjson.GetBytes(raw, "code").Int(), "error", msg)
		return "", fmt.Errorf("%w: twilio error %d (code %d): %s", core.ErrExternalService, resp.StatusCode, gjson.GetBytes(raw, "code").Int(), msg)
	}

	sid := gjson.GetBytes(raw, "sid").String()
	s.logger.Info("whatsapp.send.accepted", "to", to, "sid", sid, "status", gjson.GetBytes(raw, "status").String())

	return sid, nil
}

// Split breaks text into chunks of at most limit runes, preferring to cut at
// line breaks or spaces.
func Split(text string, limit int) []string {
	if limit < 1 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i] == '\n' || runes[i] == ' ' {
				cut = i
				break
			}
		}
		chunks = append(chunks, strings.TrimSpace(string(runes[:cut])))
		runes = []rune(strings.TrimLeft(string(runes[cut:]), " \n"))
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}

	return chunks
}
