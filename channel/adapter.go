// Package channel is the boundary between a messaging transport and the
// runner. It turns every failure into a Portuguese reply so that nothing a
// turn does can take the process down.
package channel

import (
	"context"
	"fmt"
	"strings"

	"github.com/loft/finassist/core"
	"github.com/loft/finassist/logging"
	"github.com/loft/finassist/runner"
)

// User-facing replies.
const (
	ReplyEmptyMessage = "Por favor, envie sua mensagem em texto para que eu possa ajudar."
	ReplyTimeout      = "Desculpe, a resposta está demorando mais do que o esperado. Por favor, tente novamente em instantes."
	ReplyUnavailable  = "Desculpe, estou com dificuldades técnicas no momento. Por favor, tente novamente mais tarde."
	ReplyInvalid      = "Desculpe, não consegui entender sua mensagem. Pode reformulá-la?"
)

// TurnRunner runs one conversational turn.
type TurnRunner interface {
	Run(ctx context.Context, identity, text string) (*runner.Result, error)
}

// Adapter handles inbound messages for any transport.
type Adapter struct {
	runner TurnRunner
	logger logging.Logger
}

// NewAdapter creates an adapter over r. A nil logger discards output.
func NewAdapter(r TurnRunner, logger logging.Logger) *Adapter {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Adapter{runner: r, logger: logger}
}

// Handle runs a turn for identity and always returns a reply.
func (a *Adapter) Handle(ctx context.Context, identity, text string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("channel.panic", "identity", identity, "recover", fmt.Sprint(r))
			reply = ReplyUnavailable
		}
	}()

	text = strings.TrimSpace(text)
	if text == "" {
		return ReplyEmptyMessage
	}

	a.logger.Info("channel.message.received", "identity", identity, "length", len(text))

	res, err := a.runner.Run(ctx, identity, text)
	if err != nil {
		kind := core.KindOf(err)
		a.logger.Error("channel.turn.failed", "identity", identity, "kind", string(kind), "error", err.Error())
		return ReplyFor(kind)
	}

	a.logger.Info("channel.message.replied", "identity", identity, "agent", res.LastActiveAgent, "run_id", res.RunID)

	return res.Reply
}

// ReplyFor picks the apology shown for an error kind.
func ReplyFor(kind core.Kind) string {
	switch kind {
	case core.KindTimeout:
		return ReplyTimeout
	case core.KindInvalidArgument:
		return ReplyInvalid
	default:
		return ReplyUnavailable
	}
}
