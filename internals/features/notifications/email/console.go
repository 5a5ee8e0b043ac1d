package email

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"schoolerp_backend/internals/observability"
)

// ConsoleSender logs messages instead of delivering them.
type ConsoleSender struct {
	log        *zap.Logger
	from       string
	subjPrefix string
	sync       bool

	mu   sync.Mutex
	sent []Message
}

var _ Sender = (*ConsoleSender)(nil)

func NewConsoleSender(log *zap.Logger, from, subjPrefix string) *ConsoleSender {
	if log == nil {
		log = zap.NewNop()
	}
	return &ConsoleSender{log: log.Named("email"), from: from, subjPrefix: subjPrefix}
}

// NewRecordingSender renders synchronously and keeps every message for assertions.
func NewRecordingSender() *ConsoleSender {
	return &ConsoleSender{log: zap.NewNop(), from: "test@localhost", sync: true}
}

func (s *ConsoleSender) SendMessages(msgs ...*Message) {
	for _, msg := range msgs {
		if s.sync {
			s.send(msg)
			continue
		}
		go s.send(msg)
	}
}

func (s *ConsoleSender) send(msg *Message) {
	if err := msg.Render(); err != nil {
		observability.EmailsSent.WithLabelValues("failed").Inc()
		s.log.Error("[EMAIL] render failed", zap.String("template", msg.TemplateName), zap.Error(err))
		return
	}
	if !msg.HasRecipients() || !msg.HasContent() {
		return
	}
	addrs := make([]string, 0, len(msg.To))
	for _, a := range msg.To {
		addrs = append(addrs, a.String())
	}
	s.log.Info("[EMAIL] console delivery",
		zap.String("from", s.from),
		zap.String("to", strings.Join(addrs, ", ")),
		zap.String("subject", s.subjPrefix+msg.Subject),
		zap.String("body", msg.TextContent),
	)
	observability.EmailsSent.WithLabelValues("sent").Inc()

	s.mu.Lock()
	s.sent = append(s.sent, *msg)
	s.mu.Unlock()
}

// Sent returns a copy of the delivered messages.
func (s *ConsoleSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}

// Last returns the most recent message to addr.
func (s *ConsoleSender) Last(addr string) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.sent) - 1; i >= 0; i-- {
		for _, a := range s.sent[i].To {
			if strings.EqualFold(a.Address, addr) {
				return s.sent[i], true
			}
		}
	}
	return Message{}, false
}
