package email

import (
	"net/http"
	"net/mail"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"schoolerp_backend/internals/observability"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type SendgridSender struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	log        *zap.Logger
}

var _ Sender = (*SendgridSender)(nil)

func NewSendgridSender(log *zap.Logger, key, fromName, fromAddr, subjPrefix string) *SendgridSender {
	return &SendgridSender{
		key:        key,
		from:       sgmail.NewEmail(fromName, fromAddr),
		subjPrefix: subjPrefix,
		log:        log.Named("email"),
	}
}

func (s *SendgridSender) SendMessages(msgs ...*Message) {
	for _, msg := range msgs {
		msg := msg
		go func() {
			if err := msg.Render(); err != nil {
				observability.EmailsSent.WithLabelValues("failed").Inc()
				s.log.Error("[EMAIL] render failed", zap.String("template", msg.TemplateName), zap.Error(err))
				return
			}
			if msg.HasRecipients() && msg.HasContent() {
				s.send(msg)
			}
		}()
	}
}

func (s *SendgridSender) prepare(msg *Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + msg.Subject
	for _, a := range msg.To {
		p.AddTos(sgEmail(a))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	return m
}

func sgEmail(a mail.Address) *sgmail.Email { return sgmail.NewEmail(a.Name, a.Address) }

func (s *SendgridSender) send(msg *Message) {
	req := sendgrid.GetRequest(s.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(msg))

	res, err := sendgrid.API(req)
	switch {
	case err != nil:
		observability.EmailsSent.WithLabelValues("failed").Inc()
		s.log.Error("[EMAIL] sendgrid request failed", zap.String("subject", msg.Subject), zap.Error(err))
	case res.StatusCode >= http.StatusBadRequest:
		observability.EmailsSent.WithLabelValues("failed").Inc()
		s.log.Error("[EMAIL] sendgrid rejected message",
			zap.Int("status", res.StatusCode), zap.String("body", res.Body), zap.String("subject", msg.Subject))
	default:
		observability.EmailsSent.WithLabelValues("sent").Inc()
	}
}
