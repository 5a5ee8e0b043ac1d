package email

import (
	"go.uber.org/zap"

	"schoolerp_backend/internals/configs"
)

// NewSender picks SendGrid when an API key is configured and the console sender otherwise.
func NewSender(cfg configs.Config, log *zap.Logger) Sender {
	if cfg.SendgridAPIKey != "" {
		return NewSendgridSender(log, cfg.SendgridAPIKey, cfg.MailFromName, cfg.MailFromAddress, cfg.MailSubjectPrefix)
	}
	log.Info("[EMAIL] SENDGRID_API_KEY not set, using console sender")
	return NewConsoleSender(log, cfg.MailFromAddress, cfg.MailSubjectPrefix)
}
