package emailsvc

import "github.com/seatech/enthusiasm/core"

// NewService picks the email backend: console in debug, SendGrid when an API key is set, SMTP otherwise.
func NewService(conf *core.Config, logger core.Logger) core.EmailService {
	switch {
	case conf.Debug:
		return NewConsoleService(conf, logger)
	case conf.SendgridApiKey != "":
		return NewSendgridService(conf, logger)
	default:
		return NewSMTPService(conf, logger)
	}
}
