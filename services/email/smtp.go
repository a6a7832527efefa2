package emailsvc

import (
	"net/mail"

	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"

	"github.com/seatech/enthusiasm/core"
	"github.com/seatech/enthusiasm/services/metrics"
)

// SMTPService sends emails through an SMTP relay (eg. Gmail with an app password).
type SMTPService struct {
	dialer          *gomail.Dialer
	appName         string
	frontendBaseURL string
	from            string
	subjPrefix      string
	logger          core.Logger
}

var _ core.EmailService = (*SMTPService)(nil)

func NewSMTPService(conf *core.Config, logger core.Logger) *SMTPService {
	return &SMTPService{
		dialer:          gomail.NewDialer(conf.SMTP.Host, conf.SMTP.Port, conf.SMTP.Username, conf.SMTP.Password),
		appName:         conf.AppName,
		frontendBaseURL: conf.FrontendBaseURL,
		from:            conf.DefaultFromEmail.String(),
		subjPrefix:      "[" + conf.AppName + "] ",
		logger:          logger,
	}
}

func (svc *SMTPService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		go func() {
			if err := msg.Render(svc.appName, svc.frontendBaseURL); err != nil {
				err = errors.Wrap(err, "rendering email")
				svc.logger.Error(err.Error(), err)
				metrics.Notification("email", "smtp", err)
				return
			}
			if msg.HasRecipients() && msg.HasContent() {
				err := svc.dialer.DialAndSend(svc.prepare(*msg))
				if err != nil {
					err = errors.Wrap(err, "sending email")
					svc.logger.Error(err.Error(), err)
				}
				metrics.Notification("email", "smtp", err)
			}
		}()
	}
}

func (svc *SMTPService) prepare(msg core.EmailMessage) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", svc.from)
	m.SetHeader("To", formatAddresses(m, msg.To)...)
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", formatAddresses(m, msg.Cc)...)
	}
	if len(msg.Bcc) > 0 {
		m.SetHeader("Bcc", formatAddresses(m, msg.Bcc)...)
	}
	m.SetHeader("Subject", svc.subjPrefix+msg.Subject)

	m.SetBody("text/plain", msg.TextContent)
	if msg.HTMLContent != "" {
		m.AddAlternative("text/html", msg.HTMLContent)
	}
	return m
}

func formatAddresses(m *gomail.Message, addrs []mail.Address) []string {
	formatted := make([]string, 0, len(addrs))
	for _, a := range addrs {
		formatted = append(formatted, m.FormatAddress(a.Address, a.Name))
	}
	return formatted
}
