package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatech/enthusiasm/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	conf := core.NewTestConfig(t.TempDir())
	svc := NewConsoleServiceMock(conf, nopLogger{})

	svc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: "Alice", Address: "alice@example.com"}},
			Subject:      "Password Reset",
			TemplateName: "password_reset",
			TemplateData: map[string]interface{}{
				"FullName":  "Alice",
				"ResetURL":  "http://localhost:3000/reset-password/abc",
				"ExpiresIn": "1h0m0s",
			},
		},
		&core.EmailMessage{Subject: "no recipients", BodyStr: "dropped"},
		&core.EmailMessage{To: []mail.Address{{Address: "bob@example.com"}}, Subject: "plain", BodyStr: "hello bob"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0].TextContent, "Hi Alice")
	assert.Contains(t, sent[0].TextContent, "http://localhost:3000/reset-password/abc")
	assert.Contains(t, sent[0].HTMLContent, `href="http://localhost:3000/reset-password/abc"`)
	assert.Equal(t, "hello bob", sent[1].TextContent)
	assert.Empty(t, sent[1].HTMLContent)

	svc.Reset()
	assert.Empty(t, svc.SentMessages())
}

type errLogger struct {
	nopLogger
	errs []string
}

func (l *errLogger) Error(msg string, _ ...interface{}) { l.errs = append(l.errs, msg) }

func TestConsoleServiceMock_SendMessages_noContent(t *testing.T) {
	conf := core.NewTestConfig(t.TempDir())
	logger := &errLogger{}
	svc := NewConsoleServiceMock(conf, logger)

	to := []mail.Address{{Address: "alice@example.com"}}
	svc.SendMessages(
		&core.EmailMessage{To: to, Subject: "unknown", TemplateName: "no_such_template"},
		&core.EmailMessage{To: to, Subject: "empty"},
	)

	assert.Empty(t, svc.SentMessages())
	require.Len(t, logger.errs, 2)
	assert.Contains(t, logger.errs[0], `template "no_such_template"`)
	assert.Contains(t, logger.errs[0], core.ErrEmptyEmail.Error())
	assert.Contains(t, logger.errs[1], core.ErrEmptyEmail.Error())
}

func TestSMTPService_prepare(t *testing.T) {
	conf := core.NewTestConfig(t.TempDir())
	svc := NewSMTPService(conf, nopLogger{})

	m := svc.prepare(core.EmailMessage{
		To:          []mail.Address{{Name: "Alice", Address: "alice@example.com"}},
		Bcc:         []mail.Address{{Address: "staff@example.com"}},
		Subject:     "Welcome",
		TextContent: "hi",
		HTMLContent: "<p>hi</p>",
	})
	assert.Equal(t, []string{conf.DefaultFromEmail.String()}, m.GetHeader("From"))
	assert.Equal(t, []string{`"Alice" <alice@example.com>`}, m.GetHeader("To"))
	assert.Equal(t, []string{"staff@example.com"}, m.GetHeader("Bcc"))
	assert.Empty(t, m.GetHeader("Cc"))
	assert.Equal(t, []string{"[" + conf.AppName + "] Welcome"}, m.GetHeader("Subject"))
}

func TestSendgridService_prepare(t *testing.T) {
	conf := core.NewTestConfig(t.TempDir())
	svc := NewSendgridService(conf, nopLogger{})

	m := svc.prepare(core.EmailMessage{
		To:          []mail.Address{{Name: "Alice", Address: "alice@example.com"}},
		Subject:     "Welcome",
		TextContent: "hi",
	})
	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "["+conf.AppName+"] Welcome", m.Personalizations[0].Subject)
	require.Len(t, m.Personalizations[0].To, 1)
	assert.Equal(t, "alice@example.com", m.Personalizations[0].To[0].Address)
	assert.Equal(t, conf.DefaultFromEmail.Address, m.From.Address)
	require.Len(t, m.Content, 1)
	assert.Equal(t, "text/plain", m.Content[0].Type)
}

func TestNewService(t *testing.T) {
	conf := core.NewTestConfig(t.TempDir())

	conf.Debug = true
	assert.IsType(t, &ConsoleService{}, NewService(conf, nopLogger{}))

	conf.Debug = false
	conf.SendgridApiKey = "key"
	assert.IsType(t, &SendgridService{}, NewService(conf, nopLogger{}))

	conf.SendgridApiKey = ""
	assert.IsType(t, &SMTPService{}, NewService(conf, nopLogger{}))
}
