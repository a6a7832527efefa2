package chatsvc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/seatech/enthusiasm/core"
)

type fakeCreator struct {
	params []*twilioApi.CreateMessageParams
	err    error
}

func (f *fakeCreator) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = append(f.params, params)
	return &twilioApi.ApiV2010Message{}, f.err
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func TestTwilioService_send(t *testing.T) {
	api := &fakeCreator{}
	svc := &TwilioService{api: api, from: whatsappAddress("+14155238886"), logger: nopLogger{}}

	require.NoError(t, svc.send(core.ChatMessage{To: "+2348031234567", Body: "hello"}))
	require.Len(t, api.params, 1)
	assert.Equal(t, "whatsapp:+14155238886", *api.params[0].From)
	assert.Equal(t, "whatsapp:+2348031234567", *api.params[0].To)
	assert.Equal(t, "hello", *api.params[0].Body)

	// empty messages are skipped
	require.NoError(t, svc.send(core.ChatMessage{To: "", Body: "hello"}))
	assert.Len(t, api.params, 1)

	api.err = errors.New("boom")
	assert.Error(t, svc.send(core.ChatMessage{To: "+2348031234567", Body: "hello"}))
}

func TestConsoleServiceMock(t *testing.T) {
	svc := NewConsoleServiceMock(core.NewTestConfig(t.TempDir()))
	svc.SendMessages(
		&core.ChatMessage{To: "+2348031234567", Body: "hi"},
		&core.ChatMessage{To: "", Body: "dropped"},
	)
	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "+2348031234567", sent[0].To)

	svc.Reset()
	assert.Empty(t, svc.SentMessages())
}

func TestWhatsappAddress(t *testing.T) {
	assert.Equal(t, "whatsapp:+2348031234567", whatsappAddress("+2348031234567"))
	assert.Equal(t, "whatsapp:+2348031234567", whatsappAddress("whatsapp:+2348031234567"))
	assert.Equal(t, "", whatsappAddress(""))
}
