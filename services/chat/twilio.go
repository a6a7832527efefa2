package chatsvc

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/seatech/enthusiasm/core"
	"github.com/seatech/enthusiasm/services/metrics"
)

const whatsappPrefix = "whatsapp:"

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioService delivers chat messages over WhatsApp through the Twilio API.
type TwilioService struct {
	api    messageCreator
	from   string
	logger core.Logger
}

var _ core.ChatService = (*TwilioService)(nil)

func NewTwilioService(conf *core.Config, logger core.Logger) *TwilioService {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: conf.Twilio.AccountSID,
		Password: conf.Twilio.AuthToken,
	})
	return &TwilioService{
		api:    client.Api,
		from:   whatsappAddress(conf.Twilio.FromNumber),
		logger: logger,
	}
}

func (svc *TwilioService) SendMessages(messages ...*core.ChatMessage) {
	for _, msg := range messages {
		msg := msg
		go func() { _ = svc.send(*msg) }()
	}
}

func (svc *TwilioService) send(msg core.ChatMessage) error {
	if msg.To == "" || msg.Body == "" {
		return nil
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(svc.from)
	params.SetTo(whatsappAddress(msg.To))
	params.SetBody(msg.Body)

	_, err := svc.api.CreateMessage(params)
	if err != nil {
		err = errors.Wrap(err, "sending whatsapp message")
		svc.logger.Error(err.Error(), err)
	}
	metrics.Notification("chat", "twilio", err)
	return err
}

func whatsappAddress(phone string) string {
	if phone == "" || strings.HasPrefix(phone, whatsappPrefix) {
		return phone
	}
	return whatsappPrefix + phone
}
