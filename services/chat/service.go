package chatsvc

import "github.com/seatech/enthusiasm/core"

// NewService returns the Twilio service when credentials are configured, the console one otherwise.
func NewService(conf *core.Config, logger core.Logger) core.ChatService {
	if conf.Debug || conf.Twilio.AccountSID == "" || conf.Twilio.AuthToken == "" {
		return NewConsoleService(conf)
	}
	return NewTwilioService(conf, logger)
}
