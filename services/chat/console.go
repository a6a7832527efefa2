package chatsvc

import (
	"log"
	"sync"

	"github.com/seatech/enthusiasm/core"
	"github.com/seatech/enthusiasm/services/metrics"
)

type ConsoleService struct {
	from          string
	disableOutput bool
}

var _ core.ChatService = (*ConsoleService)(nil)

func NewConsoleService(conf *core.Config) *ConsoleService {
	return &ConsoleService{from: conf.Twilio.FromNumber}
}

func (svc *ConsoleService) SendMessages(messages ...*core.ChatMessage) {
	for _, msg := range messages {
		go svc.sendMessage(msg)
	}
}

func (svc *ConsoleService) sendMessage(msg *core.ChatMessage) bool {
	if msg.To == "" || msg.Body == "" {
		return false
	}
	if !svc.disableOutput {
		log.Printf("WhatsApp message\r\nFrom: %s\r\nTo: %s\r\n\r\n%s\r\n", svc.from, msg.To, msg.Body)
	}
	metrics.Notification("chat", "console", nil)
	return true
}

// ConsoleServiceMock sends synchronously, without output, and records the sent messages.
type ConsoleServiceMock struct {
	ConsoleService
	mu   sync.Mutex
	sent []core.ChatMessage
}

func NewConsoleServiceMock(conf *core.Config) *ConsoleServiceMock {
	return &ConsoleServiceMock{
		ConsoleService: ConsoleService{from: conf.Twilio.FromNumber, disableOutput: true},
	}
}

func (svc *ConsoleServiceMock) SendMessages(messages ...*core.ChatMessage) {
	for _, msg := range messages {
		// run synchronously
		if svc.sendMessage(msg) {
			svc.mu.Lock()
			svc.sent = append(svc.sent, *msg)
			svc.mu.Unlock()
		}
	}
}

func (svc *ConsoleServiceMock) SentMessages() []core.ChatMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]core.ChatMessage(nil), svc.sent...)
}

func (svc *ConsoleServiceMock) Reset() {
	svc.mu.Lock()
	svc.sent = nil
	svc.mu.Unlock()
}
