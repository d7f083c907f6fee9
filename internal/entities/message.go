package entities

// Channel is a delivery channel for broadcasts.
type Channel string

const (
	ChannelSMS      Channel = "SMS"
	ChannelTelegram Channel = "TELEGRAM"
)

func (c Channel) Valid() bool {
	return c == ChannelSMS || c == ChannelTelegram
}

// OutboundMessage is one message handed to a channel sender.
type OutboundMessage struct {
	AccountID string
	Channel   Channel
	From      string // sender number for SMS, empty for Telegram
	To        string // phone number or Telegram chat id
	Body      string
}
