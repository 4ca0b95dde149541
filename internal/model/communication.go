package model

import "time"

// Channel is how a communication happened.
type Channel string

const (
	ChannelEmail   Channel = "email"
	ChannelPhone   Channel = "phone"
	ChannelSMS     Channel = "sms"
	ChannelMeeting Channel = "meeting"
	ChannelOther   Channel = "other"
)

// IsValid checks if the channel is known.
func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelPhone, ChannelSMS, ChannelMeeting, ChannelOther:
		return true
	}
	return false
}

// Direction is inbound or outbound.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// IsValid checks if the direction is known.
func (d Direction) IsValid() bool {
	return d == DirectionInbound || d == DirectionOutbound
}

// CommunicationLog is one contact with a couple.
type CommunicationLog struct {
	ID         string
	UserID     string
	CoupleID   string
	Channel    Channel
	Direction  Direction
	Subject    string
	Body       string
	OccurredAt time.Time
	CreatedAt  time.Time
}
