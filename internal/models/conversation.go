// Package models defines the conversation, resolution and sheet record types.
package models

import "time"

// Role identifies the speaker of a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single utterance within a conversation transcript.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Channel identifies where a conversation took place.
type Channel string

const (
	ChannelVoice Channel = "voice"
	ChannelChat  Channel = "chat"
)

// Conversation is a finished conversation as reported by the voice/chat platform.
type Conversation struct {
	ID             string
	Channel        Channel
	StartedAt      time.Time
	EndedAt        time.Time
	Transcript     []Turn
	ConfirmedVisit *Visit
}

// Duration returns the conversation length in whole seconds.
func (c Conversation) Duration() int {
	return int(c.EndedAt.Sub(c.StartedAt).Seconds())
}

// Visit is a visit the assistant agreed on with the customer.
type Visit struct {
	Name      string `json:"name"`
	Purpose   string `json:"purpose"`
	VisitDate string `json:"visit_date"`
	VisitTime string `json:"visit_time"`
}
