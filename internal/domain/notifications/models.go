package notifications

import "time"

type Notification struct {
	ID          string         `json:"id"`
	RecipientID string         `json:"recipientId"`
	SenderID    *string        `json:"senderId,omitempty"`
	Type        Type           `json:"type"`
	Title       string         `json:"title"`
	Message     string         `json:"message"`
	Priority    Priority       `json:"priority"`
	Data        map[string]any `json:"data,omitempty"`
	Read        bool           `json:"read"`
	ReadAt      *time.Time     `json:"readAt,omitempty"`
	ExpiresAt   time.Time      `json:"expiresAt"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Recipient selects exactly one of a user, a room or every connection.
type Recipient struct {
	UserID    string
	Room      string
	Broadcast bool
}

func ToUser(userID string) Recipient { return Recipient{UserID: userID} }

func ToRoom(room string) Recipient { return Recipient{Room: room} }

func ToEveryone() Recipient { return Recipient{Broadcast: true} }

func (r Recipient) valid() bool {
	set := 0
	if r.UserID != "" {
		set++
	}
	if r.Room != "" {
		set++
	}
	if r.Broadcast {
		set++
	}
	return set == 1
}

type Event struct {
	To       Recipient
	SenderID string
	Type     Type
	Title    string
	Message  string
	Priority Priority
	Data     map[string]any
}

// Result reports the persisted row (user recipients only) and whether a
// live connection received the push.
type Result struct {
	Notification *Notification
	Delivered    bool
}

// Push is the payload sent to role rooms and broadcasts.
type Push struct {
	Type     Type           `json:"type"`
	Title    string         `json:"title"`
	Message  string         `json:"message"`
	Priority Priority       `json:"priority"`
	SenderID string         `json:"senderId,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	SentAt   time.Time      `json:"sentAt"`
}

type ListFilter struct {
	UnreadOnly bool
	Limit      int
	Offset     int
}
