package domain

import "time"

// Message is one chat line. Timestamp is the client-supplied RFC3339 value,
// parsed at the socket boundary; a message never changes after it is stored.
type Message struct {
	Username  string
	Content   string
	Timestamp time.Time
}
