package mailer

import (
	"time"
)

// Message is the header summary of a single unread message.
type Message struct {
	// Date is normalized to UTC. Zero value means the message
	// had no parseable Date header.
	Date    time.Time
	Mailbox string
	Subject string
	Sender  string
	UID     uint32
}

// Summary is the outcome of a single successful run.
type Summary struct {
	Count  int
	Latest []Message
}
