// Package email delivers outbound account mail. Delivery is fire-and-forget
// from the core's perspective: a failed send is logged by the caller and
// never rolls back the write that triggered it.
package email

import "context"

type MessageType string

const MessageTypeVerification MessageType = "emailVerification"

// Message is the boundary contract with the core: a recipient, a message
// type, and the single-use token embedded in the mail.
type Message struct {
	To    string
	Type  MessageType
	Token string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}
