// Package chat defines the conversation entities decoded from an agent
// stream: messages, their typed content parts, and protocol events.
package chat

// Item is one decoded element of the conversation sequence. It is exactly
// one of *Message or *Event.
type Item interface {
	item()
}
