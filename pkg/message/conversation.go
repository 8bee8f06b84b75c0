package message

// Conversation is an ordered, append-only sequence of messages built up
// while one query is processed. Order is significant: the snapshot is the
// exact context sent to the model on each call. It is a plain accumulator
// local to one query, not shared across goroutines.
type Conversation struct {
	msgs []*Msg
}

// NewConversation returns an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// Append adds a message to the end of the conversation.
func (c *Conversation) Append(m *Msg) {
	c.msgs = append(c.msgs, m)
}

// Snapshot returns the messages in order. The returned slice is a copy so
// later appends do not mutate context already handed to a model call.
func (c *Conversation) Snapshot() []*Msg {
	out := make([]*Msg, len(c.msgs))
	copy(out, c.msgs)
	return out
}

// Len returns the number of messages appended so far.
func (c *Conversation) Len() int {
	return len(c.msgs)
}
