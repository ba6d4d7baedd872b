package domain

import "strings"

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn. Immutable once appended.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Attachment is a pending binary document plus its derived text preview.
// At most one attachment is tracked per conversation at a time.
type Attachment struct {
	Data    []byte
	Preview string
}

// Conversation is the per-thread chat transcript plus the transient
// attachment slot. Messages are append-only; they are never reordered or
// deleted. The attachment survives at most one routing cycle unless that
// cycle routed to the design handler.
type Conversation struct {
	messages   []Message
	attachment *Attachment
	lastRoute  RoutingDecision

	// persisted counts the leading messages already written to the store.
	// Maintained through Restore/MarkSaved; Unsaved returns the rest.
	persisted int
}

// NewConversation creates an empty conversation for a previously unseen
// thread.
func NewConversation() *Conversation {
	return &Conversation{}
}

// Restore rebuilds a conversation from persisted state. The given messages
// are marked as already saved.
func Restore(messages []Message, att *Attachment) *Conversation {
	c := &Conversation{
		messages:   append([]Message(nil), messages...),
		attachment: att,
	}
	c.persisted = len(c.messages)
	return c
}

// Append adds a message to the end of the transcript. This is the only way
// the transcript grows; existing messages are never touched.
func (c *Conversation) Append(m Message) {
	c.messages = append(c.messages, m)
}

// Len returns the number of messages in the transcript.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Messages returns a copy of the full transcript in insertion order.
func (c *Conversation) Messages() []Message {
	return append([]Message(nil), c.messages...)
}

// Unsaved returns the messages appended since the conversation was last
// persisted, in insertion order.
func (c *Conversation) Unsaved() []Message {
	return append([]Message(nil), c.messages[c.persisted:]...)
}

// MarkSaved records that the whole transcript has been persisted.
func (c *Conversation) MarkSaved() {
	c.persisted = len(c.messages)
}

// SetAttachment stages a new pending attachment, replacing any unconsumed
// one from a prior cycle.
func (c *Conversation) SetAttachment(a *Attachment) {
	c.attachment = a
}

// ClearAttachment drops the pending attachment, if any.
func (c *Conversation) ClearAttachment() {
	c.attachment = nil
}

// Attachment returns the pending attachment, or nil.
func (c *Conversation) Attachment() *Attachment {
	return c.attachment
}

// SetLastRoute records the most recent classification outcome.
func (c *Conversation) SetLastRoute(r RoutingDecision) {
	c.lastRoute = r
}

// LastRoute returns the most recent classification outcome, or the empty
// decision if the conversation has never been classified.
func (c *Conversation) LastRoute() RoutingDecision {
	return c.lastRoute
}

// Transcript renders the full history in chronological order, one message
// per line. Used as classification context.
func (c *Conversation) Transcript() string {
	var sb strings.Builder
	for i, m := range c.messages {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(m.Content)
	}
	return sb.String()
}

// LastUserMessage returns the content of the most recent user-authored
// message, or "" when there is none.
func (c *Conversation) LastUserMessage() string {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == RoleUser {
			return c.messages[i].Content
		}
	}
	return ""
}
