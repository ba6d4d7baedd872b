package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConversation_AppendPreservesOrder(t *testing.T) {
	conv := NewConversation()
	conv.Append(Message{Role: RoleUser, Content: "first"})
	conv.Append(Message{Role: RoleAssistant, Content: "second"})
	conv.Append(Message{Role: RoleUser, Content: "third"})

	msgs := conv.Messages()
	require.Len(t, msgs, 3)
	require.Equal(t, "first", msgs[0].Content)
	require.Equal(t, "second", msgs[1].Content)
	require.Equal(t, "third", msgs[2].Content)
}

func TestConversation_MessagesReturnsCopy(t *testing.T) {
	conv := NewConversation()
	conv.Append(Message{Role: RoleUser, Content: "original"})

	msgs := conv.Messages()
	msgs[0].Content = "mutated"
	require.Equal(t, "original", conv.Messages()[0].Content)
}

func TestConversation_UnsavedTracking(t *testing.T) {
	conv := Restore([]Message{
		{Role: RoleUser, Content: "persisted question"},
		{Role: RoleAssistant, Content: "persisted answer"},
	}, nil)
	require.Empty(t, conv.Unsaved())

	conv.Append(Message{Role: RoleUser, Content: "new question"})
	conv.Append(Message{Role: RoleAssistant, Content: "new answer"})

	unsaved := conv.Unsaved()
	require.Len(t, unsaved, 2)
	require.Equal(t, "new question", unsaved[0].Content)

	conv.MarkSaved()
	require.Empty(t, conv.Unsaved())
	require.Equal(t, 4, conv.Len())
}

func TestConversation_AttachmentSlot(t *testing.T) {
	conv := NewConversation()
	require.Nil(t, conv.Attachment())

	first := &Attachment{Data: []byte("one"), Preview: "one"}
	conv.SetAttachment(first)
	require.Equal(t, first, conv.Attachment())

	// A new attachment replaces any unconsumed one.
	second := &Attachment{Data: []byte("two"), Preview: "two"}
	conv.SetAttachment(second)
	require.Equal(t, second, conv.Attachment())

	conv.ClearAttachment()
	require.Nil(t, conv.Attachment())
}

func TestConversation_Transcript(t *testing.T) {
	conv := NewConversation()
	require.Equal(t, "", conv.Transcript())

	conv.Append(Message{Role: RoleUser, Content: "hello"})
	conv.Append(Message{Role: RoleAssistant, Content: "hi there"})
	require.Equal(t, "hello\nhi there", conv.Transcript())
}

func TestConversation_LastUserMessage(t *testing.T) {
	conv := NewConversation()
	require.Equal(t, "", conv.LastUserMessage())

	conv.Append(Message{Role: RoleUser, Content: "question one"})
	conv.Append(Message{Role: RoleAssistant, Content: "answer one"})
	conv.Append(Message{Role: RoleUser, Content: "question two"})
	conv.Append(Message{Role: RoleAssistant, Content: "answer two"})
	require.Equal(t, "question two", conv.LastUserMessage())
}

func TestParseRoutingDecision(t *testing.T) {
	cases := []struct {
		in   string
		want RoutingDecision
		ok   bool
	}{
		{"sentiment", RouteSentiment, true},
		{"design", RouteDesign, true},
		{"policy", RoutePolicy, true},
		{" Policy \n", RoutePolicy, true},
		{"SENTIMENT", RouteSentiment, true},
		{"banana", "", false},
		{"", "", false},
		{"policy please", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseRoutingDecision(tc.in)
		require.Equal(t, tc.ok, ok, "input %q", tc.in)
		require.Equal(t, tc.want, got, "input %q", tc.in)
	}
}
