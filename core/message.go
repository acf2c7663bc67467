package core

// Message roles used in rolling conversation history and completion requests.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role/content pair of conversational history. Rolling session
// history stores user/assistant pairs; completion requests may prepend a
// system message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserMessage constructs a user-authored message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage constructs an assistant-authored message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
