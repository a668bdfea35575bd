package chat

const (
	ChatRoleUser   = "user"
	ChatRoleAgent  = "assistant" // Narrator voice
	ChatRoleSystem = "system"
)

// ChatMessage represents a single message sent to a text-generation
// provider. The role/content shape is shared by the Anthropic and OpenAI
// chat APIs.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// System is shorthand for a system-role message.
func System(content string) ChatMessage {
	return ChatMessage{Role: ChatRoleSystem, Content: content}
}

// User is shorthand for a user-role message.
func User(content string) ChatMessage {
	return ChatMessage{Role: ChatRoleUser, Content: content}
}
