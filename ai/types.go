package ai

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleSystem carries instructions and retrieved context.
	RoleSystem Role = "system"
	// RoleHuman is the user.
	RoleHuman Role = "human"
	// RoleAI is the assistant.
	RoleAI Role = "ai"
)

// Message is one entry of a conversation transcript.
type Message struct {
	Role    Role
	Content string
}
