package models

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one turn of a conversation sent to the model.
// Roles taken from client history are kept verbatim.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
