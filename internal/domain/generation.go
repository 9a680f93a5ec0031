package domain

// Role of a chat message.
type Role string

// RoleUser marks a user turn. System prompts travel in GenerationRequest.System.
const RoleUser Role = "user"

// Message is a single chat turn sent to a text-generation model.
type Message struct {
	Role    Role
	Content string
}

// GenerationRequest is one text-generation call.
type GenerationRequest struct {
	System    string
	Messages  []Message
	MaxTokens int
}

// GenerationResult carries the generated text and token usage.
type GenerationResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}
