package llm

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat message.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest is a provider-neutral completion call. A zero MaxTokens
// leaves the limit to the provider; a zero Model selects its default.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Prompt builds a single-turn request whose only message is the user
// prompt. Both answer generation and query expansion send fully rendered
// templates this way.
func Prompt(model, text string, maxTokens int, temperature float64) CompletionRequest {
	return CompletionRequest{
		Model:       model,
		Messages:    []Message{{Role: RoleUser, Content: text}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}

// CompletionResponse is the complete text of a completion plus the usage
// the provider reported. Token counts are zero when not reported.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}
