package gpt

import "encoding/json"

const roleUser = "user"

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model     string        `json:"model"`
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatChoice struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

type apiError struct {
	Message string `json:"message"`
}

// NewChatRequest builds the single-turn request sent for prompt.
func NewChatRequest(model, prompt string, maxTokens int) ChatRequest {
	return ChatRequest{
		Model: model,
		Messages: []ChatMessage{
			{Role: roleUser, Content: prompt},
		},
		MaxTokens: maxTokens,
	}
}

var marshalJSON = json.Marshal
