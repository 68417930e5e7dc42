package server

// UserInputRequest is the body of POST /user-input.
type UserInputRequest struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
}

// UserInputResponse is the reply to a user turn.
type UserInputResponse struct {
	ConversationID    string `json:"conversation_id"`
	Message           string `json:"message"`
	ChatComplete      bool   `json:"chat_complete"`
	AwaitingUserInput bool   `json:"awaiting_user_input"`
}

// WelcomeResponse opens a new conversation.
type WelcomeResponse struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

// HealthResponse reports which backing services are configured.
type HealthResponse struct {
	Status    string          `json:"status"`
	Providers map[string]bool `json:"providers"`
}
