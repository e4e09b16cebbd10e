package handler

// MessageResponse represents a simple message payload
type MessageResponse struct {
	Message string `json:"message"`
}
