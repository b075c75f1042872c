// Package api defines the HTTP wire types shared by handlers and
// clients.
package api

// AnswerRequest is the body of POST /api/answer and /api/answer/stream.
//
// History is a JSON-encoded array carried as a string; each element must
// have a "prompt" field and may have a "response" field. Chunks is a
// stringly-typed integer: empty selects the server default, "0" disables
// retrieval for this request.
type AnswerRequest struct {
	Question       string `json:"question"`
	History        string `json:"history,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	Chunks         string `json:"chunks,omitempty"`
	TokenLimit     int    `json:"token_limit,omitempty"`
}

// Source is one retrieved passage returned alongside an answer.
type Source struct {
	Title  string `json:"title,omitempty"`
	Text   string `json:"text"`
	Source string `json:"source"`
}

// AnswerResponse is the blocking answer payload.
type AnswerResponse struct {
	Answer         string   `json:"answer"`
	Sources        []Source `json:"sources"`
	ConversationID string   `json:"conversation_id,omitempty"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-readable code and human-readable
// message of a failed request.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
