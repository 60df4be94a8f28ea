package mail

import (
	"fmt"
	netmail "net/mail"
)

// Message is header metadata for a single provider message.
type Message struct {
	ID      string
	From    string // raw header, e.g. `Priya Shah <priya@x.com>`
	To      string
	Subject string

	// At is the message date as Unix seconds; 0 when unparseable.
	At int64

	// Snippet is the provider's preview text.
	Snippet string
}

// Participant is a parsed display name and address from an address header.
type Participant struct {
	Name    string
	Address string
}

// ParseParticipant parses one address header value. A bare address
// ("priya@x.com") yields an empty Name.
func ParseParticipant(header string) (Participant, error) {
	addr, err := netmail.ParseAddress(header)
	if err != nil {
		return Participant{}, fmt.Errorf("parse address %q: %w", header, err)
	}
	return Participant{Name: addr.Name, Address: addr.Address}, nil
}

// Wire types

type searchResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type messageResponse struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
	Snippet string `json:"snippet"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError is a structured provider API error.
type APIError struct {
	Operation  string
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: provider returned %d: %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: provider returned %d", e.Operation, e.StatusCode)
}

func newAPIError(operation string, status int, message string) *APIError {
	return &APIError{Operation: operation, StatusCode: status, Message: message}
}
