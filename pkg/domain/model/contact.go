package model

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

const (
	maxContactNameLength    = 100
	maxContactEmailLength   = 255
	maxContactMessageLength = 1000
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ContactMessage is the body of POST /contact.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// ContactResult is the body of the /contact response.
type ContactResult struct {
	Status string `json:"status"`
	Info   string `json:"info,omitempty"`
}

const (
	ContactStatusSent   = "sent"
	ContactStatusFailed = "failed"
)

func (m *ContactMessage) Validate() error {
	if m.Name == "" || len(m.Name) > maxContactNameLength {
		return goerr.New("name must be between 1 and 100 characters")
	}
	if len(m.Email) > maxContactEmailLength || !emailPattern.MatchString(m.Email) {
		return goerr.New("invalid email address")
	}
	if m.Message == "" || len(m.Message) > maxContactMessageLength {
		return goerr.New("message must be between 1 and 1000 characters")
	}
	return nil
}
