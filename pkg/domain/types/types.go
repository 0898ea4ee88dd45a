package types

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

// ProjectID identifies a catalog project. It doubles as the key of the
// project's embedding in the durable store, so the charset is restricted
// to what the store accepts as a raw key.
type ProjectID string

var projectIDPattern = regexp.MustCompile(`^[a-zA-Z0-9-_:]+$`)

func (x ProjectID) String() string {
	return string(x)
}

func (x ProjectID) Validate() error {
	if x == "" {
		return goerr.New("project ID is required")
	}
	if !projectIDPattern.MatchString(string(x)) {
		return goerr.New("invalid project ID", goerr.V("id", string(x)))
	}
	return nil
}

// ClientKey identifies a rate-limited client, normally its IP address.
type ClientKey string

func (x ClientKey) String() string {
	return string(x)
}

// ChatRole is the author of a conversation turn.
type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleModel ChatRole = "model"
)

func (x ChatRole) Validate() error {
	switch x {
	case RoleUser, RoleModel:
		return nil
	default:
		return goerr.New("invalid chat role", goerr.V("role", string(x)))
	}
}

// ToolName identifies a capability the model may invoke.
type ToolName string

const (
	ToolProjectSearch      ToolName = "projectSearch"
	ToolDisplayContactForm ToolName = "displayContactForm"
)

func (x ToolName) String() string {
	return string(x)
}
