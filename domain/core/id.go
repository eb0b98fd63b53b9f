package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// SessionID scopes model state to one caller session. Every store operation
// takes an explicit SessionID; there is no process-global default.
type SessionID string

// DefaultSession is used when a caller does not supply a session header.
const DefaultSession SessionID = "default"

func (id SessionID) String() string { return string(id) }

// OrDefault returns the session ID, falling back to DefaultSession when empty.
func (id SessionID) OrDefault() SessionID {
	if strings.TrimSpace(string(id)) == "" {
		return DefaultSession
	}
	return id
}

// ModelID identifies a trained model, e.g. "random_forest_test20_a3f2c1".
type ModelID string

// NewModelID builds a model identifier from the model type, the test split
// fraction, and a random hex suffix.
func NewModelID(modelType string, testSize float64) ModelID {
	pct := int(math.Round(testSize * 100))
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return ModelID(fmt.Sprintf("%s_test%d_%s", modelType, pct, suffix))
}

func (id ModelID) String() string { return string(id) }

// IsEmpty checks if the ID is empty
func (id ModelID) IsEmpty() bool { return strings.TrimSpace(string(id)) == "" }

// ParseModelID parses a string into a ModelID
func ParseModelID(s string) (ModelID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: model ID cannot be empty", ErrInvalidInput)
	}
	return ModelID(s), nil
}

// NewEventID creates a unique identifier for audit events.
func NewEventID() string {
	return uuid.NewString()
}
