package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Integer keys of the relational layer
type (
	StudentID   int64
	ModelID     int64
	DirectionID int64
)

func (id StudentID) String() string   { return strconv.FormatInt(int64(id), 10) }
func (id ModelID) String() string     { return strconv.FormatInt(int64(id), 10) }
func (id DirectionID) String() string { return strconv.FormatInt(int64(id), 10) }

// ParseModelID parses a string into ModelID
func ParseModelID(s string) (ModelID, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid model ID %q", s)
	}
	return ModelID(v), nil
}

// ParseModelName validates a model name used as an artifact directory
func ParseModelName(s string) (string, error) {
	name := strings.TrimSpace(s)
	if name == "" {
		return "", fmt.Errorf("model name cannot be empty")
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid model name %q", s)
	}
	return name, nil
}
