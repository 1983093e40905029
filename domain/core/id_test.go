package core

import (
	"errors"
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

// TestParseModelID tests model ID parsing
func TestParseModelID(t *testing.T) {
	tests := []struct {
		input    string
		expected ModelID
		hasError bool
	}{
		{"42", ModelID(42), false},
		{" 7 ", ModelID(7), false},
		{"", 0, true},
		{"-1", 0, true},
		{"abc", 0, true},
	}

	for _, test := range tests {
		result, err := ParseModelID(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %d, got %d", test.expected, result)
		}
	}
}

// TestParseModelName rejects names that would escape the models directory
func TestParseModelName(t *testing.T) {
	valid := []string{"logit_2024", "probit-it-direction"}
	for _, name := range valid {
		if _, err := ParseModelName(name); err != nil {
			t.Errorf("Unexpected error for %q: %v", name, err)
		}
	}

	invalid := []string{"", "  ", "..", "a/b", `a\b`, ".staging"}
	for _, name := range invalid {
		if _, err := ParseModelName(name); err == nil {
			t.Errorf("Expected error for %q", name)
		}
	}
}

// TestErrorClassification tests sentinel error helpers
func TestErrorClassification(t *testing.T) {
	if !IsNotFoundError(ErrArtifactNotFound) {
		t.Error("Expected artifact not found to be a not found error")
	}
	if !IsInputError(NewUnknownFeatureError("math_score")) {
		t.Error("Expected unknown feature to be an input error")
	}
	if !errors.Is(NewFeatureMismatchError([]string{"a"}, []string{"b"}), ErrFeatureMismatch) {
		t.Error("Expected feature mismatch to wrap ErrFeatureMismatch")
	}
}
