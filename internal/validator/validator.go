package validator

import (
	"fmt"
	"regexp"
)

var (
	isValidVisitorID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`).MatchString
	isValidTopicName = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`).MatchString
)

func ValidateString(value string, minLength int, maxLength int) error {
	n := len(value)
	if n < minLength || n > maxLength {
		return fmt.Errorf("must contain from %d to %d characters", minLength, maxLength)
	}

	return nil
}

// ValidateVisitorID checks a visitor id before it becomes part of a storage key.
func ValidateVisitorID(value string) error {
	if err := ValidateString(value, 1, 128); err != nil {
		return fmt.Errorf("visitorId %w", err)
	}

	if !isValidVisitorID(value) {
		return fmt.Errorf("visitorId must contain only letters, digits, underscore or dash")
	}

	return nil
}

// ValidatePublisherID checks a publisher id used as a stream topic.
func ValidatePublisherID(value string) error {
	if err := ValidateString(value, 1, 128); err != nil {
		return fmt.Errorf("publisher ID %w", err)
	}

	if !isValidTopicName(value) {
		return fmt.Errorf("publisher ID must contain only letters, digits, dot, underscore or dash")
	}

	return nil
}
