package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tejusbharadwaj/meterlens/internal/timezone"
)

var (
	ErrDocumentRequired = errors.New("document is required")
	ErrDocumentTooLarge = errors.New("document exceeds size limit")
	ErrInvalidCountry   = errors.New("invalid country hint")
	ErrUnknownTimezone  = errors.New("unknown display timezone")
	ErrEmptyQuestion    = errors.New("question is required")
)

// RequestValidator checks request fields shared by the gRPC and REST
// transports.
type RequestValidator struct {
	maxDocumentBytes int
}

// NewRequestValidator creates a validator. A limit of zero or less disables
// the document size check.
func NewRequestValidator(maxDocumentBytes int) *RequestValidator {
	return &RequestValidator{maxDocumentBytes: maxDocumentBytes}
}

// ValidateDocument checks the document size. An empty document is accepted
// only when it is optional.
func (v *RequestValidator) ValidateDocument(document string, required bool) error {
	if strings.TrimSpace(document) == "" {
		if required {
			return ErrDocumentRequired
		}
		return nil
	}
	if v.maxDocumentBytes > 0 && len(document) > v.maxDocumentBytes {
		return fmt.Errorf("%w: %d > %d bytes", ErrDocumentTooLarge, len(document), v.maxDocumentBytes)
	}
	return nil
}

// ValidateCountry accepts an empty hint or one that starts with two ASCII
// letters.
func (v *RequestValidator) ValidateCountry(hint string) error {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return nil
	}
	if len(hint) < 2 || !isLetter(hint[0]) || !isLetter(hint[1]) {
		return fmt.Errorf("%w: %q", ErrInvalidCountry, hint)
	}
	return nil
}

// ValidateTimezone accepts an empty value or a zone from the display table.
func (v *RequestValidator) ValidateTimezone(value string) error {
	if value == "" || timezone.Known(value) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownTimezone, value)
}

func (v *RequestValidator) ValidateQuestion(question string) error {
	if strings.TrimSpace(question) == "" {
		return ErrEmptyQuestion
	}
	return nil
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
