package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestValidator(t *testing.T) {
	validator := NewRequestValidator(32)

	tests := []struct {
		name    string
		check   func() error
		wantErr error
	}{
		{"document ok", func() error { return validator.ValidateDocument("<a/>", true) }, nil},
		{"document missing", func() error { return validator.ValidateDocument("  ", true) }, ErrDocumentRequired},
		{"document optional", func() error { return validator.ValidateDocument("", false) }, nil},
		{"document too large", func() error { return validator.ValidateDocument(strings.Repeat("x", 33), true) }, ErrDocumentTooLarge},
		{"country empty", func() error { return validator.ValidateCountry("") }, nil},
		{"country code", func() error { return validator.ValidateCountry("at") }, nil},
		{"country mRID", func() error { return validator.ValidateCountry("DE0001") }, nil},
		{"country one letter", func() error { return validator.ValidateCountry("A") }, ErrInvalidCountry},
		{"country digits", func() error { return validator.ValidateCountry("12") }, ErrInvalidCountry},
		{"timezone empty", func() error { return validator.ValidateTimezone("") }, nil},
		{"timezone known", func() error { return validator.ValidateTimezone("CEST") }, nil},
		{"timezone unknown", func() error { return validator.ValidateTimezone("Europe/Berlin") }, ErrUnknownTimezone},
		{"question", func() error { return validator.ValidateQuestion("peak?") }, nil},
		{"question blank", func() error { return validator.ValidateQuestion(" \t") }, ErrEmptyQuestion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestRequestValidator_NoLimit(t *testing.T) {
	assert.NoError(t, NewRequestValidator(0).ValidateDocument(strings.Repeat("x", 1<<16), true))
}
