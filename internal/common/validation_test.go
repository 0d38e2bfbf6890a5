package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatorUpload(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		size    int64
		wantErr bool
	}{
		{"pdf ok", "order.pdf", 1024, false},
		{"txt upper ext", "ORDER.TXT", 10, false},
		{"docx ok", "appeal.docx", 10, false},
		{"image rejected", "scan.png", 10, true},
		{"too large", "big.pdf", 11 << 20, true},
		{"empty name", "", 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidator().
				Field("document", tt.file, Required, AllowedDocument).
				Field("size", tt.size, MaxBytes(10<<20)).
				Err()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, ErrValidation))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCaseIDRule(t *testing.T) {
	assert.Nil(t, CaseID("id", "CASE-1712345678901-1a2b3c4d"))
	assert.NotNil(t, CaseID("id", "../etc/passwd"))
	assert.NotNil(t, CaseID("id", ""))
}
