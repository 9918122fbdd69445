package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid email",
			email:   "alice@example.com",
			wantErr: false,
		},
		{
			name:    "valid email - subdomain",
			email:   "alice@mail.example.co.uk",
			wantErr: false,
		},
		{
			name:    "valid email - plus alias",
			email:   "alice+billing@example.com",
			wantErr: false,
		},
		{
			name:    "invalid - empty",
			email:   "",
			wantErr: true,
			errMsg:  "email cannot be empty",
		},
		{
			name:    "invalid - no at sign",
			email:   "alice.example.com",
			wantErr: true,
			errMsg:  "email format is invalid",
		},
		{
			name:    "invalid - no domain dot",
			email:   "alice@localhost",
			wantErr: true,
			errMsg:  "email format is invalid",
		},
		{
			name:    "invalid - spaces",
			email:   "alice smith@example.com",
			wantErr: true,
			errMsg:  "email format is invalid",
		},
		{
			name:    "invalid - too long",
			email:   strings.Repeat("a", 250) + "@example.com",
			wantErr: true,
			errMsg:  "email must not exceed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
