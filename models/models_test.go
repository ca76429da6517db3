package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPollStatusValid(t *testing.T) {
	assert.True(t, PollStatusActive.Valid())
	assert.True(t, PollStatusInactive.Valid())
	assert.False(t, PollStatus("").Valid())
	assert.False(t, PollStatus("ATIVA").Valid())
}

func TestPollComplete(t *testing.T) {
	p := Poll{Status: PollStatusActive, Options: []Option{{Text: "A"}}}
	assert.True(t, p.IsActive())
	assert.False(t, p.Complete())

	p.Options = append(p.Options, Option{Text: "B"})
	assert.True(t, p.Complete())
}

func TestUserValidate(t *testing.T) {
	tests := []struct {
		name    string
		user    User
		wantErr bool
	}{
		{"valid", User{Username: "admin", Email: "admin@example.com", PasswordHash: "h"}, false},
		{"short username", User{Username: "ad", Email: "admin@example.com", PasswordHash: "h"}, true},
		{"bad email", User{Username: "admin", Email: "admin.example.com", PasswordHash: "h"}, true},
		{"missing hash", User{Username: "admin", Email: "admin@example.com"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
