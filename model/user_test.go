package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseUsername(t *testing.T) {
	assert.Equal(t, "a", BaseUsername("a@x.com"))
	assert.Equal(t, "john.doe", BaseUsername("John.Doe@Example.com"))
	assert.Equal(t, "noat", BaseUsername("NoAt"))
}

func TestUsernameCandidate(t *testing.T) {
	assert.Equal(t, "a", UsernameCandidate("a", 0))
	assert.Equal(t, "a1", UsernameCandidate("a", 1))
	assert.Equal(t, "a12", UsernameCandidate("a", 12))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "Jo@example.com", NormalizeEmail("  Jo@EXAMPLE.com "))
	assert.Equal(t, "plain", NormalizeEmail("plain"))
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("a@x.com"))
	assert.False(t, ValidEmail("a"))
	assert.False(t, ValidEmail("Jo <a@x.com>"))
	assert.False(t, ValidEmail(""))
}

func TestPasswordProblems(t *testing.T) {
	tests := []struct {
		name     string
		password string
		email    string
		want     int
	}{
		{"strong", "P@ssw0rd1", "a@x.com", 0},
		{"short", "Ab1!", "a@x.com", 1},
		{"common", "password123", "a@x.com", 1},
		{"numeric", "9081726354", "a@x.com", 1},
		{"short and numeric", "123", "a@x.com", 2},
		{"similar to email", "johnsmith2024", "johnsmith@example.com", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, PasswordProblems(tt.password, tt.email), tt.want)
		})
	}
}
