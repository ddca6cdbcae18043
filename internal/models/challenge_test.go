package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChallenge_Live(t *testing.T) {
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := Challenge{Identifier: "a@b.com", Code: "123456", IssuedAt: issued}
	ttl := 300 * time.Second

	assert.True(t, c.Live(issued, ttl))
	assert.True(t, c.Live(issued.Add(ttl), ttl), "exactly at the ttl boundary is still live")
	assert.False(t, c.Live(issued.Add(ttl+time.Second), ttl))
}

func TestVerifyOutcome_String(t *testing.T) {
	assert.Equal(t, "success", VerifySuccess.String())
	assert.Equal(t, "mismatch", VerifyMismatch.String())
	assert.Equal(t, "not_found", VerifyNotFound.String())
}
