package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionValidAt(t *testing.T) {
	expires := time.Date(2030, 3, 17, 9, 30, 0, 0, time.UTC)
	s := &Session{ExpiresAt: expires}

	assert.True(t, s.ValidAt(expires.Add(-time.Nanosecond)))
	assert.False(t, s.ValidAt(expires), "a token is rejected at its expiry instant")
	assert.False(t, s.ValidAt(expires.Add(time.Second)))
}
