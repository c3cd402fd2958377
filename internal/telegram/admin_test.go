package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestUsernameFromLink(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://t.me/moontoken", "moontoken"},
		{"http://t.me/Moon_Token99", "Moon_Token99"},
		{"https://t.me/moontoken?start=1", "moontoken"},
		{"@moontoken", "moontoken"},
		{"moontoken", "moontoken"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, usernameFromLink(tc.in), "input %q", tc.in)
	}
}

func TestFloodWait(t *testing.T) {
	assert.Zero(t, floodWait(assert.AnError))

	flood := tele.FloodError{RetryAfter: 5}
	assert.Equal(t, 5*time.Second, floodWait(flood))

	// Long waits are capped.
	flood.RetryAfter = 3600
	assert.Equal(t, maxFloodWait, floodWait(flood))
}
