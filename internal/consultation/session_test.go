package consultation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionRemaining(t *testing.T) {
	end := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	s := &Session{WindowEnd: end}

	assert.Equal(t, 30*time.Minute, s.Remaining(end.Add(-30*time.Minute)))
	assert.Equal(t, time.Duration(0), s.Remaining(end))

	// Overrun clamps at zero rather than going negative; the session stays
	// usable.
	assert.Equal(t, time.Duration(0), s.Remaining(end.Add(15*time.Minute)))
}

func TestSessionExpired(t *testing.T) {
	end := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	s := &Session{WindowEnd: end}

	assert.False(t, s.Expired(end.Add(-time.Minute)))
	assert.True(t, s.Expired(end))
	assert.True(t, s.Expired(end.Add(time.Hour)))
}
