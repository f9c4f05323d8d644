package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpiry_Never(t *testing.T) {
	var zero Expiry
	assert.True(t, zero.IsNever())
	assert.Equal(t, neverDate, Never().Date())
	assert.False(t, Never().IsExpired())
}

func TestExpiry_After(t *testing.T) {
	assert.True(t, Seconds(-1).IsExpired())
	assert.False(t, After(time.Hour).IsExpired())

	d := After(time.Minute).Date()
	assert.WithinDuration(t, time.Now().Add(time.Minute), d, time.Second)
}

func TestExpiry_ResolvePinsInstant(t *testing.T) {
	at := After(time.Minute).Resolve()
	first := at.Date()
	time.Sleep(5 * time.Millisecond)
	assert.True(t, first.Equal(at.Date()))
}

func TestExpiry_At(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	assert.True(t, At(past).IsExpired())
	assert.True(t, past.Equal(At(past).Date()))
}

func TestParseExpiry(t *testing.T) {
	cases := []struct {
		in    string
		never bool
		after time.Duration
	}{
		{in: "", never: true},
		{in: "never", never: true},
		{in: "NEVER", never: true},
		{in: "90s", after: 90 * time.Second},
		{in: "12h", after: 12 * time.Hour},
	}
	for _, c := range cases {
		e, err := ParseExpiry(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.never, e.IsNever(), c.in)
		if !c.never {
			assert.Equal(t, After(c.after), e, c.in)
		}
	}

	e, err := ParseExpiry("2030-01-02T03:04:05Z")
	require.NoError(t, err)
	assert.True(t, time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC).Equal(e.Date()))

	_, err = ParseExpiry("tomorrow")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestExpiry_Text(t *testing.T) {
	for _, in := range []string{"never", "1m30s"} {
		e, err := ParseExpiry(in)
		require.NoError(t, err)
		b, err := e.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, in, string(b))

		var back Expiry
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, e, back)
	}
}
