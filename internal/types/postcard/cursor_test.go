package postcard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	sentAt := time.Date(2025, 6, 1, 12, 30, 45, 123456000, time.UTC)
	c := Cursor{SentAt: sentAt, PostcardID: "11111111-2222-3333-4444-555555555555"}

	token := c.Encode()
	require.NotEmpty(t, token)

	decoded, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.True(t, decoded.SentAt.Equal(sentAt))
	assert.Equal(t, c.PostcardID, decoded.PostcardID)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	cases := []string{
		"not base64 at all!!",
		"bm90IGpzb24",   // valid base64, not JSON
		"eyJmb28iOjF9=", // padding makes raw-url decoding fail
	}
	for _, token := range cases {
		_, err := DecodeCursor(token)
		assert.Error(t, err, "token %q should be rejected", token)
	}
}

func TestDecodeCursorEmptyToken(t *testing.T) {
	// An empty token decodes to empty JSON input, which must error rather
	// than yield a zero cursor silently.
	_, err := DecodeCursor("")
	assert.Error(t, err)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultPageLimit, ClampLimit(0))
	assert.Equal(t, DefaultPageLimit, ClampLimit(-5))
	assert.Equal(t, 1, ClampLimit(1))
	assert.Equal(t, 99, ClampLimit(99))
	assert.Equal(t, MaxPageLimit, ClampLimit(100))
	assert.Equal(t, MaxPageLimit, ClampLimit(500))
}
