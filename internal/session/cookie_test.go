package session_test

import (
	"testing"
	"time"

	"github.com/dom/gallery-cms/internal/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestCookieCodec_RoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := session.NewCookieCodec(testSecret, func() time.Time { return now })

	value, err := codec.Encode("tok-123", now.Add(time.Hour))
	require.NoError(t, err)

	token, err := codec.Decode(value)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
}

func TestCookieCodec_Rejects(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := session.NewCookieCodec(testSecret, func() time.Time { return now })

	valid, err := codec.Encode("tok-123", now.Add(time.Hour))
	require.NoError(t, err)

	expired, err := codec.Encode("tok-123", now.Add(-time.Minute))
	require.NoError(t, err)

	other := session.NewCookieCodec([]byte("another-secret-another-secret-xx"), func() time.Time { return now })
	foreign, err := other.Encode("tok-123", now.Add(time.Hour))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, session.Claims{
		SessionToken: "tok-123",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		value string
	}{
		{name: "garbage", value: "not-a-jwt"},
		{name: "tampered", value: valid[:len(valid)-2] + "xx"},
		{name: "expired", value: expired},
		{name: "wrong secret", value: foreign},
		{name: "alg none", value: unsigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode(tt.value)
			assert.ErrorIs(t, err, session.ErrInvalidCookie)
		})
	}
}
