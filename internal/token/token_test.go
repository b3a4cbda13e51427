package token

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_RoundTrip(t *testing.T) {
	iss := New("secret")

	raw, err := iss.Generate("acc-1", "sess-1", time.Now().Add(time.Hour))
	require.NoError(t, err)

	claims, err := iss.Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.Subject)
	assert.Equal(t, "sess-1", claims.SessionID)
}

func TestIssuer_Validate(t *testing.T) {
	iss := New("secret")

	t.Run("expired", func(t *testing.T) {
		raw, err := iss.Generate("acc-1", "sess-1", time.Now().Add(-time.Minute))
		require.NoError(t, err)

		_, err = iss.Validate(raw)
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("wrong secret", func(t *testing.T) {
		raw, err := New("other").Generate("acc-1", "sess-1", time.Now().Add(time.Hour))
		require.NoError(t, err)

		_, err = iss.Validate(raw)
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := iss.Validate("not-a-token")
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("missing session id", func(t *testing.T) {
		tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.RegisteredClaims{
			Subject:   "acc-1",
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		})
		raw, err := tok.SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = iss.Validate(raw)
		assert.ErrorIs(t, err, ErrInvalid)
	})
}
