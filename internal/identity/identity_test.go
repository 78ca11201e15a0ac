package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strayaid-systems/strayaid/internal/models"
)

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerify(t *testing.T) {
	v := NewVerifier("test-secret")

	token := signToken(t, "test-secret", Claims{
		UserID: "user-1",
		Role:   models.RoleVeterinarian,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	id, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.ID)
	assert.Equal(t, models.RoleVeterinarian, id.Role)
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	v := NewVerifier("test-secret")

	_, err := v.Verify("not-a-token")
	assert.Error(t, err)

	// Wrong secret.
	token := signToken(t, "other-secret", Claims{UserID: "user-1", Role: models.RoleCitizen})
	_, err = v.Verify(token)
	assert.Error(t, err)

	// Expired.
	token = signToken(t, "test-secret", Claims{
		UserID: "user-1",
		Role:   models.RoleCitizen,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	_, err = v.Verify(token)
	assert.Error(t, err)

	// Missing subject.
	token = signToken(t, "test-secret", Claims{Role: models.RoleCitizen})
	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCapabilities(t *testing.T) {
	citizen := &Identity{ID: "c1", Role: models.RoleCitizen}
	assert.True(t, citizen.Can(CapSubmitReport))
	assert.True(t, citizen.Can(CapWithdrawCase))
	assert.False(t, citizen.Can(CapAcceptAssignment))
	assert.False(t, citizen.IsResponder())

	ngo := &Identity{ID: "n1", Role: models.RoleNGO}
	assert.True(t, ngo.Can(CapAcceptAssignment))
	assert.True(t, ngo.Can(CapResolveCase))
	assert.False(t, ngo.Can(CapSubmitReport))
	assert.True(t, ngo.IsResponder())

	unknown := &Identity{ID: "x", Role: "admin"}
	assert.False(t, unknown.Can(CapSubmitReport))
}
