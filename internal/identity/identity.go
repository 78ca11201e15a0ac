// Package identity is the boundary to the external identity provider. The
// engine trusts the role carried in a verified token and never re-derives it.
package identity

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/strayaid-systems/strayaid/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// Identity is an authenticated user as the identity provider describes them.
type Identity struct {
	ID   string
	Role string
}

// Claims is the JWT claim set issued by the identity provider.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates identity-provider bearer tokens.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for HS256 tokens signed with secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates a bearer token, returning the identity it
// asserts.
func (v *Verifier) Verify(tokenString string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return &Identity{ID: claims.UserID, Role: claims.Role}, nil
}

// Capabilities granted per role. Role-based behavior is a capability check at
// the dispatch/conversation boundary, not a type hierarchy.
const (
	CapSubmitReport     = "submit-report"
	CapWithdrawCase     = "withdraw-case"
	CapAcceptAssignment = "accept-assignment"
	CapResolveCase      = "resolve-case"
)

var roleCapabilities = map[string]map[string]bool{
	models.RoleCitizen: {
		CapSubmitReport: true,
		CapWithdrawCase: true,
	},
	models.RoleNGO: {
		CapAcceptAssignment: true,
		CapResolveCase:      true,
	},
	models.RoleVeterinarian: {
		CapAcceptAssignment: true,
		CapResolveCase:      true,
	},
}

// Can reports whether the identity's role grants a capability.
func (id *Identity) Can(capability string) bool {
	caps, ok := roleCapabilities[id.Role]
	if !ok {
		return false
	}
	return caps[capability]
}

// IsResponder reports whether the identity can hold assignments.
func (id *Identity) IsResponder() bool {
	return id.Role == models.RoleNGO || id.Role == models.RoleVeterinarian
}
