package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func TestExtractString(t *testing.T) {
	claims := jwt.MapClaims{
		"name":  "Ola Nordmann",
		"email": "",
		"upn":   "ola@straye.io",
		"count": 3,
	}

	assert.Equal(t, "Ola Nordmann", extractString(claims, "name"))
	// Empty and non-string values fall through to the next key
	assert.Equal(t, "ola@straye.io", extractString(claims, "email", "upn"))
	assert.Equal(t, "ola@straye.io", extractString(claims, "count", "upn"))
	assert.Equal(t, "", extractString(claims, "missing"))
}

func TestExtractRoles(t *testing.T) {
	tests := []struct {
		name     string
		claims   jwt.MapClaims
		expected []string
	}{
		{
			name:     "roles array",
			claims:   jwt.MapClaims{"roles": []interface{}{"preflight.admin", "preflight.operator"}},
			expected: []string{"preflight.admin", "preflight.operator"},
		},
		{
			name:     "single role string",
			claims:   jwt.MapClaims{"role": "preflight.operator"},
			expected: []string{"preflight.operator"},
		},
		{
			name:     "no role claims",
			claims:   jwt.MapClaims{"sub": "abc"},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractRoles(tt.claims))
		})
	}
}

func TestExtractScopes(t *testing.T) {
	claims := jwt.MapClaims{"scp": "access_as_user openid"}
	assert.Equal(t, []string{"access_as_user", "openid"}, ExtractScopes(claims))

	claims = jwt.MapClaims{"scope": "access_as_user"}
	assert.Equal(t, []string{"access_as_user"}, ExtractScopes(claims))

	assert.Empty(t, ExtractScopes(jwt.MapClaims{}))
}

func TestHasRequiredScope(t *testing.T) {
	scopes := []string{"access_as_user", "openid"}

	assert.True(t, HasRequiredScope(scopes, ""))
	assert.True(t, HasRequiredScope(scopes, "access_as_user"))
	assert.True(t, HasRequiredScope(scopes, "Access_As_User"))
	assert.True(t, HasRequiredScope(scopes, "other, openid"))
	assert.False(t, HasRequiredScope(scopes, "admin_only"))
	assert.False(t, HasRequiredScope(nil, "access_as_user"))
}
