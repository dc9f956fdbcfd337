package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoleAuthorizer(t *testing.T) {
	az := DefaultRoleAuthorizer()
	ctx := context.Background()

	admin := &Identity{StaffID: "a", Roles: []string{"admin"}}
	nurse := &Identity{StaffID: "n", Roles: []string{"nurse"}}
	expired := &Identity{StaffID: "x", Roles: []string{"admin"}, ExpiresAt: time.Now().Add(-time.Second)}

	assert.NoError(t, az.Authorize(ctx, admin, ActionResetBreakers))
	assert.NoError(t, az.Authorize(ctx, nurse, ActionReadBreakers))
	assert.NoError(t, az.Authorize(ctx, nurse, ActionReadDetail))
	assert.ErrorIs(t, az.Authorize(ctx, nurse, ActionResetBreakers), ErrForbidden)
	assert.ErrorIs(t, az.Authorize(ctx, nil, ActionReadDetail), ErrForbidden)
	assert.ErrorIs(t, az.Authorize(ctx, expired, ActionResetBreakers), ErrForbidden)
}

func TestRoleAuthorizer_CopiesRules(t *testing.T) {
	rules := map[string][]string{"x": {"admin"}}
	az := NewRoleAuthorizer(rules)
	rules["x"][0] = "nurse"

	err := az.Authorize(context.Background(), &Identity{StaffID: "n", Roles: []string{"nurse"}}, "x")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAuthzError_Message(t *testing.T) {
	err := &AuthzError{StaffID: "n", Action: ActionResetBreakers, Reason: "no role permits this action"}
	assert.Contains(t, err.Error(), `staff="n"`)
	assert.Contains(t, err.Error(), `action="breakers:reset"`)
}

func TestAllowAll(t *testing.T) {
	assert.NoError(t, AllowAll{}.Authorize(context.Background(), nil, ActionResetBreakers))
}
