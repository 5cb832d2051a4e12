package identity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sultan/backend/internal/domain/shared"
	"github.com/sultan/backend/internal/domain/shared/access"
	"github.com/sultan/backend/internal/domain/shared/update"
)

func int64Ptr(v int64) *int64 { return &v }
func strPtr(s string) *string { return &s }

func TestBuildPermissions(t *testing.T) {
	grants := []Permission{
		{UserID: 1, Resource: access.Customer, Action: access.Read},
		{UserID: 1, Resource: access.Customer, Action: access.Create},
		{UserID: 1, BranchID: int64Ptr(5), Resource: access.Product, Action: access.Update},
		{UserID: 1, BranchID: int64Ptr(7), Resource: access.Admin, Action: access.AllActions},
	}

	perms := BuildPermissions(grants)
	assert.Len(t, perms, 3)

	got, ok := perms.Lookup(access.Customer, access.Global)
	require.True(t, ok)
	assert.Equal(t, access.Read|access.Create, got)

	ctx := access.ForUser(1, perms)
	assert.True(t, ctx.HasAccess(access.OnBranch(5), access.Product, access.Update))
	assert.False(t, ctx.HasAccess(access.OnBranch(6), access.Product, access.Update))
	assert.True(t, ctx.HasAccess(access.OnBranch(7), access.Supplier, access.Delete))

	assert.Empty(t, BuildPermissions(nil))
}

func TestPermission_Validate(t *testing.T) {
	assert.NoError(t, Permission{Resource: access.Branch, Action: access.Read}.Validate())

	tests := []struct {
		name string
		p    Permission
		code string
	}{
		{"zero resource", Permission{Action: access.Read}, "INVALID_RESOURCE"},
		{"no action", Permission{Resource: access.Branch}, "INVALID_ACTION"},
		{"unknown bit", Permission{Resource: access.Branch, Action: access.Action(32)}, "INVALID_ACTION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			var de *shared.DomainError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.code, de.Code)
		})
	}
}

func TestBranchCreate_Validate(t *testing.T) {
	ok := BranchCreate{Name: "Main", Code: "JKT-01"}
	assert.NoError(t, ok.Validate())

	assert.Error(t, (&BranchCreate{Name: "", Code: "X"}).Validate())
	assert.Error(t, (&BranchCreate{Name: "Main", Code: ""}).Validate())
	assert.Error(t, (&BranchCreate{Name: "Main", Code: "bad code"}).Validate())
	assert.Error(t, (&BranchCreate{Name: "Main", Code: "X", TaxNumber: strPtr("0123456789012345678901234567890")}).Validate())

	c := BranchCreate{Name: "Main", Code: " jkt "}
	c.Normalize()
	assert.Equal(t, "JKT", c.Code)
}

func TestBranchUpdate(t *testing.T) {
	assert.False(t, (&BranchUpdate{}).HasChanges())
	assert.True(t, (&BranchUpdate{Image: update.Clear[string]()}).HasChanges())

	u := BranchUpdate{Code: strPtr("sby"), TaxNumber: update.Clear[string]()}
	assert.NoError(t, u.Validate())
	u.Normalize()
	assert.Equal(t, "SBY", *u.Code)

	bad := BranchUpdate{Name: strPtr(" ")}
	assert.Error(t, bad.Validate())
}
