package services

import (
	"testing"

	"github.com/autotraits-be/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBreederID(t *testing.T) {
	tests := []struct {
		name    string
		role    models.Role
		claimed *uint
		target  *uint
		want    uint
		wantErr error
	}{
		{name: "admin with target", role: models.RoleAdmin, target: ptr(uint(7)), want: 7},
		{name: "admin without target", role: models.RoleAdmin, wantErr: ErrBadRequest},
		{name: "user own breeder", role: models.RoleUser, claimed: ptr(uint(3)), want: 3},
		{name: "user naming own breeder", role: models.RoleUser, claimed: ptr(uint(3)), target: ptr(uint(3)), want: 3},
		{name: "user naming other breeder", role: models.RoleUser, claimed: ptr(uint(3)), target: ptr(uint(4)), wantErr: ErrForbidden},
		{name: "user without breeder", role: models.RoleUser, wantErr: ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveBreederID(tt.role, tt.claimed, tt.target)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveBreederScope(t *testing.T) {
	scope, err := ResolveBreederScope(models.RoleAdmin, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, scope)

	scope, err = ResolveBreederScope(models.RoleAdmin, nil, ptr(uint(2)))
	require.NoError(t, err)
	assert.Equal(t, uint(2), *scope)

	scope, err = ResolveBreederScope(models.RoleUser, ptr(uint(5)), nil)
	require.NoError(t, err)
	assert.Equal(t, uint(5), *scope)

	_, err = ResolveBreederScope(models.RoleUser, ptr(uint(5)), ptr(uint(6)))
	assert.ErrorIs(t, err, ErrForbidden)
}
