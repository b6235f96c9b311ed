package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoleLevelFromInt(t *testing.T) {
	require.Equal(t, RoleAdministrator, RoleLevelFromInt(1))
	require.Equal(t, RoleManager, RoleLevelFromInt(2))
	require.Equal(t, RoleUser, RoleLevelFromInt(3))

	for _, v := range []int{0, -1, 4, 7, 99} {
		require.Equal(t, RoleUnrecognized, RoleLevelFromInt(v), "value %d", v)
	}
}

func TestRoleLevelName(t *testing.T) {
	require.Equal(t, "Administrator", RoleAdministrator.Name())
	require.Equal(t, "Manager", RoleManager.Name())
	require.Equal(t, "User", RoleUser.Name())
	require.Equal(t, "unknown", RoleUnrecognized.Name())
	require.False(t, RoleUnrecognized.Known())
}
