package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donorlink/internal/domain"
)

func TestParseRole(t *testing.T) {
	for _, role := range domain.Roles {
		parsed, err := domain.ParseRole(string(role))
		require.NoError(t, err)
		assert.Equal(t, role, parsed)
	}

	for _, bad := range []string{"", "Patient", "superadmin", "doctor"} {
		_, err := domain.ParseRole(bad)
		assert.Error(t, err, "role %q should be rejected", bad)
	}
}

func TestDashboardPath(t *testing.T) {
	cases := map[domain.Role]string{
		domain.RolePatient:  "/patient",
		domain.RoleDonor:    "/donor",
		domain.RoleHospital: "/hospital",
		domain.RoleNGO:      "/ngo",
		domain.RoleAdmin:    "/admin",
	}
	for role, want := range cases {
		assert.Equal(t, want, role.DashboardPath())
	}

	// Total over any input: unknown roles land on the root path.
	assert.Equal(t, "/", domain.Role("visitor").DashboardPath())
	assert.Equal(t, "/", domain.Role("").DashboardPath())
}
