package domain

import (
	"campus-chat/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDashboardFor_Every_Role_Reaches_Messages(t *testing.T) {
	roles := []Role{RoleAdmin, RoleTeacher, RoleStudent, RoleReceptionist,
		RoleShopkeeper, RoleExaminer, RoleAccounting, RoleResearcher}

	for _, role := range roles {
		t.Run(string(role), func(t *testing.T) {
			req := require.New(t)
			dashboard, err := DashboardFor(role)
			req.NoError(err)
			req.Equal(role, dashboard.Role())
			req.Contains(dashboard.NavigationItems(), messagesItem)
		})
	}
}

func TestDashboardFor_Unknown_Role(t *testing.T) {
	_, err := DashboardFor("janitor")
	require.New(t).ErrorIs(err, errors.ErrUnknownRole)
}
