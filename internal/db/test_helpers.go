// internal/db/test_helpers.go
package db

import (
	"fmt"
	"testing"

	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/models"
)

func ClearTestDBTables(t *testing.T, tableNames ...string) {
	if DB == nil {
		t.Skip("DB not initialized, skipping table clear")
		return
	}
	for _, table := range tableNames {
		// DELETE rather than TRUNCATE so FK constraints stay happy.
		_, err := DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Fatalf("Failed to clear table %s: %v", table, err)
		}
	}
}

func SeedDefaultRolesForTest(t *testing.T) {
	if DB == nil {
		t.Skip("DB not initialized, skipping role seeding")
		return
	}
	rolesToSeed := []models.Role{
		{Name: models.RoleUser, Description: "Default user role"},
		{Name: models.RoleAdmin, Description: "Administrator role"},
	}
	for _, role := range rolesToSeed {
		if _, err := CreateRoleIfNotExists(&role); err != nil {
			t.Fatalf("Failed to seed role %s: %v", role.Name, err)
		}
	}
}
