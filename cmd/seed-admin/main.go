// seed-admin creates or updates the operator console admin user.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/models"
	"github.com/lendfocus/mortgage_backend/utils"
	"gorm.io/gorm"
)

const (
	defaultAdminUsername = "lendfocusAdmin"
	defaultAdminName     = "LendFocus Admin"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = defaultAdminUsername
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		fmt.Fprintln(os.Stderr, "ADMIN_PASSWORD is required")
		os.Exit(1)
	}

	var existing models.User
	err := db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).First(&existing).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
		os.Exit(1)
	}

	if err == gorm.ErrRecordNotFound {
		user, err := models.CreateUser(ctx, username, defaultAdminName, password, models.UserRoleAdmin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("created admin user %q (id=%d)\n", user.Username, user.ID)
		return
	}

	// Existing user: reset password, role, and active flag.
	hashed, err := utils.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}
	if err := db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"password":  string(hashed),
			"role":      models.UserRoleAdmin,
			"is_active": true,
		}).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to update admin user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("updated admin user %q (id=%d)\n", existing.Username, existing.ID)
}
