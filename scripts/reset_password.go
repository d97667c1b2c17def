package main

import (
	"fmt"
	"log"
	"os"

	"github.com/mustafateksen/virtue-local-admin-dashboard/config"
	"github.com/mustafateksen/virtue-local-admin-dashboard/database"
	"github.com/mustafateksen/virtue-local-admin-dashboard/models"

	"github.com/joho/godotenv"
)

// Resets the admin password from the command line for operators locked
// out of the dashboard: go run scripts/reset_password.go <username> <password>
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if len(os.Args) != 3 {
		log.Fatalf("usage: %s <username> <new-password>", os.Args[0])
	}
	username := os.Args[1]
	password := os.Args[2]

	cfg := config.Load()
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		log.Fatalf("User not found: %v", err)
	}

	if err := user.SetPassword(password); err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	if err := db.Save(&user).Error; err != nil {
		log.Fatalf("Failed to update password: %v", err)
	}

	fmt.Printf("Password updated successfully for %s\n", user.Username)
}
