package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/you/verifybot/internal/infrastructure/database"
)

// Store connectivity check for new deployments.
func main() {
	_ = godotenv.Load()

	dsn := "host=localhost user=verifybot password=verifybot dbname=verifybot port=5432 sslmode=disable"
	if envDSN := os.Getenv("DATABASE_DSN"); envDSN != "" {
		dsn = envDSN
	}

	fmt.Println("Verification store connection check")
	fmt.Println("===================================")

	db, err := database.Open(dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying sql.DB: %v", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	fmt.Println("✓ Database connection successful")

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run auto-migration: %v", err)
	}
	fmt.Println("✓ AutoMigrate completed successfully")

	var policyCount int64
	if err := db.Raw("SELECT COUNT(*) FROM server_policies").Scan(&policyCount).Error; err != nil {
		log.Fatalf("Failed to query server_policies table: %v", err)
	}
	fmt.Printf("✓ Server policies table accessible (current count: %d)\n", policyCount)

	var recordCount int64
	if err := db.Raw("SELECT COUNT(*) FROM verification_records").Scan(&recordCount).Error; err != nil {
		log.Fatalf("Failed to query verification_records table: %v", err)
	}
	fmt.Printf("✓ Verification records table accessible (current count: %d)\n", recordCount)

	fmt.Println("\nStore is ready.")
}
