package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"railway-booking/config"
)

var DB *sqlx.DB

// DSN builds the lib/pq connection string from configuration
func DSN(cfg *config.Config) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode,
	)
}

// Connect establishes a connection to the PostgreSQL database
func Connect(cfg *config.Config) error {
	var (
		conn *sql.DB
		err  error
	)
	if cfg.TracingEnabled {
		conn, err = xray.SQLContext("postgres", DSN(cfg))
	} else {
		conn, err = sql.Open("postgres", DSN(cfg))
	}
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}

	DB = sqlx.NewDb(conn, "postgres")

	// Configure connection pool
	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(5)
	DB.SetConnMaxLifetime(5 * time.Minute)

	// Test the connection with retries
	maxRetries := 30
	for i := 0; i < maxRetries; i++ {
		err = DB.Ping()
		if err == nil {
			log.Println("Successfully connected to database")
			return nil
		}
		log.Printf("Failed to connect to database (attempt %d/%d): %v", i+1, maxRetries, err)
		time.Sleep(2 * time.Second)
	}

	return fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// GetDB returns the database connection
func GetDB() *sqlx.DB {
	return DB
}
