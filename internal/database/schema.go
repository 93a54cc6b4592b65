package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migrate creates the tables if they do not exist.  The statements are kept
// in the portable subset shared by MySQL and sqlite; the few differences
// (engine clause, text key lengths) are patched per driver.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	for i, stmt := range schema {
		if driver == "mysql" || driver == "" {
			stmt = strings.ReplaceAll(stmt, "TEXT_KEY", "VARCHAR(191)")
			stmt += " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"
		} else {
			stmt = strings.ReplaceAll(stmt, "TEXT_KEY", "TEXT")
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            CHAR(36) PRIMARY KEY,
		name          VARCHAR(120) NOT NULL,
		email         TEXT_KEY NOT NULL UNIQUE,
		phone         TEXT_KEY NULL UNIQUE,
		password_hash VARCHAR(100) NOT NULL,
		role          VARCHAR(20) NOT NULL,
		status        VARCHAR(20) NOT NULL,
		created_at    DATETIME NOT NULL,
		updated_at    DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		token_hash CHAR(64) PRIMARY KEY,
		user_id    CHAR(36) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked    BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS password_reset_tokens (
		token_hash CHAR(64) PRIMARY KEY,
		user_id    CHAR(36) NOT NULL,
		expires_at DATETIME NOT NULL,
		used       BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS addresses (
		id           CHAR(36) PRIMARY KEY,
		user_id      CHAR(36) NOT NULL,
		label        VARCHAR(60) NOT NULL,
		address_line VARCHAR(255) NOT NULL,
		city         VARCHAR(100) NOT NULL,
		state        VARCHAR(100) NOT NULL,
		postal_code  VARCHAR(20) NOT NULL,
		country      VARCHAR(60) NOT NULL,
		is_default   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at   DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS pets (
		id         CHAR(36) PRIMARY KEY,
		owner_id   CHAR(36) NOT NULL,
		name       VARCHAR(100) NOT NULL,
		species    VARCHAR(50) NOT NULL,
		breed      VARCHAR(100) NOT NULL,
		gender     VARCHAR(10) NOT NULL,
		age        INT NOT NULL,
		weight_kg  DOUBLE NOT NULL,
		notes      VARCHAR(500) NOT NULL,
		status     VARCHAR(20) NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS services (
		id           CHAR(36) PRIMARY KEY,
		name         TEXT_KEY NOT NULL UNIQUE,
		description  VARCHAR(500) NOT NULL,
		price        INT NOT NULL,
		duration_min INT NOT NULL,
		type         VARCHAR(20) NOT NULL,
		status       VARCHAR(20) NOT NULL,
		created_at   DATETIME NOT NULL,
		updated_at   DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS slots (
		id         CHAR(36) PRIMARY KEY,
		service_id CHAR(36) NOT NULL,
		staff_id   CHAR(36) NULL,
		start_time DATETIME NOT NULL,
		end_time   DATETIME NOT NULL,
		capacity   INT NOT NULL,
		status     VARCHAR(20) NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (service_id) REFERENCES services(id),
		FOREIGN KEY (staff_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id               CHAR(36) PRIMARY KEY,
		user_id          CHAR(36) NOT NULL,
		pet_id           CHAR(36) NOT NULL,
		service_id       CHAR(36) NOT NULL,
		slot_id          CHAR(36) NULL,
		booking_date     CHAR(10) NOT NULL,
		booking_time     CHAR(5) NOT NULL,
		transport_option VARCHAR(10) NOT NULL,
		status           VARCHAR(20) NOT NULL,
		total_amount     INT NOT NULL,
		notes            VARCHAR(500) NOT NULL,
		created_at       DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id),
		FOREIGN KEY (pet_id) REFERENCES pets(id),
		FOREIGN KEY (service_id) REFERENCES services(id)
	)`,
	`CREATE TABLE IF NOT EXISTS grooming_booking_details (
		booking_id       CHAR(36) PRIMARY KEY,
		grooming_style   VARCHAR(255) NULL,
		coat_condition   VARCHAR(255) NULL,
		special_requests VARCHAR(500) NULL,
		FOREIGN KEY (booking_id) REFERENCES bookings(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS training_booking_details (
		booking_id     CHAR(36) PRIMARY KEY,
		training_level VARCHAR(255) NULL,
		behavior_notes VARCHAR(500) NULL,
		goals          VARCHAR(500) NULL,
		FOREIGN KEY (booking_id) REFERENCES bookings(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS vet_booking_details (
		booking_id      CHAR(36) PRIMARY KEY,
		symptoms        VARCHAR(500) NULL,
		previous_issues VARCHAR(500) NULL,
		medications     VARCHAR(500) NULL,
		FOREIGN KEY (booking_id) REFERENCES bookings(id) ON DELETE CASCADE
	)`,
}
