package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/go-sql-driver/mysql"
)

// SetupTestDB opens the test database. It expects a MySQL database named
// 'visaflow_test' on localhost:3306 and skips the test when none is reachable.
func SetupTestDB(t *testing.T) *sql.DB {
	dsn := "root:@tcp(localhost:3306)/visaflow_test?parseTime=true&loc=UTC"
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.Ping()
	if err != nil {
		t.Skipf("test database not available: %v", err)
	}

	return db
}

// CleanupTestDB empties the test tables and closes the connection.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	tables := []string{"RepresentativeMatches", "VisaOrders", "Representatives"}
	for _, table := range tables {
		_, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

// SetupTestTables creates the tables the repositories need.
func SetupTestTables(t *testing.T, db *sql.DB) {
	createOrdersTable := `
	CREATE TABLE IF NOT EXISTS VisaOrders (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		userId VARCHAR(64) NOT NULL,
		visaCategory VARCHAR(8) NOT NULL,
		applicationKind VARCHAR(16) NOT NULL,
		status VARCHAR(32) NOT NULL,
		evaluationResult JSON NULL,
		matchId VARCHAR(36) NULL,
		paymentId VARCHAR(64) NULL,
		documentSubmissionId VARCHAR(36) NULL,
		serviceOptions JSON NOT NULL,
		basePrice DECIMAL(14,2) NOT NULL DEFAULT 0,
		legalFee DECIMAL(14,2) NOT NULL DEFAULT 0,
		urgentFee DECIMAL(14,2) NOT NULL DEFAULT 0,
		consultationFee DECIMAL(14,2) NOT NULL DEFAULT 0,
		totalAmount DECIMAL(14,2) NOT NULL DEFAULT 0,
		currency CHAR(3) NOT NULL DEFAULT 'KRW',
		timeline JSON NOT NULL,
		cancellationReason VARCHAR(500) NULL,
		cancelledAt DATETIME(6) NULL,
		failureReason VARCHAR(500) NULL,
		version BIGINT NOT NULL DEFAULT 1,
		createdAt DATETIME(6) NOT NULL,
		updatedAt DATETIME(6) NOT NULL,
		INDEX idx_user (userId),
		INDEX idx_status (status)
	)`

	createMatchesTable := `
	CREATE TABLE IF NOT EXISTS RepresentativeMatches (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		orderId VARCHAR(36) NOT NULL,
		userId VARCHAR(64) NOT NULL,
		visaCategory VARCHAR(8) NOT NULL,
		representative JSON NOT NULL,
		matchingScore DOUBLE NOT NULL,
		scoreBreakdown JSON NOT NULL,
		fee JSON NOT NULL,
		serviceScope JSON NOT NULL,
		status VARCHAR(16) NOT NULL,
		clientFeedback JSON NULL,
		version BIGINT NOT NULL DEFAULT 1,
		createdAt DATETIME(6) NOT NULL,
		updatedAt DATETIME(6) NOT NULL,
		INDEX idx_order (orderId)
	)`

	createRepresentativesTable := `
	CREATE TABLE IF NOT EXISTS Representatives (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(128) NOT NULL,
		licenseId VARCHAR(32) NOT NULL,
		specializations JSON NOT NULL,
		rating DOUBLE NOT NULL DEFAULT 0,
		experienceYears INT NOT NULL DEFAULT 0,
		languages JSON NOT NULL,
		location VARCHAR(64) NOT NULL,
		remoteAvailable TINYINT(1) NOT NULL DEFAULT 0,
		email VARCHAR(128) NOT NULL,
		phone VARCHAR(32) NOT NULL,
		capacity INT NOT NULL DEFAULT 0,
		activeCases INT NOT NULL DEFAULT 0,
		isActive TINYINT(1) NOT NULL DEFAULT 1
	)`

	tables := []struct {
		name  string
		query string
	}{
		{"VisaOrders", createOrdersTable},
		{"RepresentativeMatches", createMatchesTable},
		{"Representatives", createRepresentativesTable},
	}

	for _, tbl := range tables {
		_, err := db.Exec(tbl.query)
		if err != nil {
			t.Logf("failed to create table %s: %v", tbl.name, err)
		}
	}
}
