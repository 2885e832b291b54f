// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"templedesk/internal/database"
	"templedesk/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "templedesk")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "templedesk")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testPrefix returns a unique business-code prefix so parallel test runs
// never collide on the live-code unique index.
func testPrefix() string {
	return "T" + uuid.NewString()[:8] + "-"
}

// cleanNodes removes every node whose code starts with prefix, along with
// its slots and their bookings. Call in t.Cleanup(). Soft-deleted nodes
// are swept too so reruns start clean.
func cleanNodes(t *testing.T, db *sql.DB, prefix string) {
	t.Helper()
	pattern := prefix + "%"
	db.Exec(`DELETE FROM bookings WHERE slot_id IN (
		SELECT sl.id FROM slots sl JOIN nodes n ON n.id = sl.node_id WHERE n.code LIKE $1)`, pattern)
	db.Exec(`DELETE FROM slots WHERE node_id IN (SELECT id FROM nodes WHERE code LIKE $1)`, pattern)
	// Break parent links first so the self-referencing FK cannot trip the delete.
	db.Exec(`UPDATE nodes SET parent_id = NULL WHERE code LIKE $1`, pattern)
	db.Exec(`DELETE FROM nodes WHERE code LIKE $1`, pattern)
}

// cleanUsers removes test users by email. Call in t.Cleanup().
func cleanUsers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		db.Exec(`DELETE FROM users WHERE email = $1`, email)
	}
}

// cleanSettings removes test settings by key. Call in t.Cleanup().
func cleanSettings(t *testing.T, db *sql.DB, keys ...string) {
	t.Helper()
	for _, key := range keys {
		db.Exec(`DELETE FROM settings WHERE key = $1`, key)
	}
}

// mustNode inserts a node directly through the store and fails the test on
// error. Codes are numbered under the test's unique prefix.
func mustNode(t *testing.T, s *NodeStore, typ models.NodeType, prefix string, n int, parent *uuid.UUID) *models.Node {
	t.Helper()
	node := &models.Node{
		ID:       uuid.New(),
		Type:     typ,
		Code:     fmt.Sprintf("%s%04d", prefix, n),
		Name:     fmt.Sprintf("Test Node %d", n),
		ParentID: parent,
		Active:   true,
	}
	if err := s.Insert(context.Background(), node); err != nil {
		t.Fatalf("insert node %s: %v", node.Code, err)
	}
	return node
}
