package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dukerupert/xpboard/internal/database"
	"github.com/dukerupert/xpboard/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, us *UserStore, externalID, name string) *model.User {
	t.Helper()
	username := name + "_handle"
	u, err := us.Upsert(context.Background(), model.User{
		ExternalID: externalID,
		Email:      externalID + "@example.com",
		Name:       name,
		Username:   &username,
		Image:      "https://img.example.com/" + externalID + ".png",
	})
	if err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	return u
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
