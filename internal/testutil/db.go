package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cancha-app/cancha/internal/db"
)

// NewTestDB creates a temporary SQLite database with migrations applied.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

// SeedCourt inserts an approved complex with one court and returns the court
// id. Most storage tests need exactly this much fixture.
func SeedCourt(t *testing.T, database *db.DB) int64 {
	t.Helper()

	ctx := context.Background()
	complex, err := database.Queries.CreateComplex(ctx, db.CreateComplexParams{
		Name:    "Complejo Central",
		Address: "Av. Siempre Viva 742",
	})
	if err != nil {
		t.Fatalf("seed complex: %v", err)
	}
	if _, err := database.Queries.ApproveComplex(ctx, complex.ID); err != nil {
		t.Fatalf("approve complex: %v", err)
	}

	court, err := database.Queries.CreateCourt(ctx, db.CreateCourtParams{
		ComplexID:      complex.ID,
		Name:           "Cancha 1",
		Surface:        "synthetic grass",
		PricePerHour:   "400",
		DepositPercent: 25,
		SlotMinutes:    60,
	})
	if err != nil {
		t.Fatalf("seed court: %v", err)
	}
	return court.ID
}
