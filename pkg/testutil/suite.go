package testutil

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/yaksok/yaksok-backend/pkg/database"
	"github.com/yaksok/yaksok-backend/pkg/logger"
)

var (
	// Global test container (shared across all integration tests)
	globalContainer *PostgresContainer
	globalDB        *sqlx.DB
	containerOnce   sync.Once
	containerErr    error
)

// IntegrationSuite provides a base for integration tests with real PostgreSQL
type IntegrationSuite struct {
	Container *PostgresContainer
	RawDB     *sqlx.DB
	DB        *database.DB
	Fixtures  *FixtureFactory
	Logger    *logger.Logger
}

// NewIntegrationSuite creates a new integration test suite with the inventory
// schema applied. Call this in TestMain to set up shared test infrastructure.
//
// Usage:
//
//	var suite *testutil.IntegrationSuite
//
//	func TestMain(m *testing.M) {
//	    ctx := context.Background()
//
//	    suite, err := testutil.NewIntegrationSuite(ctx)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer testutil.TerminateContainer(ctx)
//
//	    os.Exit(m.Run())
//	}
func NewIntegrationSuite(ctx context.Context) (*IntegrationSuite, error) {
	container, db, err := getOrCreateContainer(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.New("test", "test")
	wrappedDB, err := database.NewWithDSN(container.DSN, log)
	if err != nil {
		return nil, err
	}

	if err := ApplyMigrations(ctx, db, InventoryMigrations()); err != nil {
		return nil, err
	}

	return &IntegrationSuite{
		Container: container,
		RawDB:     db,
		DB:        wrappedDB,
		Fixtures:  NewFixtureFactory(),
		Logger:    log,
	}, nil
}

// getOrCreateContainer returns the shared test container
func getOrCreateContainer(ctx context.Context) (*PostgresContainer, *sqlx.DB, error) {
	containerOnce.Do(func() {
		globalContainer, containerErr = NewPostgresContainer(ctx, DefaultPostgresConfig())
		if containerErr != nil {
			return
		}
		globalDB, containerErr = globalContainer.Connect(ctx)
	})

	return globalContainer, globalDB, containerErr
}

// Reset empties the inventory tables. Call between tests that share the suite.
func (s *IntegrationSuite) Reset(t *testing.T, ctx context.Context) {
	t.Helper()
	if err := TruncateInventoryTables(ctx, s.RawDB); err != nil {
		t.Fatalf("failed to reset inventory tables: %v", err)
	}
}

// SeedItem inserts an item fixture and returns its ID
func (s *IntegrationSuite) SeedItem(t *testing.T, ctx context.Context, item ItemFixture) string {
	t.Helper()
	_, err := s.RawDB.ExecContext(ctx, `
		INSERT INTO items (item_id, item_name, category, ea_per_box, current_stock_ea)
		VALUES ($1, $2, $3, $4, $5)
	`, item.ItemID, item.ItemName, item.Category, item.EaPerBox, item.CurrentStockEa)
	if err != nil {
		t.Fatalf("failed to seed item %s: %v", item.ItemID, err)
	}
	return item.ItemID
}

// SeedBatch inserts a batch fixture and returns the assigned batch ID. The
// item's stock aggregate is incremented to stay consistent with the batch.
func (s *IntegrationSuite) SeedBatch(t *testing.T, ctx context.Context, batch BatchFixture) int64 {
	t.Helper()
	var batchID int64
	err := s.RawDB.QueryRowxContext(ctx, `
		INSERT INTO inventory_batches (item_id, expiry_date, in_date, current_batch_ea)
		VALUES ($1, $2, $3, $4)
		RETURNING batch_id
	`, batch.ItemID, batch.ExpiryDate, batch.InDate, batch.CurrentBatchEa).Scan(&batchID)
	if err != nil {
		t.Fatalf("failed to seed batch for %s: %v", batch.ItemID, err)
	}

	_, err = s.RawDB.ExecContext(ctx, `
		UPDATE items SET current_stock_ea = current_stock_ea + $2 WHERE item_id = $1
	`, batch.ItemID, batch.CurrentBatchEa)
	if err != nil {
		t.Fatalf("failed to update stock for %s: %v", batch.ItemID, err)
	}

	return batchID
}

// TerminateContainer terminates the shared container.
// Only call this in TestMain after all tests have completed.
func TerminateContainer(ctx context.Context) {
	if globalContainer != nil {
		globalContainer.Terminate(ctx)
	}
}

// UnitTestSuite provides a base for unit tests with mocked dependencies
type UnitTestSuite struct {
	MockDB   *MockDB
	Fixtures *FixtureFactory
	t        *testing.T
}

// NewUnitTestSuite creates a new unit test suite
func NewUnitTestSuite(t *testing.T) *UnitTestSuite {
	return &UnitTestSuite{
		MockDB:   NewMockDB(t),
		Fixtures: NewFixtureFactory(),
		t:        t,
	}
}

// Cleanup verifies expectations and cleans up
func (s *UnitTestSuite) Cleanup() {
	s.MockDB.ExpectationsWereMet(s.t)
	s.MockDB.Close()
}

// GetEnvOrDefault returns environment variable or default value
func GetEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// IsCI returns true if running in CI environment
func IsCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}
