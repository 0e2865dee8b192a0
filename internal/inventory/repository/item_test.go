package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yaksok/yaksok-backend/internal/inventory/repository"
	"github.com/yaksok/yaksok-backend/pkg/database"
	"github.com/yaksok/yaksok-backend/pkg/errors"
	"github.com/yaksok/yaksok-backend/pkg/logger"
	"github.com/yaksok/yaksok-backend/pkg/testutil"
)

func itemColumns() []string {
	return []string{"item_id", "item_name", "category", "ea_per_box", "current_stock_ea", "created_at", "updated_at"}
}

func TestItemRepository_GetByID(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	db := database.NewFromSqlx(mockDB.DB, logger.New("test", "test"))
	repo := repository.NewItemRepository(db)

	now := time.Now()
	mockDB.ExpectQuery("SELECT * FROM items WHERE item_id = $1").
		WithArgs("MED-SYR-001").
		WillReturnRows(testutil.MockRows(itemColumns()...).
			AddRow("MED-SYR-001", "일회용 주사기 10ml", "소모품", 100, 250, now, now))

	item, err := repo.GetByID(context.Background(), "MED-SYR-001")
	require.NoError(t, err)
	assert.Equal(t, "MED-SYR-001", item.ItemID)
	assert.Equal(t, 100, item.EaPerBox)
	assert.Equal(t, 250, item.CurrentStockEa)

	mockDB.ExpectationsWereMet(t)
}

func TestItemRepository_GetByID_NotFound(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	db := database.NewFromSqlx(mockDB.DB, logger.New("test", "test"))
	repo := repository.NewItemRepository(db)

	mockDB.ExpectQuery("SELECT * FROM items WHERE item_id = $1").
		WithArgs("MED-NOPE-001").
		WillReturnRows(testutil.MockRows(itemColumns()...))

	_, err := repo.GetByID(context.Background(), "MED-NOPE-001")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	mockDB.ExpectationsWereMet(t)
}

func TestItemRepository_List_OrderedByName(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	db := database.NewFromSqlx(mockDB.DB, logger.New("test", "test"))
	repo := repository.NewItemRepository(db)

	now := time.Now()
	mockDB.ExpectQuery("SELECT * FROM items ORDER BY item_name ASC").
		WillReturnRows(testutil.MockRows(itemColumns()...).
			AddRow("MED-GAU-001", "멸균 거즈", "소모품", 50, 100, now, now).
			AddRow("MED-SYR-001", "일회용 주사기 10ml", "소모품", 100, 250, now, now))

	items, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "MED-GAU-001", items[0].ItemID)

	mockDB.ExpectationsWereMet(t)
}

func TestItemRepository_CurrentStock(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	db := database.NewFromSqlx(mockDB.DB, logger.New("test", "test"))
	repo := repository.NewItemRepository(db)

	mockDB.ExpectQuery("SELECT current_stock_ea FROM items WHERE item_id = $1").
		WithArgs("MED-SYR-001").
		WillReturnRows(testutil.MockRows("current_stock_ea").AddRow(42))

	stock, err := repo.CurrentStock(context.Background(), "MED-SYR-001")
	require.NoError(t, err)
	assert.Equal(t, 42, stock)

	mockDB.ExpectationsWereMet(t)
}
