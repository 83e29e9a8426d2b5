package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/nhatro/backend/internal/domain/billing"
	"github.com/nhatro/backend/internal/domain/shared"
)

// newMockBillRepository creates a GormBillRepository with a mocked SQL connection
func newMockBillRepository(t *testing.T) (*GormBillRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormBillRepository(gormDB), mock, mockDB
}

func billRows(billID uuid.UUID, billNumber string, status billing.BillStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "version", "bill_number", "bill_type", "status", "room_id",
		"amount_due", "amount_paid", "line_items", "payments", "billing_date", "pending_cash",
	}).AddRow(
		billID, 1, billNumber, billing.BillTypeMonthly, status, uuid.New(),
		decimal.NewFromInt(1000000), decimal.Zero, []byte("[]"), []byte("[]"), time.Now(), decimal.Zero,
	)
}

func TestGormBillRepository_FindByID(t *testing.T) {
	t.Run("finds existing bill", func(t *testing.T) {
		repo, mock, mockDB := newMockBillRepository(t)
		defer mockDB.Close()

		billID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "bills" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(billID, 1).
			WillReturnRows(billRows(billID, "HD-202601-0001", billing.BillStatusUnpaid))

		bill, err := repo.FindByID(context.Background(), billID)

		assert.NoError(t, err)
		require.NotNil(t, bill)
		assert.Equal(t, billID, bill.ID)
		assert.Equal(t, "HD-202601-0001", bill.BillNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing bill is nil without error", func(t *testing.T) {
		repo, mock, mockDB := newMockBillRepository(t)
		defer mockDB.Close()

		billID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "bills" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(billID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		bill, err := repo.FindByID(context.Background(), billID)

		assert.NoError(t, err)
		assert.Nil(t, bill)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormBillRepository_FindByNumber(t *testing.T) {
	repo, mock, mockDB := newMockBillRepository(t)
	defer mockDB.Close()

	billID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "bills" WHERE bill_number = \$1 ORDER BY .* LIMIT .*`).
		WithArgs("HD-202601-0001", 1).
		WillReturnRows(billRows(billID, "HD-202601-0001", billing.BillStatusUnpaid))

	bill, err := repo.FindByNumber(context.Background(), "HD-202601-0001")

	assert.NoError(t, err)
	require.NotNil(t, bill)
	assert.Equal(t, billID, bill.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormBillRepository_FindMonthlyByPeriod(t *testing.T) {
	repo, mock, mockDB := newMockBillRepository(t)
	defer mockDB.Close()

	contractID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "bills" WHERE contract_id = \$1 AND bill_type = \$2 AND period = \$3 AND status <> \$4 ORDER BY created_at DESC,.* LIMIT .*`).
		WithArgs(contractID, string(billing.BillTypeMonthly), "2026-01", string(billing.BillStatusVoid), 1).
		WillReturnRows(billRows(uuid.New(), "HD-202601-0003", billing.BillStatusDraft))

	bill, err := repo.FindMonthlyByPeriod(context.Background(), contractID, "2026-01")

	assert.NoError(t, err)
	require.NotNil(t, bill)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormBillRepository_SaveWithLock(t *testing.T) {
	t.Run("updates row at expected version", func(t *testing.T) {
		repo, mock, mockDB := newMockBillRepository(t)
		defer mockDB.Close()

		bill, err := billing.NewBill(billing.BillTypeMonthly, uuid.New(), nil, "HD-202601-0001", "2026-01", time.Now())
		require.NoError(t, err)
		bill.Version = 2 // one mutation applied in memory

		mock.ExpectExec(`UPDATE "bills" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.SaveWithLock(context.Background(), bill))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports conflict when the row changed underneath", func(t *testing.T) {
		repo, mock, mockDB := newMockBillRepository(t)
		defer mockDB.Close()

		bill, err := billing.NewBill(billing.BillTypeMonthly, uuid.New(), nil, "HD-202601-0002", "2026-01", time.Now())
		require.NoError(t, err)
		bill.Version = 2

		mock.ExpectExec(`UPDATE "bills" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = repo.SaveWithLock(context.Background(), bill)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormBillRepository_DeleteDraft(t *testing.T) {
	t.Run("deletes a draft bill", func(t *testing.T) {
		repo, mock, mockDB := newMockBillRepository(t)
		defer mockDB.Close()

		billID := uuid.New()
		mock.ExpectExec(`DELETE FROM "bills" WHERE id = \$1 AND status = \$2`).
			WithArgs(billID, string(billing.BillStatusDraft)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.DeleteDraft(context.Background(), billID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("published bills are not deletable", func(t *testing.T) {
		repo, mock, mockDB := newMockBillRepository(t)
		defer mockDB.Close()

		billID := uuid.New()
		mock.ExpectExec(`DELETE FROM "bills" WHERE id = \$1 AND status = \$2`).
			WithArgs(billID, string(billing.BillStatusDraft)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.DeleteDraft(context.Background(), billID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormBillRepository_GenerateBillNumber(t *testing.T) {
	t.Run("starts at 0001 for an empty month", func(t *testing.T) {
		repo, mock, mockDB := newMockBillRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT "bill_number" FROM "bills" WHERE bill_number LIKE \$1 ORDER BY bill_number DESC LIMIT .*`).
			WillReturnRows(sqlmock.NewRows([]string{"bill_number"}))

		number, err := repo.GenerateBillNumber(context.Background(), billing.BillTypeMonthly)

		assert.NoError(t, err)
		prefix := "HD-" + time.Now().Format("200601") + "-"
		assert.Equal(t, prefix+"0001", number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("increments the highest existing number", func(t *testing.T) {
		repo, mock, mockDB := newMockBillRepository(t)
		defer mockDB.Close()

		prefix := "PT-" + time.Now().Format("200601") + "-"
		mock.ExpectQuery(`SELECT "bill_number" FROM "bills" WHERE bill_number LIKE \$1 ORDER BY bill_number DESC LIMIT .*`).
			WillReturnRows(sqlmock.NewRows([]string{"bill_number"}).AddRow(prefix + "0041"))

		number, err := repo.GenerateBillNumber(context.Background(), billing.BillTypeReceipt)

		assert.NoError(t, err)
		assert.Equal(t, prefix+"0042", number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects an unknown bill type", func(t *testing.T) {
		repo, _, mockDB := newMockBillRepository(t)
		defer mockDB.Close()

		_, err := repo.GenerateBillNumber(context.Background(), billing.BillType("WEEKLY"))
		assert.Error(t, err)
	})
}
