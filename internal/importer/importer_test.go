package importer

import (
	"bytes"
	"context"
	"testing"
	"time"

	"assetrent-backend/internal/domain"
	"assetrent-backend/internal/logger"
	"assetrent-backend/internal/repository"
	"assetrent-backend/internal/repository/memory"
	"assetrent-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, sheets map[string][][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for name, rows := range sheets {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	require.NoError(t, f.DeleteSheet("Sheet1"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func newImporter(t *testing.T) (*Importer, *memory.Store) {
	t.Helper()
	log := logger.Nop()
	store := memory.NewStore()
	clock := service.FixedClock{At: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	approvals := service.NewApprovalService(store, service.NewIdentityAllocator("AST", log, nil), clock, log, nil)
	return New(approvals, store, log), store
}

func fullWorkbook(t *testing.T) *bytes.Buffer {
	return workbook(t, map[string][][]any{
		"Customers": {
			{"Name", "Email", "Phone", "Is Permanent"},
			{"Acme Ltd", "ops@acme.test", "555-0100", "Yes"},
			{},
			{"Beta LLP", "", "", "no"},
		},
		"Products": {
			{"Asset ID", "Type", "Brand", "Purchase Date", "Purchase Price", "Warranty"},
			{"AST/2023/007", "Laptop", "Dell", "2023-03-01", "52000", "yes"},
			{"", "Printer", "HP", "15/01/2024", "", "no"},
		},
		"Rentals": {
			{"Product", "Customer", "Start Date", "Amount", "Billing Day"},
			{"AST/2023/007", "acme ltd", "2024-01-20", "3000", "20"},
			{"AST/2099/999", "Acme Ltd", "2024-01-20", "3000", "20"},
		},
		"Repairs": {
			{"Asset", "Name", "Date", "Cost"},
			{"AST/2023/007", "Keyboard", "2024-02-10", "1200"},
		},
	})
}

func TestImporter_Privileged(t *testing.T) {
	im, store := newImporter(t)
	ctx := context.Background()

	report, err := im.Import(ctx, domain.PrivilegedActor("importer"), fullWorkbook(t))
	require.NoError(t, err)

	assert.Equal(t, 6, report.Live)
	assert.Equal(t, 0, report.Pending)
	assert.Equal(t, 1, report.Failed)

	var failedRow RowResult
	for _, r := range report.Rows {
		if r.Outcome == OutcomeFailed {
			failedRow = r
		}
	}
	assert.Equal(t, "Rentals", failedRow.Sheet)
	assert.Equal(t, 3, failedRow.Row)
	assert.Contains(t, failedRow.Error, "AST/2099/999")

	err = store.WithTx(ctx, func(tx repository.Tx) error {
		a, err := tx.Assets().GetByIdentifier(ctx, "AST/2023/007")
		require.NoError(t, err)
		assert.True(t, a.UnderWarranty)

		printer, err := tx.Assets().GetByIdentifier(ctx, "AST/2024/001")
		require.NoError(t, err)
		assert.Equal(t, "2024-01-15", printer.PurchaseDate.String())

		rentals, err := tx.Rentals().List(ctx)
		require.NoError(t, err)
		require.Len(t, rentals, 1)
		assert.Equal(t, a.ID, rentals[0].AssetRef)

		payments, err := tx.Payments().ListByRental(ctx, rentals[0].ID)
		require.NoError(t, err)
		assert.Len(t, payments, 1)
		return nil
	})
	require.NoError(t, err)
}

func TestImporter_StandardActorQueues(t *testing.T) {
	im, _ := newImporter(t)
	buf := workbook(t, map[string][][]any{
		"Customers": {
			{"Customer", "Is BNI Member"},
			{"Acme Ltd", "1"},
		},
		"Products": {
			{"Type", "Asset Number"},
			{"Laptop", "4"},
		},
	})

	report, err := im.Import(context.Background(), domain.StandardActor("clerk"), buf)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Live)
	assert.Equal(t, 2, report.Pending)
	for _, r := range report.Rows {
		assert.NotEmpty(t, r.Ref)
	}
}

func TestImporter_BadCells(t *testing.T) {
	im, _ := newImporter(t)
	buf := workbook(t, map[string][][]any{
		"Products": {
			{"Type", "Warranty", "Purchase Date", "Colour"},
			{"Laptop", "maybe", "", ""},
			{"Laptop", "", "yesterday", ""},
			{"Laptop", "", "", "red"},
		},
	})

	report, err := im.Import(context.Background(), domain.PrivilegedActor("importer"), buf)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Failed)
	assert.Contains(t, report.Rows[0].Error, "under_warranty")
	assert.Contains(t, report.Rows[1].Error, "purchase_date")
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "type_of_asset", canonical(domain.KindAsset, " Type "))
	assert.Equal(t, "model_no", canonical(domain.KindAsset, "Model"))
	assert.Equal(t, "asset", canonical(domain.KindRental, "Product"))
	assert.Equal(t, "product", canonical(domain.KindRepair, "Asset ID"))
	assert.Equal(t, "rental_end_date", canonical(domain.KindRental, "Rental End-Date"))
}
