package posimport

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSales(t *testing.T) {
	export := `sale_id,sku,name,qty,price
S-1,BURGER-CLASSIC,Classic Burger,2,9.50
S-2,,Fries,1,3
S-1,,Cola,1,2.25
`
	sales, err := ReadSales(strings.NewReader(export))
	require.NoError(t, err)
	require.Len(t, sales, 2)

	assert.Equal(t, "S-1", sales[0].ID)
	require.Len(t, sales[0].Lines, 2)
	assert.Equal(t, "BURGER-CLASSIC", sales[0].Lines[0].SKU)
	assert.True(t, sales[0].Lines[0].Qty.Equal(decimal.NewFromInt(2)))
	assert.True(t, sales[0].Lines[0].Price.Equal(decimal.RequireFromString("9.50")))
	assert.Equal(t, "Cola", sales[0].Lines[1].Name)

	assert.Equal(t, "S-2", sales[1].ID)
	assert.Equal(t, "Fries", sales[1].Lines[0].Name)
}

func TestReadSales_RowErrors(t *testing.T) {
	export := `sale_id,sku,name,qty
S-1,BUN,,1
S-2,BUN,,many
S-2,PATTY,,1
,BUN,,1
S-3,,,1
S-4,BUN,,-1
`
	sales, err := ReadSales(strings.NewReader(export))
	require.Error(t, err)

	var importErr *ImportError
	require.True(t, errors.As(err, &importErr))
	assert.Equal(t, 4, importErr.Errors.TotalCount())

	codes := make([]string, 0)
	for _, e := range importErr.Errors.Errors() {
		codes = append(codes, e.Code)
	}
	assert.Equal(t, []string{ErrCodeInvalidNumber, ErrCodeRequiredField, ErrCodeRequiredField, ErrCodeInvalidRange}, codes)

	require.Len(t, sales, 1, "sales with a bad row are dropped whole")
	assert.Equal(t, "S-1", sales[0].ID)
}

func TestReadSales_MultibyteNameAtBlockBoundary(t *testing.T) {
	prefix := "sale_id,sku,name,qty\nS-1,,"
	name := strings.Repeat("x", 4095-len(prefix)) + "é"
	export := prefix + name + ",1\nS-2,,Crème brûlée,2\n"

	sales, err := ReadSales(strings.NewReader(export))
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, name, sales[0].Lines[0].Name)
	assert.Equal(t, "Crème brûlée", sales[1].Lines[0].Name)
}

func TestReadSales_InvalidEncodingAfterFirstBlock(t *testing.T) {
	export := "sale_id,sku,qty\n" + strings.Repeat("S-1,BUN,1\n", 500) + "S-2,\xffBUN,1\n"

	sales, err := ReadSales(strings.NewReader(export))
	assert.Nil(t, sales)
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestReadSales_MissingColumns(t *testing.T) {
	_, err := ReadSales(strings.NewReader("sku,name\nBUN,Bun\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sale_id, qty")
}

func TestReadReceipts(t *testing.T) {
	export := `sku,quantity,cost_per_unit,received,expires,lot_number,supplier_id,location_id
MILK,12,0.89,2025-03-01,2025-03-08T00:00:00Z,L-9,SUP-2,WALK-IN
FLOUR,25,,,,,,
`
	receipts, err := ReadReceipts(strings.NewReader(export))
	require.NoError(t, err)
	require.Len(t, receipts, 2)

	milk := receipts[0]
	assert.Equal(t, "MILK", milk.SKU)
	assert.Equal(t, "WALK-IN", milk.LocationID)
	assert.Equal(t, "L-9", milk.Info.LotNumber)
	assert.Equal(t, "SUP-2", milk.Info.SupplierID)
	assert.True(t, milk.Info.Quantity.Equal(decimal.NewFromInt(12)))
	assert.True(t, milk.Info.CostPerUnit.Equal(decimal.RequireFromString("0.89")))
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), milk.Info.ReceivedDate)
	require.NotNil(t, milk.Info.ExpirationDate)
	assert.Equal(t, time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC), *milk.Info.ExpirationDate)

	flour := receipts[1]
	assert.True(t, flour.Info.ReceivedDate.IsZero())
	assert.Nil(t, flour.Info.ExpirationDate)
	assert.True(t, flour.Info.CostPerUnit.IsZero())
}

func TestReadReceipts_RowErrors(t *testing.T) {
	export := `sku,quantity,cost_per_unit,expires
MILK,0,,
EGGS,6,-1,
CREAM,2,,soon
BUTTER,4,2.5,2025-04-01
`
	receipts, err := ReadReceipts(strings.NewReader(export))
	require.Error(t, err)

	var importErr *ImportError
	require.True(t, errors.As(err, &importErr))
	assert.Equal(t, 3, importErr.Errors.TotalCount())
	assert.Contains(t, err.Error(), "column 'expires'")

	require.Len(t, receipts, 1)
	assert.Equal(t, "BUTTER", receipts[0].SKU)
}
