package posimport

import (
	"io"

	"github.com/kitchenops/backend/internal/domain/inventory"
)

// Goods receipt export columns
const (
	ColQuantity    = "quantity"
	ColCostPerUnit = "cost_per_unit"
	ColReceived    = "received"
	ColExpires     = "expires"
	ColLotNumber   = "lot_number"
	ColSupplierID  = "supplier_id"
	ColLocationID  = "location_id"
)

// Receipt is one delivered batch
type Receipt struct {
	SKU        string
	LocationID string
	Info       inventory.BatchInfo
}

// ReadReceipts parses a goods receipt export, one batch per row. Invalid
// rows are skipped and reported in an *ImportError.
func ReadReceipts(r io.Reader, opts ...ParserOption) ([]Receipt, error) {
	rows, err := readRows(r, opts, ColSKU, ColQuantity)
	if err != nil {
		return nil, err
	}

	errs := NewErrorCollection(0)
	receipts := make([]Receipt, 0, len(rows))
	for _, row := range rows {
		if rec, ok := receipt(row, errs); ok {
			receipts = append(receipts, rec)
		}
	}
	if errs.HasErrors() {
		return receipts, &ImportError{Errors: errs}
	}
	return receipts, nil
}

func receipt(row *Row, errs *ErrorCollection) (Receipt, bool) {
	rec := Receipt{
		SKU:        row.Get(ColSKU),
		LocationID: row.Get(ColLocationID),
		Info: inventory.BatchInfo{
			SupplierID: row.Get(ColSupplierID),
			LotNumber:  row.Get(ColLotNumber),
		},
	}
	ok := true

	if rec.SKU == "" {
		errs.AddRequired(row.LineNumber, ColSKU)
		ok = false
	}
	qty, valid := parseDecimal(row, ColQuantity, errs, true)
	if !valid {
		ok = false
	} else if !qty.IsPositive() {
		errs.AddInvalid(row.LineNumber, ColQuantity, ErrCodeInvalidRange, "quantity must be positive", row.Get(ColQuantity))
		ok = false
	}
	rec.Info.Quantity = qty

	cost, valid := parseDecimal(row, ColCostPerUnit, errs, false)
	if !valid {
		ok = false
	} else if cost.IsNegative() {
		errs.AddInvalid(row.LineNumber, ColCostPerUnit, ErrCodeInvalidRange, "cost cannot be negative", row.Get(ColCostPerUnit))
		ok = false
	}
	rec.Info.CostPerUnit = cost

	received, err := parseDate(row.Get(ColReceived))
	if err != nil {
		errs.AddInvalid(row.LineNumber, ColReceived, ErrCodeInvalidDate, "expected YYYY-MM-DD or RFC 3339", row.Get(ColReceived))
		ok = false
	} else if received != nil {
		rec.Info.ReceivedDate = *received
	}

	expires, err := parseDate(row.Get(ColExpires))
	if err != nil {
		errs.AddInvalid(row.LineNumber, ColExpires, ErrCodeInvalidDate, "expected YYYY-MM-DD or RFC 3339", row.Get(ColExpires))
		ok = false
	}
	rec.Info.ExpirationDate = expires

	return rec, ok
}
