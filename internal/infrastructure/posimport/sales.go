// Package posimport reads point of sale and goods receipt CSV exports.
package posimport

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// Sales export columns. Either sku or name must be present on every row.
const (
	ColSaleID = "sale_id"
	ColSKU    = "sku"
	ColName   = "name"
	ColQty    = "qty"
	ColPrice  = "price"
)

// ReadSales groups the rows of a sales export into sales by sale_id, in
// the order each sale first appears. A sale with any invalid row is left
// out and the problems are reported in an *ImportError.
func ReadSales(r io.Reader, opts ...ParserOption) ([]inventory.Sale, error) {
	rows, err := readRows(r, opts, ColSaleID, ColQty)
	if err != nil {
		return nil, err
	}

	errs := NewErrorCollection(0)
	var order []string
	sales := make(map[string]*inventory.Sale)
	rejected := make(map[string]bool)

	for _, row := range rows {
		id := row.Get(ColSaleID)
		if id == "" {
			errs.AddRequired(row.LineNumber, ColSaleID)
			continue
		}
		if _, seen := sales[id]; !seen {
			order = append(order, id)
			sales[id] = &inventory.Sale{ID: id}
		}

		line, ok := saleLine(row, errs)
		if !ok {
			rejected[id] = true
			continue
		}
		sales[id].Lines = append(sales[id].Lines, line)
	}

	result := make([]inventory.Sale, 0, len(order))
	for _, id := range order {
		if rejected[id] {
			continue
		}
		result = append(result, *sales[id])
	}
	if errs.HasErrors() {
		return result, &ImportError{Errors: errs}
	}
	return result, nil
}

func saleLine(row *Row, errs *ErrorCollection) (inventory.SaleLine, bool) {
	line := inventory.SaleLine{SKU: row.Get(ColSKU), Name: row.Get(ColName)}
	ok := true

	if line.SKU == "" && line.Name == "" {
		errs.AddRequired(row.LineNumber, ColSKU)
		ok = false
	}
	qty, valid := parseDecimal(row, ColQty, errs, true)
	if !valid {
		ok = false
	} else if qty.IsNegative() {
		errs.AddInvalid(row.LineNumber, ColQty, ErrCodeInvalidRange, "quantity cannot be negative", row.Get(ColQty))
		ok = false
	}
	line.Qty = qty

	price, valid := parseDecimal(row, ColPrice, errs, false)
	if !valid {
		ok = false
	}
	line.Price = price
	return line, ok
}

func readRows(r io.Reader, opts []ParserOption, required ...string) ([]*Row, error) {
	parser, err := NewParser(r, opts...)
	if err != nil {
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, err
	}
	if missing := parser.Missing(required...); len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	rows, err := parser.ReadAllRows()
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func parseDecimal(row *Row, column string, errs *ErrorCollection, required bool) (decimal.Decimal, bool) {
	raw := row.Get(column)
	if raw == "" {
		if required {
			errs.AddRequired(row.LineNumber, column)
			return decimal.Zero, false
		}
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		errs.AddInvalid(row.LineNumber, column, ErrCodeInvalidNumber, "expected a number", raw)
		return decimal.Zero, false
	}
	return d, true
}

var errBadDate = errors.New("unrecognized date")

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, errBadDate
}
