package main

import (
	"context"
	"errors"
	"os"

	inventoryapp "github.com/kitchenops/backend/internal/application/inventory"
	"github.com/kitchenops/backend/internal/infrastructure/posimport"
	"go.uber.org/zap"
)

// importReceipts receives every valid row of a goods receipt export as a batch
func importReceipts(ctx context.Context, log *zap.Logger, batches *inventoryapp.BatchService, path string) {
	f, err := os.Open(path)
	if err != nil {
		log.Fatal("Failed to open receipts export", zap.String("path", path), zap.Error(err))
	}
	defer f.Close()

	receipts, err := posimport.ReadReceipts(f)
	if !logImportErrors(log, path, err) {
		return
	}

	received := 0
	for _, r := range receipts {
		if _, err := batches.ReceiveBatch(ctx, r.SKU, r.Info, r.LocationID); err != nil {
			log.Warn("Failed to receive batch", zap.String("sku", r.SKU), zap.Error(err))
			continue
		}
		received++
	}
	log.Info("Receipts imported", zap.String("path", path), zap.Int("batches", received))
}

// importSales applies every valid sale of a point of sale export in order
func importSales(ctx context.Context, log *zap.Logger, sales *inventoryapp.SaleService, path string) {
	f, err := os.Open(path)
	if err != nil {
		log.Fatal("Failed to open sales export", zap.String("path", path), zap.Error(err))
	}
	defer f.Close()

	parsed, err := posimport.ReadSales(f)
	if !logImportErrors(log, path, err) {
		return
	}

	applied, blocked := 0, 0
	for _, sale := range parsed {
		if _, err := sales.ApplySale(ctx, sale); err != nil {
			blocked++
			continue
		}
		applied++
	}
	log.Info("Sales imported", zap.String("path", path), zap.Int("applied", applied), zap.Int("blocked", blocked))
}

// logImportErrors reports row errors and returns whether the valid rows
// should still be applied
func logImportErrors(log *zap.Logger, path string, err error) bool {
	if err == nil {
		return true
	}
	var importErr *posimport.ImportError
	if errors.As(err, &importErr) {
		for _, rowErr := range importErr.Errors.Errors() {
			log.Warn("Skipping invalid row", zap.String("path", path), zap.Int("row", rowErr.Row),
				zap.String("column", rowErr.Column), zap.String("code", rowErr.Code), zap.String("message", rowErr.Message))
		}
		return true
	}
	log.Error("Failed to read export", zap.String("path", path), zap.Error(err))
	return false
}
