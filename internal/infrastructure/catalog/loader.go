// Package catalog loads the static kitchen setup (recipes, items, opening
// stock and batches) from a TOML, YAML or JSON file.
package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/recipe"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// ComponentDTO is one ingredient of a recipe
type ComponentDTO struct {
	SKU string  `mapstructure:"sku" validate:"required"`
	Qty float64 `mapstructure:"qty" validate:"gte=0"`
}

// RecipeDTO maps a sellable SKU and/or display name to its components
type RecipeDTO struct {
	SKU        string         `mapstructure:"sku" validate:"required_without=Name"`
	Name       string         `mapstructure:"name" validate:"required_without=SKU"`
	Components []ComponentDTO `mapstructure:"components" validate:"required,min=1,dive"`
}

// ItemDTO is one catalog entry
type ItemDTO struct {
	SKU             string   `mapstructure:"sku" validate:"required"`
	Name            string   `mapstructure:"name"`
	Unit            string   `mapstructure:"unit"`
	ReorderPoint    *float64 `mapstructure:"reorder_point" validate:"omitempty,gte=0"`
	ReorderQuantity *float64 `mapstructure:"reorder_quantity" validate:"omitempty,gt=0"`
	LastOrderCost   *float64 `mapstructure:"last_order_cost" validate:"omitempty,gte=0"`
	StandardCost    *float64 `mapstructure:"standard_cost" validate:"omitempty,gte=0"`
	SupplierID      string   `mapstructure:"supplier_id"`
}

// StockDTO is an opening on-hand quantity
type StockDTO struct {
	SKU string  `mapstructure:"sku" validate:"required"`
	Qty float64 `mapstructure:"qty"`
}

// BatchDTO is an opening batch. Dates are quoted strings, either
// 2006-01-02 or RFC 3339.
type BatchDTO struct {
	SKU         string  `mapstructure:"sku" validate:"required"`
	Quantity    float64 `mapstructure:"quantity" validate:"gt=0"`
	CostPerUnit float64 `mapstructure:"cost_per_unit" validate:"gte=0"`
	Received    string  `mapstructure:"received"`
	Expires     string  `mapstructure:"expires"`
	LotNumber   string  `mapstructure:"lot_number"`
	SupplierID  string  `mapstructure:"supplier_id"`
	LocationID  string  `mapstructure:"location_id"`
}

// FileDTO is the whole catalog file
type FileDTO struct {
	Recipes []RecipeDTO `mapstructure:"recipes" validate:"dive"`
	Items   []ItemDTO   `mapstructure:"items" validate:"dive"`
	Stock   []StockDTO  `mapstructure:"stock" validate:"dive"`
	Batches []BatchDTO  `mapstructure:"batches" validate:"dive"`
}

// OpeningBatch is a batch to receive into the tracker on start-up
type OpeningBatch struct {
	SKU        string
	LocationID string
	Info       inventory.BatchInfo
}

// Catalog is the loaded, validated kitchen setup
type Catalog struct {
	Recipes      *recipe.Table
	Items        *inventory.StaticCatalog
	OpeningStock map[string]decimal.Decimal
	Batches      []OpeningBatch
}

// Loader reads catalog files
type Loader struct {
	validate *validator.Validate
}

// NewLoader creates a loader
func NewLoader() *Loader {
	v := validator.New(validator.WithRequiredStructEnabled())
	return &Loader{validate: v}
}

// LoadFile reads and converts the catalog at path. The format follows the
// file extension.
func (l *Loader) LoadFile(path string) (*Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}
	return l.load(v)
}

// Load reads a catalog of the given format ("toml", "yaml", "json") from raw text
func (l *Loader) Load(format, content string) (*Catalog, error) {
	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(strings.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return l.load(v)
}

func (l *Loader) load(v *viper.Viper) (*Catalog, error) {
	var file FileDTO
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if err := l.validate.Struct(&file); err != nil {
		return nil, fmt.Errorf("invalid catalog: %s", describe(err))
	}
	return convert(&file)
}

func convert(file *FileDTO) (*Catalog, error) {
	c := &Catalog{
		Recipes:      recipe.NewTable(),
		Items:        inventory.NewStaticCatalog(),
		OpeningStock: make(map[string]decimal.Decimal, len(file.Stock)),
	}

	for i, r := range file.Recipes {
		components := make([]recipe.Component, len(r.Components))
		for j, comp := range r.Components {
			components[j] = recipe.NewComponent(comp.SKU, comp.Qty)
		}
		if r.SKU != "" {
			if err := c.Recipes.AddBySKU(r.SKU, components...); err != nil {
				return nil, fmt.Errorf("recipes[%d]: %w", i, err)
			}
		}
		if r.Name != "" {
			if err := c.Recipes.AddByName(r.Name, components...); err != nil {
				return nil, fmt.Errorf("recipes[%d]: %w", i, err)
			}
		}
	}

	for _, it := range file.Items {
		c.Items.Put(inventory.CatalogItem{
			SKU:             it.SKU,
			Name:            it.Name,
			Unit:            it.Unit,
			ReorderPoint:    optionalDecimal(it.ReorderPoint),
			ReorderQuantity: optionalDecimal(it.ReorderQuantity),
			LastOrderCost:   optionalDecimal(it.LastOrderCost),
			StandardCost:    optionalDecimal(it.StandardCost),
			SupplierID:      it.SupplierID,
		})
	}

	for _, s := range file.Stock {
		c.OpeningStock[s.SKU] = c.OpeningStock[s.SKU].Add(decimal.NewFromFloat(s.Qty))
	}

	for i, b := range file.Batches {
		received, err := parseDate(b.Received)
		if err != nil {
			return nil, fmt.Errorf("batches[%d].received: %w", i, err)
		}
		expires, err := parseDate(b.Expires)
		if err != nil {
			return nil, fmt.Errorf("batches[%d].expires: %w", i, err)
		}
		info := inventory.BatchInfo{
			Quantity:    decimal.NewFromFloat(b.Quantity),
			CostPerUnit: decimal.NewFromFloat(b.CostPerUnit),
			SupplierID:  b.SupplierID,
			LotNumber:   b.LotNumber,
		}
		if received != nil {
			info.ReceivedDate = *received
		}
		info.ExpirationDate = expires
		c.Batches = append(c.Batches, OpeningBatch{SKU: b.SKU, LocationID: b.LocationID, Info: info})
	}

	return c, nil
}

func optionalDecimal(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	return inventory.DecimalPtr(*v)
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date %q", s)
}

// describe flattens validator errors into one line
func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.TrimPrefix(e.Namespace(), "FileDTO.")
		if e.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", field, e.Tag(), e.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", field, e.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
