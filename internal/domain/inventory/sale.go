package inventory

import (
	"github.com/kitchenops/backend/internal/domain/recipe"
	"github.com/shopspring/decimal"
)

// SaleLine is one sold item of a sale. SKU is optional; Name is what the
// point of sale displayed.
type SaleLine struct {
	SKU   string          `json:"sku,omitempty"`
	Name  string          `json:"name"`
	Qty   decimal.Decimal `json:"qty"`
	Price decimal.Decimal `json:"price"`
}

// RecipeLine returns the view of the line the recipe resolver works on
func (l SaleLine) RecipeLine() recipe.Line {
	return recipe.Line{SKU: l.SKU, Name: l.Name, Qty: l.Qty}
}

// Sale is the payload handed over by the point of sale
type Sale struct {
	ID    string     `json:"id,omitempty"`
	Lines []SaleLine `json:"lines"`
}

// RecipeLines returns the recipe view of every line
func (s Sale) RecipeLines() []recipe.Line {
	lines := make([]recipe.Line, len(s.Lines))
	for i, l := range s.Lines {
		lines[i] = l.RecipeLine()
	}
	return lines
}
