package recipe

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func burgerTable(t *testing.T) *Table {
	t.Helper()
	table := NewTable()
	require.NoError(t, table.AddByName("Classic Burger",
		NewComponent("beef-patty", 1),
		NewComponent("burger-bun", 1),
		NewComponent("lettuce", 0.02),
	))
	require.NoError(t, table.AddBySKU("FRIES-L",
		NewComponent("potato", 0.4),
		NewComponent("frying-oil", 0.05),
	))
	require.NoError(t, table.AddBySKU("WATER-GLASS"))
	return table
}

func line(sku, name string, qty float64) Line {
	return Line{SKU: sku, Name: name, Qty: decimal.NewFromFloat(qty)}
}

func requirementMap(reqs []Requirement) map[string]string {
	m := make(map[string]string, len(reqs))
	for _, r := range reqs {
		m[r.SKU] = r.Qty.String()
	}
	return m
}

func TestTable(t *testing.T) {
	t.Run("rejects empty keys", func(t *testing.T) {
		table := NewTable()
		assert.Error(t, table.AddBySKU(""))
		assert.Error(t, table.AddByName("   "))
	})

	t.Run("rejects negative component quantity", func(t *testing.T) {
		table := NewTable()
		err := table.AddBySKU("X", NewComponent("flour", -1))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "negative quantity")
	})

	t.Run("rejects empty component SKU", func(t *testing.T) {
		table := NewTable()
		assert.Error(t, table.AddBySKU("X", NewComponent("", 1)))
	})

	t.Run("name lookup is case-insensitive and trimmed", func(t *testing.T) {
		table := burgerTable(t)
		_, ok := table.LookupName("  CLASSIC burger ")
		assert.True(t, ok)
		_, ok = table.LookupName("Classic Burgers")
		assert.False(t, ok)
		assert.Equal(t, 3, table.Len())
	})
}

func TestNormalizeAndSlugify(t *testing.T) {
	tests := []struct {
		in   string
		norm string
		slug string
	}{
		{"Classic Burger", "classic burger", "classic-burger"},
		{"  Iced   Latte!! ", "iced   latte!!", "iced-latte"},
		{"Crème Brûlée", "crème brûlée", "creme-brulee"},
		{"", "", ""},
		{"---", "---", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.norm, NormalizeName(tt.in))
			assert.Equal(t, tt.slug, Slugify(tt.in))
		})
	}
}

func TestResolver_ExplodeLine(t *testing.T) {
	resolver := NewResolver(burgerTable(t))

	t.Run("default chain order", func(t *testing.T) {
		assert.Equal(t, []string{"sku_recipe", "name_recipe", "direct_draw"}, resolver.Chain())
	})

	t.Run("scales name recipe by line quantity", func(t *testing.T) {
		reqs := resolver.ExplodeLine(line("", "classic burger", 2))
		assert.Equal(t, map[string]string{
			"beef-patty": "2",
			"burger-bun": "2",
			"lettuce":    "0.04",
		}, requirementMap(reqs))
	})

	t.Run("SKU match wins over name match", func(t *testing.T) {
		reqs := resolver.ExplodeLine(line("FRIES-L", "Classic Burger", 1))
		assert.Equal(t, map[string]string{
			"potato":     "0.4",
			"frying-oil": "0.05",
		}, requirementMap(reqs))
	})

	t.Run("unknown SKU falls through to name lookup", func(t *testing.T) {
		reqs := resolver.ExplodeLine(line("UNKNOWN", "Classic Burger", 1))
		assert.Len(t, reqs, 3)
	})

	t.Run("falls back to direct draw by SKU", func(t *testing.T) {
		reqs := resolver.ExplodeLine(line("soda-can", "Soda", 3))
		require.Len(t, reqs, 1)
		assert.Equal(t, "soda-can", reqs[0].SKU)
		assert.True(t, reqs[0].Qty.Equal(decimal.NewFromInt(3)))
	})

	t.Run("falls back to direct draw by slugified name", func(t *testing.T) {
		reqs := resolver.ExplodeLine(line("", "Sparkling Water", 2))
		require.Len(t, reqs, 1)
		assert.Equal(t, "sparkling-water", reqs[0].SKU)
	})

	t.Run("recipe with no components yields nothing", func(t *testing.T) {
		assert.Empty(t, resolver.ExplodeLine(line("WATER-GLASS", "", 5)))
	})

	t.Run("negative quantity is clamped to zero", func(t *testing.T) {
		reqs := resolver.ExplodeLine(line("", "Classic Burger", -2))
		for _, r := range reqs {
			assert.True(t, r.Qty.IsZero(), r.SKU)
		}
	})

	t.Run("line without SKU or name draws nothing", func(t *testing.T) {
		assert.Empty(t, resolver.ExplodeLine(line("", "  ", 1)))
	})

	t.Run("custom chain without fallback yields nothing for unknown items", func(t *testing.T) {
		strict := NewResolverWithChain(NewSKUStrategy(burgerTable(t)))
		assert.Empty(t, strict.ExplodeLine(line("", "Classic Burger", 1)))
	})
}

func TestResolver_ExplodeLines(t *testing.T) {
	resolver := NewResolver(burgerTable(t))

	t.Run("empty input yields empty output", func(t *testing.T) {
		assert.Empty(t, resolver.ExplodeLines(nil))
	})

	t.Run("aggregates duplicate components across lines", func(t *testing.T) {
		reqs := resolver.ExplodeLines([]Line{
			line("", "Classic Burger", 1),
			line("", "classic burger", 2),
			line("beef-patty", "Extra Patty", 1),
		})
		assert.Equal(t, map[string]string{
			"beef-patty": "4",
			"burger-bun": "3",
			"lettuce":    "0.06",
		}, requirementMap(reqs))
	})

	t.Run("output is unique by SKU and independent of input order", func(t *testing.T) {
		lines := []Line{
			line("FRIES-L", "", 2),
			line("", "Classic Burger", 1),
			line("potato", "", 1),
			line("", "Lemonade", 1),
		}
		reversed := make([]Line, len(lines))
		for i := range lines {
			reversed[len(lines)-1-i] = lines[i]
		}

		forward := resolver.ExplodeLines(lines)
		backward := resolver.ExplodeLines(reversed)
		assert.Equal(t, requirementMap(forward), requirementMap(backward))
		assert.Len(t, forward, len(requirementMap(forward)))
		assert.Equal(t, "1.8", requirementMap(forward)["potato"])
	})
}
