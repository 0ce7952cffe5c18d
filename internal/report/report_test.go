package report

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"stocktrack/internal/inventory"
)

func sampleItems() []*inventory.Item {
	return []*inventory.Item{
		{
			ID:       uuid.New(),
			Name:     "USB Cable",
			Category: "Electronics",
			Quantity: 5,
			Price:    2.00,
		},
		{
			ID:       uuid.New(),
			Name:     "Notebook",
			Category: "Books",
			Quantity: 20,
			Price:    1.50,
		},
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	s := Summarize(sampleItems(), 10)
	require.Equal(t, 2, s.TotalItems)
	require.Equal(t, 25, s.TotalQuantity)
	require.InDelta(t, 40.00, s.TotalValue, 0.001)
	require.Equal(t, 1, s.LowStockItems)
	require.Equal(t, 10, s.LowStockThreshold)
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()

	s := Summarize(nil, 10)
	require.Zero(t, s.TotalItems)
	require.Zero(t, s.TotalQuantity)
	require.Zero(t, s.TotalValue)
	require.Zero(t, s.LowStockItems)
}

func TestLowStock_StrictlyBelowThreshold(t *testing.T) {
	t.Parallel()

	items := []*inventory.Item{
		{Name: "at threshold", Quantity: 10},
		{Name: "below", Quantity: 9},
		{Name: "zero", Quantity: 0},
	}

	low := LowStock(items, 10)
	require.Len(t, low, 2)
	for _, item := range low {
		require.Less(t, item.Quantity, 10)
	}
}

func TestByCategory(t *testing.T) {
	t.Parallel()

	items := append(sampleItems(), &inventory.Item{
		Name:     "HDMI Cable",
		Category: "Electronics",
		Quantity: 3,
		Price:    4.00,
	})

	stats := ByCategory(items)
	require.Len(t, stats, 2)

	// Sorted by category name
	require.Equal(t, "Books", stats[0].Category)
	require.Equal(t, 1, stats[0].Items)
	require.Equal(t, 20, stats[0].Quantity)
	require.InDelta(t, 30.00, stats[0].TotalValue, 0.001)

	require.Equal(t, "Electronics", stats[1].Category)
	require.Equal(t, 2, stats[1].Items)
	require.Equal(t, 8, stats[1].Quantity)
	require.InDelta(t, 22.00, stats[1].TotalValue, 0.001)
}

func TestTopByValue(t *testing.T) {
	t.Parallel()

	items := []*inventory.Item{
		{Name: "cheap", Quantity: 1, Price: 1.00},
		{Name: "expensive", Quantity: 10, Price: 50.00},
		{Name: "middle", Quantity: 5, Price: 3.00},
	}

	top := TopByValue(items, 2)
	require.Len(t, top, 2)
	require.Equal(t, "expensive", top[0].Name)
	require.Equal(t, "middle", top[1].Name)

	// Input order is untouched
	require.Equal(t, "cheap", items[0].Name)

	require.Nil(t, TopByValue(items, 0))
	require.Len(t, TopByValue(items, 10), 3)
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	items := sampleItems()
	items[0].Supplier = "Acme, Inc."
	items[0].CreatedBy = "alice"
	items[0].CreatedAt = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, items))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	require.Equal(t, csvHeader, rows[0])
	require.Equal(t, "USB Cable", rows[1][1])
	require.Equal(t, "5", rows[1][3])
	require.Equal(t, "2.00", rows[1][4])
	require.Equal(t, "10.00", rows[1][5])
	// Comma in the supplier survives quoting
	require.Equal(t, "Acme, Inc.", rows[1][7])
	require.Equal(t, "alice", rows[1][8])
	require.Equal(t, "2026-08-01 12:00:00", rows[1][9])
}

func TestRenderText(t *testing.T) {
	t.Parallel()

	generatedAt := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)
	text := RenderText(Summarize(sampleItems(), 10), ByCategory(sampleItems()), generatedAt)

	require.Contains(t, text, "INVENTORY SUMMARY REPORT")
	require.Contains(t, text, "Generated: 2026-09-01 10:30:00")
	require.Contains(t, text, "Total Items: 2")
	require.Contains(t, text, "Total Quantity: 25")
	require.Contains(t, text, "Total Value: $40.00")
	require.Contains(t, text, "Low Stock Items: 1")
	require.Contains(t, text, "Books")
	require.Contains(t, text, "Electronics")
}
