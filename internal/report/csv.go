package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"stocktrack/internal/inventory"
)

var csvHeader = []string{
	"id",
	"name",
	"category",
	"quantity",
	"price",
	"total_value",
	"description",
	"supplier",
	"created_by",
	"created_at",
}

// WriteCSV streams the full inventory as CSV, one row per item
func WriteCSV(w io.Writer, items []*inventory.Item) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, item := range items {
		row := []string{
			item.ID.String(),
			item.Name,
			item.Category,
			strconv.Itoa(item.Quantity),
			strconv.FormatFloat(item.Price, 'f', 2, 64),
			strconv.FormatFloat(item.TotalValue(), 'f', 2, 64),
			item.Description,
			item.Supplier,
			item.CreatedBy,
			item.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
