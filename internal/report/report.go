// Package report derives summary statistics from a full read of the
// inventory collection. Everything here is a pure function over the item
// slice; nothing is cached and every report view recomputes from scratch.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"stocktrack/internal/inventory"
)

// Summary is the headline figures of the inventory
type Summary struct {
	TotalItems        int     `json:"total_items"`
	TotalQuantity     int     `json:"total_quantity"`
	TotalValue        float64 `json:"total_value"`
	LowStockItems     int     `json:"low_stock_items"`
	LowStockThreshold int     `json:"low_stock_threshold"`
}

// CategoryStat aggregates one category
type CategoryStat struct {
	Category   string  `json:"category"`
	Items      int     `json:"items"`
	Quantity   int     `json:"quantity"`
	TotalValue float64 `json:"total_value"`
}

// Summarize computes the headline figures. An item counts as low stock
// when its quantity is strictly below the threshold.
func Summarize(items []*inventory.Item, lowStockThreshold int) Summary {
	s := Summary{
		TotalItems:        len(items),
		LowStockThreshold: lowStockThreshold,
	}

	for _, item := range items {
		s.TotalQuantity += item.Quantity
		s.TotalValue += item.TotalValue()
		if item.Quantity < lowStockThreshold {
			s.LowStockItems++
		}
	}

	return s
}

// ByCategory groups items by category, sorted by category name
func ByCategory(items []*inventory.Item) []CategoryStat {
	byName := make(map[string]*CategoryStat)
	for _, item := range items {
		stat, ok := byName[item.Category]
		if !ok {
			stat = &CategoryStat{Category: item.Category}
			byName[item.Category] = stat
		}
		stat.Items++
		stat.Quantity += item.Quantity
		stat.TotalValue += item.TotalValue()
	}

	stats := make([]CategoryStat, 0, len(byName))
	for _, stat := range byName {
		stats = append(stats, *stat)
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Category < stats[j].Category
	})

	return stats
}

// LowStock returns the items whose quantity is strictly below the threshold
func LowStock(items []*inventory.Item, threshold int) []*inventory.Item {
	var low []*inventory.Item
	for _, item := range items {
		if item.Quantity < threshold {
			low = append(low, item)
		}
	}
	return low
}

// TopByValue returns up to n items ordered by total value, highest first.
// The input slice is not modified.
func TopByValue(items []*inventory.Item, n int) []*inventory.Item {
	if n <= 0 {
		return nil
	}

	sorted := make([]*inventory.Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalValue() > sorted[j].TotalValue()
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// RenderText formats the plain-text summary block offered on the reports page
func RenderText(s Summary, categories []CategoryStat, generatedAt time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "INVENTORY SUMMARY REPORT\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", generatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Total Items: %d\n", s.TotalItems)
	fmt.Fprintf(&b, "Total Quantity: %d\n", s.TotalQuantity)
	fmt.Fprintf(&b, "Total Value: $%.2f\n", s.TotalValue)
	fmt.Fprintf(&b, "Low Stock Items: %d\n\n", s.LowStockItems)
	fmt.Fprintf(&b, "Categories:\n")
	for _, c := range categories {
		fmt.Fprintf(&b, "  %-16s items=%d quantity=%d value=$%.2f\n", c.Category, c.Items, c.Quantity, c.TotalValue)
	}

	return b.String()
}
