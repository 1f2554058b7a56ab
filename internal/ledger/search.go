package ledger

import (
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/erazemk/inventario/internal/model"
)

// collationTag is the locale used to order search results by name.
var collationTag = language.Spanish

// Search returns the items whose displayed attributes contain query, ignoring
// case, ordered by name. An empty query matches every item.
func (l *Ledger) Search(query string) []model.Item {
	needle := strings.ToLower(strings.TrimSpace(query))

	l.mu.RLock()
	matches := make([]model.Item, 0, len(l.items))
	for _, it := range l.items {
		if needle == "" || matchesItem(it, needle) {
			matches = append(matches, it)
		}
	}
	l.mu.RUnlock()

	SortByName(matches)
	return matches
}

// SortByName orders items by name using locale-aware collation.
// Items with equal names keep their relative order.
func SortByName(items []model.Item) {
	// Collators keep internal buffers and are not safe for concurrent use.
	c := collate.New(collationTag, collate.IgnoreCase)
	slices.SortStableFunc(items, func(a, b model.Item) int {
		return c.CompareString(a.Name, b.Name)
	})
}

func matchesItem(it model.Item, needle string) bool {
	fields := [...]string{
		it.Name,
		it.Description,
		it.DeviceType,
		strconv.Itoa(it.Quantity),
		it.SerialNumber,
		it.Location,
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
