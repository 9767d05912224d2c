package core

import "sort"

const (
	SortByDate   SortKey = "date"
	SortByAmount SortKey = "amount"
	SortByType   SortKey = "type"

	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

type (
	SortKey   string
	SortOrder string
)

// ParseSortKey maps a request parameter onto a sort key, defaulting to date.
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortByAmount:
		return SortByAmount
	case SortByType:
		return SortByType
	default:
		return SortByDate
	}
}

// ParseSortOrder maps a request parameter onto a sort order, defaulting to
// descending (newest / largest first).
func ParseSortOrder(s string) SortOrder {
	if SortOrder(s) == OrderAsc {
		return OrderAsc
	}
	return OrderDesc
}

// SortTransactions returns a sorted copy of txns. The sort is stable:
// elements with equal keys keep their relative order from the input, and the
// input slice itself is never reordered.
func SortTransactions(txns []Transaction, key SortKey, order SortOrder) []Transaction {
	out := append([]Transaction(nil), txns...)
	sort.SliceStable(out, func(i, j int) bool {
		c := compareTransactions(out[i], out[j], key)
		if order == OrderAsc {
			return c < 0
		}
		return c > 0
	})
	return out
}

func compareTransactions(a, b Transaction, key SortKey) int {
	switch key {
	case SortByAmount:
		switch {
		case a.Amount.Cents < b.Amount.Cents:
			return -1
		case a.Amount.Cents > b.Amount.Cents:
			return 1
		}
		return 0
	case SortByType:
		switch {
		case a.Type < b.Type:
			return -1
		case a.Type > b.Type:
			return 1
		}
		return 0
	default:
		switch {
		case a.Date.Before(b.Date):
			return -1
		case a.Date.After(b.Date):
			return 1
		}
		return 0
	}
}
