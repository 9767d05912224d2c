package http

import (
	"fmt"
	"time"

	"capitale/internal/core"
)

// View models passed to the templates. Amounts and dates arrive
// pre-formatted so the templates stay logic-free.
type (
	summaryView struct {
		Capital     string
		TotalProfit string
		DailySales  string
		CapitalDown bool
		ProfitDown  bool
	}

	transactionView struct {
		ID        string
		Type      string
		Sign      string
		Amount    string
		AmountRaw string // plain decimal for the edit form input
		Date      string
		Day       string // YYYY-MM-DD for the edit form date input
		Remark    string
		Selected  bool
	}

	listView struct {
		Transactions  []transactionView
		SortKey       string
		SortOrder     string
		SelectedCount int
		AllSelected   bool
		Total         int
	}

	chartBar struct {
		Label  string
		Amount string
		Width  int // percent of the tallest bar
	}

	bucketView struct {
		Key    string
		Amount string
	}

	analyticsView struct {
		Bars    []chartBar
		Daily   []bucketView
		Weekly  []bucketView
		Monthly []bucketView
	}

	confirmView struct {
		Message string
		IDs     []string
		Bulk    bool
	}
)

func buildSummaryView(txns []core.Transaction, now time.Time) summaryView {
	s := core.Summarize(txns, now)
	return summaryView{
		Capital:     formatAmount(s.Capital.Cents),
		TotalProfit: formatAmount(s.TotalProfit.Cents),
		DailySales:  formatAmount(s.DailySales.Cents),
		CapitalDown: s.Capital.Cents < 0,
		ProfitDown:  s.TotalProfit.Cents < 0,
	}
}

func (s *Server) buildListView(key core.SortKey, order core.SortOrder) listView {
	txns := s.ledger.Transactions()
	sorted := core.SortTransactions(txns, key, order)

	view := listView{
		SortKey:       string(key),
		SortOrder:     string(order),
		SelectedCount: s.ledger.SelectionCount(),
		Total:         len(sorted),
	}
	view.AllSelected = view.Total > 0 && view.SelectedCount == view.Total

	for _, t := range sorted {
		view.Transactions = append(view.Transactions, transactionView{
			ID:        t.ID,
			Type:      string(t.Type),
			Sign:      amountSign(t.Type),
			Amount:    formatAmount(t.Amount.Cents),
			AmountRaw: fmt.Sprintf("%d.%02d", t.Amount.Cents/100, t.Amount.Cents%100),
			Date:      formatDateTime(t.Date),
			Day:       t.Date.Format(core.DayKeyFormat),
			Remark:    t.Remark,
			Selected:  s.ledger.IsSelected(t.ID),
		})
	}
	return view
}

func buildAnalyticsView(txns []core.Transaction, now time.Time) analyticsView {
	series := core.LastSevenDays(txns, now)

	var maxCents int64
	for _, d := range series {
		if d.TotalSales.Cents > maxCents {
			maxCents = d.TotalSales.Cents
		}
	}

	view := analyticsView{
		Daily:   bucketViews(core.GroupSalesByDay(txns)),
		Weekly:  bucketViews(core.GroupSalesByWeek(txns)),
		Monthly: bucketViews(core.GroupSalesByMonth(txns)),
	}
	for _, d := range series {
		view.Bars = append(view.Bars, chartBar{
			Label:  formatDayLabel(d.Date),
			Amount: formatAmount(d.TotalSales.Cents),
			Width:  barWidth(d.TotalSales.Cents, maxCents),
		})
	}
	return view
}

func bucketViews(buckets []core.SalesBucket) []bucketView {
	out := make([]bucketView, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, bucketView{Key: b.Key, Amount: formatAmount(b.TotalSales.Cents)})
	}
	return out
}

// barWidth scales cents to a rounded percent of the tallest bar, keeping
// tiny non-zero bars visible.
func barWidth(cents, maxCents int64) int {
	if maxCents <= 0 || cents <= 0 {
		return 0
	}
	width := int((cents*100 + maxCents/2) / maxCents)
	if width < 2 {
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}

func amountSign(t core.TransactionType) string {
	if t == core.Purchase {
		return "-"
	}
	return "+"
}
