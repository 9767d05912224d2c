package core

import (
	"sort"
	"time"
)

// DayKeyFormat is the canonical bucket key for a single calendar day.
const DayKeyFormat = "2006-01-02"

// MonthKeyFormat is the canonical bucket key for a calendar month.
const MonthKeyFormat = "2006-01"

type (
	// Summary holds the running totals derived from the full transaction list.
	Summary struct {
		Capital     Money
		TotalProfit Money
		DailySales  Money
	}

	// DailySales is one day of the fixed seven-day sales series.
	DailySales struct {
		Date       string // YYYY-MM-DD, UTC
		TotalSales Money
	}

	// SalesBucket is a date-truncated grouping of sale amounts.
	SalesBucket struct {
		Key        string
		TotalSales Money
	}
)

// Summarize reduces the transaction list into capital, total profit, and
// today's sales in a single pass. Sales add to capital and profit, purchases
// subtract from both, investments add to capital only.
//
// "Today" is the process-local calendar day, intentionally unlike the
// UTC-normalized bucketing below: a sale near a UTC day boundary may count
// in today's sales while landing in a neighboring daily bucket.
func Summarize(txns []Transaction, now time.Time) Summary {
	var s Summary
	ty, tm, td := now.Date()
	for _, t := range txns {
		switch t.Type {
		case Sale:
			s.Capital.Cents += t.Amount.Cents
			s.TotalProfit.Cents += t.Amount.Cents
			y, m, d := t.Date.In(now.Location()).Date()
			if y == ty && m == tm && d == td {
				s.DailySales.Cents += t.Amount.Cents
			}
		case Purchase:
			s.Capital.Cents -= t.Amount.Cents
			s.TotalProfit.Cents -= t.Amount.Cents
		case Investment:
			s.Capital.Cents += t.Amount.Cents
		}
	}
	return s
}

// LastSevenDays returns exactly seven consecutive UTC calendar days ending
// today, oldest first. Days without sales stay at zero; sales outside the
// window are ignored.
func LastSevenDays(txns []Transaction, now time.Time) []DailySales {
	today := utcMidnight(now)

	series := make([]DailySales, 7)
	index := make(map[string]int, 7)
	for i := range series {
		key := today.AddDate(0, 0, i-6).Format(DayKeyFormat)
		series[i] = DailySales{Date: key}
		index[key] = i
	}

	for _, t := range txns {
		if t.Type != Sale {
			continue
		}
		if i, ok := index[t.Date.UTC().Format(DayKeyFormat)]; ok {
			series[i].TotalSales.Cents += t.Amount.Cents
		}
	}
	return series
}

// GroupSalesByDay sums sale amounts per UTC calendar day.
func GroupSalesByDay(txns []Transaction) []SalesBucket {
	return groupSales(txns, func(d time.Time) string {
		return d.UTC().Format(DayKeyFormat)
	})
}

// GroupSalesByWeek sums sale amounts per Sunday-aligned week, keyed by the
// week's start date.
func GroupSalesByWeek(txns []Transaction) []SalesBucket {
	return groupSales(txns, func(d time.Time) string {
		return StartOfWeek(d).Format(DayKeyFormat)
	})
}

// GroupSalesByMonth sums sale amounts per calendar month.
func GroupSalesByMonth(txns []Transaction) []SalesBucket {
	return groupSales(txns, func(d time.Time) string {
		return d.UTC().Format(MonthKeyFormat)
	})
}

// groupSales buckets sale transactions by key, newest bucket first.
// Buckets with no sales are simply absent, unlike LastSevenDays which
// zero-fills its fixed window.
func groupSales(txns []Transaction, key func(time.Time) string) []SalesBucket {
	sums := make(map[string]int64)
	for _, t := range txns {
		if t.Type != Sale {
			continue
		}
		sums[key(t.Date)] += t.Amount.Cents
	}

	buckets := make([]SalesBucket, 0, len(sums))
	for k, cents := range sums {
		buckets = append(buckets, SalesBucket{Key: k, TotalSales: Money{Cents: cents}})
	}
	// Keys are zero-padded ISO dates, so lexicographic order is date order.
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Key > buckets[j].Key })
	return buckets
}

// StartOfWeek returns the Sunday that starts the week containing d. The
// input is normalized to UTC midnight before the weekday is taken, so the
// week boundary never drifts with the local timezone.
func StartOfWeek(d time.Time) time.Time {
	day := utcMidnight(d)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

func utcMidnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
