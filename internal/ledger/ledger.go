// Package ledger holds the application state: the ordered transaction
// snapshot, the bulk-selection set, and the mutation operations over both.
// Every mutation writes through to the repository immediately; aggregation
// stays in core and reads the snapshot.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"capitale/internal/core"
	applog "capitale/internal/log"
)

// Repository is the persistence contract the ledger writes through to.
type Repository interface {
	Load(ctx context.Context) ([]core.Transaction, error)
	Insert(ctx context.Context, t core.Transaction) error
	Update(ctx context.Context, t core.Transaction) error
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) error
}

type Ledger struct {
	mu       sync.Mutex
	repo     Repository
	log      *applog.Logger
	txns     []core.Transaction
	selected map[string]struct{}

	// now is swappable for tests.
	now func() time.Time
}

func New(repo Repository, logger *applog.Logger) *Ledger {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Ledger{
		repo:     repo,
		log:      logger.WithComponent("ledger"),
		selected: make(map[string]struct{}),
		now:      time.Now,
	}
}

// Open loads the persisted transaction list once. A load failure degrades
// to an empty store rather than failing startup.
func (l *Ledger) Open(ctx context.Context) {
	txns, err := l.repo.Load(ctx)
	if err != nil {
		l.log.WarnContext(ctx, "Load failed, starting with empty store", "error", err)
		txns = nil
	}
	l.mu.Lock()
	l.txns = txns
	l.mu.Unlock()
	l.log.InfoContext(ctx, "Transaction store loaded", "count", len(txns))
}

// Add validates the input, mints a fresh id, combines the chosen calendar
// date with the current time of day, and prepends the record to the store.
func (l *Ledger) Add(ctx context.Context, typ core.TransactionType, amountStr, dateStr, remark string) (core.Transaction, error) {
	if !typ.Valid() {
		return core.Transaction{}, core.ErrInvalidType
	}
	cents, err := core.ParseDecimalToCents(amountStr)
	if err != nil {
		return core.Transaction{}, err
	}

	now := l.now()
	date, err := combineDate(dateStr, now, now)
	if err != nil {
		return core.Transaction{}, err
	}

	t := core.Transaction{
		ID:     uuid.NewString(),
		Type:   typ,
		Amount: core.Money{Cents: cents},
		Date:   date,
		Remark: remark,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	l.mu.Lock()
	l.txns = append([]core.Transaction{t}, l.txns...)
	l.mu.Unlock()

	if err := l.repo.Insert(ctx, t); err != nil {
		return t, fmt.Errorf("persist transaction: %w", err)
	}

	l.log.InfoContext(ctx, "Transaction added", "id", t.ID, "type", t.Type, "amount_cents", t.Amount.Cents)
	return t, nil
}

// Update replaces amount, remark, and the calendar-date portion of an
// existing transaction. Type and the original time of day are preserved.
// An unknown id is a silent no-op reported through found=false.
func (l *Ledger) Update(ctx context.Context, id, amountStr, dateStr, remark string) (core.Transaction, bool, error) {
	cents, err := core.ParseDecimalToCents(amountStr)
	if err != nil {
		return core.Transaction{}, false, err
	}

	l.mu.Lock()
	idx := l.indexOf(id)
	if idx < 0 {
		l.mu.Unlock()
		return core.Transaction{}, false, nil
	}

	orig := l.txns[idx]
	date, err := combineDate(dateStr, orig.Date, orig.Date)
	if err != nil {
		l.mu.Unlock()
		return core.Transaction{}, true, err
	}

	updated := orig
	updated.Amount = core.Money{Cents: cents}
	updated.Date = date
	updated.Remark = remark
	l.txns[idx] = updated
	l.mu.Unlock()

	if err := l.repo.Update(ctx, updated); err != nil {
		return updated, true, fmt.Errorf("persist update: %w", err)
	}

	l.log.InfoContext(ctx, "Transaction updated", "id", id, "amount_cents", cents)
	return updated, true, nil
}

// DeleteOne permanently removes a single transaction and clears the
// selection. An absent id is a no-op.
func (l *Ledger) DeleteOne(ctx context.Context, id string) (bool, error) {
	l.mu.Lock()
	idx := l.indexOf(id)
	if idx < 0 {
		l.mu.Unlock()
		return false, nil
	}
	l.txns = append(l.txns[:idx], l.txns[idx+1:]...)
	l.selected = make(map[string]struct{})
	l.mu.Unlock()

	if err := l.repo.Delete(ctx, id); err != nil {
		return true, fmt.Errorf("persist delete: %w", err)
	}

	l.log.InfoContext(ctx, "Transaction deleted", "id", id)
	return true, nil
}

// DeleteMany removes every listed id in one pass and clears the selection.
// Unmatched ids are silently ignored, which makes the operation idempotent.
func (l *Ledger) DeleteMany(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	l.mu.Lock()
	kept := l.txns[:0]
	removed := 0
	for _, t := range l.txns {
		if _, ok := drop[t.ID]; ok {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	l.txns = kept
	l.selected = make(map[string]struct{})
	l.mu.Unlock()

	if removed == 0 {
		return 0, nil
	}

	if err := l.repo.DeleteMany(ctx, ids); err != nil {
		return removed, fmt.Errorf("persist bulk delete: %w", err)
	}

	l.log.InfoContext(ctx, "Transactions deleted", "count", removed)
	return removed, nil
}

// ToggleSelection flips membership of id in the bulk-selection set.
func (l *Ledger) ToggleSelection(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.indexOf(id) < 0 {
		return
	}
	if _, ok := l.selected[id]; ok {
		delete(l.selected, id)
		return
	}
	l.selected[id] = struct{}{}
}

// ToggleSelectAll clears the selection when every transaction is already
// selected, and selects all current ids otherwise.
func (l *Ledger) ToggleSelectAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.selected) == len(l.txns) {
		l.selected = make(map[string]struct{})
		return
	}
	l.selected = make(map[string]struct{}, len(l.txns))
	for _, t := range l.txns {
		l.selected[t.ID] = struct{}{}
	}
}

// Selected returns the selected ids in snapshot order.
func (l *Ledger) Selected() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, 0, len(l.selected))
	for _, t := range l.txns {
		if _, ok := l.selected[t.ID]; ok {
			out = append(out, t.ID)
		}
	}
	return out
}

func (l *Ledger) IsSelected(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.selected[id]
	return ok
}

func (l *Ledger) SelectionCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.selected)
}

// Transactions returns a copy of the snapshot in insertion order, newest
// first.
func (l *Ledger) Transactions() []core.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Transaction(nil), l.txns...)
}

func (l *Ledger) Get(id string) (core.Transaction, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if idx := l.indexOf(id); idx >= 0 {
		return l.txns[idx], true
	}
	return core.Transaction{}, false
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.txns)
}

// indexOf requires l.mu to be held.
func (l *Ledger) indexOf(id string) int {
	for i, t := range l.txns {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// combineDate merges a YYYY-MM-DD calendar date with the time-of-day
// component of clock. An empty dateStr falls back to fallbackDay's
// calendar date.
func combineDate(dateStr string, clock, fallbackDay time.Time) (time.Time, error) {
	day := fallbackDay
	if dateStr != "" {
		parsed, err := time.Parse(core.DayKeyFormat, dateStr)
		if err != nil {
			return time.Time{}, core.ErrInvalidDate
		}
		day = parsed
	}
	return time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(),
		clock.Location()), nil
}
