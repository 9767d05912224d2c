package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"capitale/internal/core"
)

// fakeRepo records writes in memory so ledger behavior can be tested
// without sqlite.
type fakeRepo struct {
	loaded  []core.Transaction
	loadErr error

	inserted []core.Transaction
	updated  []core.Transaction
	deleted  []string
	bulk     [][]string
}

func (f *fakeRepo) Load(ctx context.Context) ([]core.Transaction, error) {
	return f.loaded, f.loadErr
}

func (f *fakeRepo) Insert(ctx context.Context, t core.Transaction) error {
	f.inserted = append(f.inserted, t)
	return nil
}

func (f *fakeRepo) Update(ctx context.Context, t core.Transaction) error {
	f.updated = append(f.updated, t)
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRepo) DeleteMany(ctx context.Context, ids []string) error {
	f.bulk = append(f.bulk, ids)
	return nil
}

func newTestLedger(repo *fakeRepo) *Ledger {
	l := New(repo, nil)
	l.Open(context.Background())
	return l
}

func TestAddThenLookup(t *testing.T) {
	repo := &fakeRepo{}
	l := newTestLedger(repo)

	got, err := l.Add(context.Background(), core.Sale, "12.50", "2024-04-02", "market day")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	found, ok := l.Get(got.ID)
	if !ok {
		t.Fatalf("Get(%s): not found", got.ID)
	}
	if found.Type != core.Sale || found.Amount.Cents != 1250 || found.Remark != "market day" {
		t.Fatalf("lookup mismatch: %+v", found)
	}
	y, m, d := found.Date.Date()
	if y != 2024 || m != time.April || d != 2 {
		t.Fatalf("calendar date = %d-%d-%d, want 2024-4-2", y, m, d)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected one repository insert, got %d", len(repo.inserted))
	}
}

func TestAddPrependsNewestFirst(t *testing.T) {
	l := newTestLedger(&fakeRepo{})
	ctx := context.Background()

	first, _ := l.Add(ctx, core.Sale, "1", "2024-01-01", "")
	second, _ := l.Add(ctx, core.Purchase, "2", "2024-01-01", "")

	txns := l.Transactions()
	if txns[0].ID != second.ID || txns[1].ID != first.ID {
		t.Fatalf("expected newest-first ordering")
	}
}

func TestAddRejectsInvalidAmount(t *testing.T) {
	repo := &fakeRepo{}
	l := newTestLedger(repo)

	for _, amount := range []string{"", "abc", "0", "-3", "1.2.3"} {
		if _, err := l.Add(context.Background(), core.Sale, amount, "2024-01-01", ""); !errors.Is(err, core.ErrInvalidAmount) {
			t.Fatalf("Add(%q): err = %v, want ErrInvalidAmount", amount, err)
		}
	}
	if l.Len() != 0 || len(repo.inserted) != 0 {
		t.Fatalf("failed adds must not mutate state")
	}
}

func TestAddRejectsInvalidType(t *testing.T) {
	l := newTestLedger(&fakeRepo{})
	if _, err := l.Add(context.Background(), "loan", "5", "2024-01-01", ""); !errors.Is(err, core.ErrInvalidType) {
		t.Fatalf("err = %v, want ErrInvalidType", err)
	}
}

func TestUpdatePreservesTypeAndTimeOfDay(t *testing.T) {
	orig := core.Transaction{
		ID:     "t1",
		Type:   core.Investment,
		Amount: core.Money{Cents: 1000},
		Date:   time.Date(2024, 2, 10, 9, 41, 27, 500, time.Local),
		Remark: "before",
	}
	repo := &fakeRepo{loaded: []core.Transaction{orig}}
	l := newTestLedger(repo)

	got, found, err := l.Update(context.Background(), "t1", "25.00", "2024-03-01", "after")
	if err != nil || !found {
		t.Fatalf("Update: found=%v err=%v", found, err)
	}

	if got.Type != core.Investment {
		t.Fatalf("type changed to %s", got.Type)
	}
	if got.Amount.Cents != 2500 || got.Remark != "after" {
		t.Fatalf("fields not updated: %+v", got)
	}
	y, m, d := got.Date.Date()
	if y != 2024 || m != time.March || d != 1 {
		t.Fatalf("calendar date = %d-%d-%d, want 2024-3-1", y, m, d)
	}
	h, min, sec := got.Date.Clock()
	if h != 9 || min != 41 || sec != 27 || got.Date.Nanosecond() != 500 {
		t.Fatalf("time of day changed: %v", got.Date)
	}
	if len(repo.updated) != 1 {
		t.Fatalf("expected one repository update, got %d", len(repo.updated))
	}
}

func TestUpdateMissingIDIsSilentNoop(t *testing.T) {
	repo := &fakeRepo{}
	l := newTestLedger(repo)

	_, found, err := l.Update(context.Background(), "ghost", "5.00", "2024-01-01", "")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if found {
		t.Fatalf("expected found=false for unknown id")
	}
	if len(repo.updated) != 0 {
		t.Fatalf("no repository write expected")
	}
}

func TestDeleteOne(t *testing.T) {
	repo := &fakeRepo{loaded: []core.Transaction{
		{ID: "a", Type: core.Sale, Amount: core.Money{Cents: 1}, Date: time.Now()},
		{ID: "b", Type: core.Sale, Amount: core.Money{Cents: 2}, Date: time.Now()},
	}}
	l := newTestLedger(repo)
	l.ToggleSelection("b")

	found, err := l.DeleteOne(context.Background(), "a")
	if err != nil || !found {
		t.Fatalf("DeleteOne: found=%v err=%v", found, err)
	}
	if l.Len() != 1 {
		t.Fatalf("len = %d, want 1", l.Len())
	}
	if l.SelectionCount() != 0 {
		t.Fatalf("selection should be cleared after delete")
	}

	found, err = l.DeleteOne(context.Background(), "a")
	if err != nil || found {
		t.Fatalf("second delete should be a no-op, found=%v err=%v", found, err)
	}
}

func TestDeleteManyIdempotent(t *testing.T) {
	repo := &fakeRepo{loaded: []core.Transaction{
		{ID: "a", Type: core.Sale, Amount: core.Money{Cents: 1}, Date: time.Now()},
		{ID: "b", Type: core.Sale, Amount: core.Money{Cents: 2}, Date: time.Now()},
		{ID: "c", Type: core.Sale, Amount: core.Money{Cents: 3}, Date: time.Now()},
	}}
	l := newTestLedger(repo)

	ids := []string{"a", "c", "ghost"}
	n, err := l.DeleteMany(context.Background(), ids)
	if err != nil {
		t.Fatalf("DeleteMany: %v", err)
	}
	if n != 2 {
		t.Fatalf("removed = %d, want 2", n)
	}

	n, err = l.DeleteMany(context.Background(), ids)
	if err != nil {
		t.Fatalf("DeleteMany (second): %v", err)
	}
	if n != 0 {
		t.Fatalf("second pass removed %d, want 0", n)
	}
	if l.Len() != 1 {
		t.Fatalf("len = %d, want 1", l.Len())
	}
}

func TestSelectionToggles(t *testing.T) {
	repo := &fakeRepo{loaded: []core.Transaction{
		{ID: "a", Type: core.Sale, Amount: core.Money{Cents: 1}, Date: time.Now()},
		{ID: "b", Type: core.Sale, Amount: core.Money{Cents: 2}, Date: time.Now()},
	}}
	l := newTestLedger(repo)

	l.ToggleSelection("a")
	if !l.IsSelected("a") || l.SelectionCount() != 1 {
		t.Fatalf("toggle on failed")
	}
	l.ToggleSelection("a")
	if l.IsSelected("a") {
		t.Fatalf("toggle off failed")
	}
	l.ToggleSelection("ghost")
	if l.SelectionCount() != 0 {
		t.Fatalf("unknown id must not enter the selection")
	}

	l.ToggleSelectAll()
	if l.SelectionCount() != 2 {
		t.Fatalf("select-all count = %d, want 2", l.SelectionCount())
	}
	got := l.Selected()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("Selected() = %v, want snapshot order [a b]", got)
	}

	l.ToggleSelectAll()
	if l.SelectionCount() != 0 {
		t.Fatalf("select-all on full selection should clear")
	}
}

func TestOpenLoadFailureDegradesToEmpty(t *testing.T) {
	repo := &fakeRepo{loadErr: errors.New("disk gone")}
	l := newTestLedger(repo)

	if l.Len() != 0 {
		t.Fatalf("expected empty store after load failure")
	}
	// Store remains usable.
	if _, err := l.Add(context.Background(), core.Sale, "3", "2024-01-01", ""); err != nil {
		t.Fatalf("Add after degraded load: %v", err)
	}
}

func TestTransactionsReturnsCopy(t *testing.T) {
	repo := &fakeRepo{loaded: []core.Transaction{
		{ID: "a", Type: core.Sale, Amount: core.Money{Cents: 1}, Date: time.Now()},
	}}
	l := newTestLedger(repo)

	txns := l.Transactions()
	txns[0].ID = "mutated"
	if got, _ := l.Get("a"); got.ID != "a" {
		t.Fatalf("snapshot leaked to callers")
	}
}
