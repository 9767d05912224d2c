package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"capitale/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "capitale.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testTxn(id string, typ core.TransactionType, cents int64) core.Transaction {
	return core.Transaction{
		ID:     id,
		Type:   typ,
		Amount: core.Money{Cents: cents},
		Date:   time.Date(2024, 5, 10, 14, 30, 15, 0, time.UTC),
		Remark: "remark for " + id,
	}
}

func TestInsertAndLoadOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := repo.Insert(ctx, testTxn(id, core.Sale, 100)); err != nil {
			t.Fatalf("Insert(%s): %v", id, err)
		}
	}

	txns, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(txns) != 3 {
		t.Fatalf("len = %d, want 3", len(txns))
	}
	// Newest insertion first.
	if txns[0].ID != "c" || txns[1].ID != "b" || txns[2].ID != "a" {
		t.Fatalf("order wrong: %s, %s, %s", txns[0].ID, txns[1].ID, txns[2].ID)
	}
}

func TestLoadRoundtripsFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	want := core.Transaction{
		ID:     "t1",
		Type:   core.Investment,
		Amount: core.Money{Cents: 123456},
		Date:   time.Date(2024, 5, 10, 14, 30, 15, 123456789, time.UTC),
		Remark: "seed money",
	}
	if err := repo.Insert(ctx, want); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	txns, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := txns[0]
	if got.ID != want.ID || got.Type != want.Type || got.Amount != want.Amount || got.Remark != want.Remark {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if !got.Date.Equal(want.Date) {
		t.Fatalf("date = %v, want %v", got.Date, want.Date)
	}
}

func TestUpdate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	orig := testTxn("t1", core.Sale, 100)
	if err := repo.Insert(ctx, orig); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	updated := orig
	updated.Amount = core.Money{Cents: 999}
	updated.Remark = "edited"
	updated.Date = orig.Date.AddDate(0, 0, -2)
	if err := repo.Update(ctx, updated); err != nil {
		t.Fatalf("Update: %v", err)
	}

	txns, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := txns[0]
	if got.Amount.Cents != 999 || got.Remark != "edited" {
		t.Fatalf("update not persisted: %+v", got)
	}
	if !got.Date.Equal(updated.Date) {
		t.Fatalf("date = %v, want %v", got.Date, updated.Date)
	}
}

func TestDeleteMany(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := repo.Insert(ctx, testTxn(id, core.Purchase, 50)); err != nil {
			t.Fatalf("Insert(%s): %v", id, err)
		}
	}

	ids := []string{"a", "c", "missing"}
	if err := repo.DeleteMany(ctx, ids); err != nil {
		t.Fatalf("DeleteMany: %v", err)
	}
	// Idempotent: a second pass with the same ids changes nothing.
	if err := repo.DeleteMany(ctx, ids); err != nil {
		t.Fatalf("DeleteMany (second): %v", err)
	}

	txns, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(txns) != 1 || txns[0].ID != "b" {
		t.Fatalf("remaining = %+v, want only b", txns)
	}

	if err := repo.DeleteMany(ctx, nil); err != nil {
		t.Fatalf("DeleteMany(nil): %v", err)
	}
}

func TestDeleteAbsentIsNoop(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Delete(ctx, "nope"); err != nil {
		t.Fatalf("Delete absent id: %v", err)
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Fatalf("count = %d, want 0", n)
	}
}

func TestLoadEmpty(t *testing.T) {
	repo := newTestRepo(t)

	txns, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(txns) != 0 {
		t.Fatalf("expected empty store, got %d rows", len(txns))
	}
}
