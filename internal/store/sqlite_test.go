package store

import (
	"context"
	"path/filepath"
	"testing"

	logx "github.com/limzerui/teleNewsBot/pkg/logx"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	st, err := Open(Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "subs.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := st.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestAddAndActive(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.Add(ctx, Subscriber{UserID: 42, Username: "alice", FirstName: "Alice"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	ids, err := st.Active(ctx)
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if len(ids) != 1 || ids[0] != 42 {
		t.Fatalf("Active = %v, want [42]", ids)
	}

	n, err := st.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Fatalf("Count = %d, want 1", n)
	}
}

func TestAddReactivatesAndPreservesSubscribedAt(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.Add(ctx, Subscriber{UserID: 7, Username: "bob"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	first, err := st.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}

	if err := st.Remove(ctx, 7); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if n, _ := st.Count(ctx); n != 0 {
		t.Fatalf("Count after remove = %d, want 0", n)
	}

	// Re-subscribing with a new username reactivates in place.
	if err := st.Add(ctx, Subscriber{UserID: 7, Username: "bobby"}); err != nil {
		t.Fatalf("re-Add: %v", err)
	}

	all, err := st.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("All = %d rows, want 1", len(all))
	}
	got := all[0]
	if !got.Active {
		t.Fatal("re-added subscriber must be active")
	}
	if got.Username != "bobby" {
		t.Fatalf("Username = %q, want bobby", got.Username)
	}
	if !got.SubscribedAt.Equal(first[0].SubscribedAt) {
		t.Fatalf("SubscribedAt changed: %v -> %v", first[0].SubscribedAt, got.SubscribedAt)
	}
}

func TestRemoveUnknownIsNoop(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.Remove(ctx, 999); err != nil {
		t.Fatalf("Remove unknown: %v", err)
	}
	if n, _ := st.Count(ctx); n != 0 {
		t.Fatalf("Count = %d, want 0", n)
	}
}

func TestCountMatchesActive(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	for _, id := range []int64{1, 2, 3, 4} {
		if err := st.Add(ctx, Subscriber{UserID: id}); err != nil {
			t.Fatalf("Add(%d): %v", id, err)
		}
	}
	if err := st.Remove(ctx, 2); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	ids, err := st.Active(ctx)
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	n, err := st.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != len(ids) {
		t.Fatalf("Count = %d, Active len = %d", n, len(ids))
	}
	for _, id := range ids {
		if id == 2 {
			t.Fatal("removed subscriber still active")
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "oracle"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestOpenDefaultsToSQLite(t *testing.T) {
	t.Parallel()
	st, err := Open(Config{Path: filepath.Join(t.TempDir(), "x.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := st.(*sqliteStore); !ok {
		t.Fatalf("Open with no driver and no URL = %T, want *sqliteStore", st)
	}
}

func TestOpenPrefersPostgresWithURL(t *testing.T) {
	t.Parallel()
	st, err := Open(Config{URL: "postgres://localhost/newsbot"}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := st.(*postgresStore); !ok {
		t.Fatalf("Open with URL = %T, want *postgresStore", st)
	}
}
