package distribute

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/limzerui/teleNewsBot/internal/store"
	"github.com/limzerui/teleNewsBot/internal/summary"
	kit "github.com/limzerui/teleNewsBot/internal/transport"
	logx "github.com/limzerui/teleNewsBot/pkg/logx"
)

type fakeStore struct {
	active  []int64
	removed []int64
}

func (f *fakeStore) Connect(context.Context) error                 { return nil }
func (f *fakeStore) Add(context.Context, store.Subscriber) error   { return nil }
func (f *fakeStore) Close() error                                  { return nil }
func (f *fakeStore) Count(context.Context) (int, error)            { return len(f.active), nil }
func (f *fakeStore) All(context.Context) ([]store.Subscriber, error) { return nil, nil }

func (f *fakeStore) Active(context.Context) ([]int64, error) {
	out := make([]int64, len(f.active))
	copy(out, f.active)
	return out, nil
}

func (f *fakeStore) Remove(_ context.Context, id int64) error {
	f.removed = append(f.removed, id)
	return nil
}

type fakeSender struct {
	sent    []int64
	failFor map[int64]bool
}

func (f *fakeSender) SendText(_ context.Context, to kit.ChatTarget, _ string, _ *kit.SendOptions) (kit.MessageRef, error) {
	if f.failFor[to.ChatID] {
		return kit.MessageRef{}, errors.New("blocked")
	}
	f.sent = append(f.sent, to.ChatID)
	return kit.MessageRef{ChatID: to.ChatID, MessageID: 1}, nil
}

func testArtifact() *summary.Artifact {
	a := &summary.Artifact{Summary: "test", GeneratedAt: time.Now()}
	a.Normalize(time.Now())
	return a
}

func newTestEngine(st store.Store, send Sender) *Engine {
	return New(Config{SendRate: rate.Inf}, st, send, logx.Nop())
}

func TestDistributeSendsToAllActive(t *testing.T) {
	t.Parallel()
	fs := &fakeStore{active: []int64{1, 2, 3}}
	sender := &fakeSender{}
	e := newTestEngine(fs, sender)

	sent, err := e.Distribute(context.Background(), testArtifact())
	if err != nil {
		t.Fatalf("Distribute: %v", err)
	}
	if sent != 3 || len(sender.sent) != 3 {
		t.Fatalf("sent = %d (%v), want 3", sent, sender.sent)
	}
	if len(fs.removed) != 0 {
		t.Fatalf("removed = %v, want none", fs.removed)
	}
}

func TestDistributeRemovesUnreachable(t *testing.T) {
	t.Parallel()
	fs := &fakeStore{active: []int64{1, 2, 3}}
	sender := &fakeSender{failFor: map[int64]bool{2: true}}
	e := newTestEngine(fs, sender)

	sent, err := e.Distribute(context.Background(), testArtifact())
	if err != nil {
		t.Fatalf("Distribute: %v", err)
	}
	if sent != 2 {
		t.Fatalf("sent = %d, want 2", sent)
	}
	// The failing recipient is skipped, not the pass.
	if len(sender.sent) != 2 || sender.sent[0] != 1 || sender.sent[1] != 3 {
		t.Fatalf("sent to %v, want [1 3]", sender.sent)
	}
	if len(fs.removed) != 1 || fs.removed[0] != 2 {
		t.Fatalf("removed = %v, want [2]", fs.removed)
	}
}

func TestDistributeEmptyRegistry(t *testing.T) {
	t.Parallel()
	fs := &fakeStore{}
	sender := &fakeSender{}
	e := newTestEngine(fs, sender)

	sent, err := e.Distribute(context.Background(), testArtifact())
	if err != nil {
		t.Fatalf("Distribute: %v", err)
	}
	if sent != 0 || len(sender.sent) != 0 {
		t.Fatalf("sent = %d (%v), want 0", sent, sender.sent)
	}
}

func TestDistributeNilArtifact(t *testing.T) {
	t.Parallel()
	fs := &fakeStore{active: []int64{1}}
	sender := &fakeSender{}
	e := newTestEngine(fs, sender)

	sent, err := e.Distribute(context.Background(), nil)
	if err != nil {
		t.Fatalf("Distribute: %v", err)
	}
	if sent != 0 || len(sender.sent) != 0 {
		t.Fatal("nil artifact must be a no-op")
	}
}
