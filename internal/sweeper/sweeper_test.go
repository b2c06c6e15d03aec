package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"invest-ledger-go/internal/models"
)

// fakeLedger hands out a fixed set of due ids and records which were
// settled. Settled ids drop out of the listing, like the real store.
type fakeLedger struct {
	mu      sync.Mutex
	due     []string
	settled map[string]int
	failing map[string]bool
	listErr error
}

func newFakeLedger(due ...string) *fakeLedger {
	return &fakeLedger{
		due:     due,
		settled: make(map[string]int),
		failing: make(map[string]bool),
	}
}

func (f *fakeLedger) ListMaturedInvestmentIds(ctx context.Context, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var ids []string
	for _, id := range f.due {
		if f.settled[id] == 0 {
			ids = append(ids, id)
		}
		if len(ids) == limit {
			break
		}
	}
	return ids, nil
}

func (f *fakeLedger) Mature(ctx context.Context, investmentId string) (*models.Investment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[investmentId] {
		return nil, errors.New("settlement failed")
	}
	f.settled[investmentId]++
	return &models.Investment{Id: investmentId, Status: models.InvestmentStatusCompleted}, nil
}

func (f *fakeLedger) settledCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settled[id]
}

func TestSweepOnce_DrainsInBatches(t *testing.T) {
	ledger := newFakeLedger("a", "b", "c", "d", "e")
	s := New(Config{Ledger: ledger, PollingInterval: time.Hour, BatchSize: 2})

	s.SweepOnce(context.Background())

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		if got := ledger.settledCount(id); got != 1 {
			t.Errorf("Expected investment %s settled exactly once, got %d", id, got)
		}
	}
}

func TestSweepOnce_SkipsFailingRows(t *testing.T) {
	ledger := newFakeLedger("good", "bad")
	ledger.failing["bad"] = true
	s := New(Config{Ledger: ledger, PollingInterval: time.Hour, BatchSize: 10})

	s.SweepOnce(context.Background())

	if got := ledger.settledCount("good"); got != 1 {
		t.Errorf("Expected good investment settled once, got %d", got)
	}
	if got := ledger.settledCount("bad"); got != 0 {
		t.Errorf("Expected failing investment untouched, got %d settles", got)
	}
}

func TestSweepOnce_ListErrorAborts(t *testing.T) {
	ledger := newFakeLedger("a")
	ledger.listErr = errors.New("database gone")
	s := New(Config{Ledger: ledger, PollingInterval: time.Hour, BatchSize: 10})

	s.SweepOnce(context.Background())

	if got := ledger.settledCount("a"); got != 0 {
		t.Errorf("Expected no settles after list error, got %d", got)
	}
}

func TestStartStop_RunsImmediatePass(t *testing.T) {
	ledger := newFakeLedger("a")
	s := New(Config{Ledger: ledger, PollingInterval: time.Hour, BatchSize: 10})

	s.Start(context.Background())

	deadline := time.After(2 * time.Second)
	for ledger.settledCount("a") == 0 {
		select {
		case <-deadline:
			t.Fatal("Immediate sweep pass never settled the due investment")
		case <-time.After(10 * time.Millisecond):
		}
	}

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}
