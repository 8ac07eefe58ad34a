package data

import (
	"context"
	"fmt"
	"testing"
	"time"
)

type fakeAdapter struct {
	name    string
	bars    []Bar
	failErr error
	calls   int
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) GetOHLCV(ctx context.Context, symbol string, start, end time.Time, adjust Adjust) ([]Bar, error) {
	f.calls++
	if f.failErr != nil {
		return nil, f.failErr
	}
	return f.bars, nil
}

func (f *fakeAdapter) GetStockInfo(ctx context.Context, symbol string) (StockInfo, error) {
	return StockInfo{Name: symbol}, nil
}

func TestSelectorFailsOverOnError(t *testing.T) {
	primary := &fakeAdapter{name: "primary", failErr: &FetchError{Kind: FailNetwork, Err: fmt.Errorf("boom")}}
	backup := &fakeAdapter{name: "backup", bars: []Bar{{Close: 10}}}

	sel := NewSelector([]Provider{primary, backup}, time.Minute)
	bars, err := sel.GetOHLCV(context.Background(), "600000", time.Now(), time.Now(), AdjustRaw)
	if err != nil {
		t.Fatalf("GetOHLCV: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("expected 1 bar from backup, got %d", len(bars))
	}
	name, switched := sel.AdapterUsed()
	if name != "backup" {
		t.Fatalf("AdapterUsed = %q, want backup", name)
	}
	if switched {
		t.Fatal("first fetch should not count as a mid-run switch")
	}

	status, _, fails := sel.Health("primary")
	if status != StatusError || fails != 1 {
		t.Fatalf("primary health = %v fails=%d, want ERROR/1", status, fails)
	}
}

func TestSelectorStaysStickyAfterFirstSuccess(t *testing.T) {
	primary := &fakeAdapter{name: "primary", bars: []Bar{{Close: 10}}}
	backup := &fakeAdapter{name: "backup", bars: []Bar{{Close: 20}}}

	sel := NewSelector([]Provider{primary, backup}, time.Minute)
	_, _ = sel.GetOHLCV(context.Background(), "600000", time.Now(), time.Now(), AdjustRaw)
	_, _ = sel.GetOHLCV(context.Background(), "600000", time.Now(), time.Now(), AdjustRaw)

	if backup.calls != 0 {
		t.Fatalf("expected backup never called while primary healthy, got %d calls", backup.calls)
	}
	name, switched := sel.AdapterUsed()
	if name != "primary" || switched {
		t.Fatalf("AdapterUsed = (%s, %v), want (primary, false)", name, switched)
	}
}

func TestSelectorRecordsSwitchMidRun(t *testing.T) {
	primary := &fakeAdapter{name: "primary", bars: []Bar{{Close: 10}}}
	backup := &fakeAdapter{name: "backup", bars: []Bar{{Close: 20}}}

	sel := NewSelector([]Provider{primary, backup}, time.Minute)
	_, _ = sel.GetOHLCV(context.Background(), "600000", time.Now(), time.Now(), AdjustRaw)

	primary.failErr = &FetchError{Kind: FailNetwork, Err: fmt.Errorf("now failing")}
	_, err := sel.GetOHLCV(context.Background(), "600000", time.Now(), time.Now(), AdjustRaw)
	if err != nil {
		t.Fatalf("GetOHLCV: %v", err)
	}

	name, switched := sel.AdapterUsed()
	if name != "backup" || !switched {
		t.Fatalf("AdapterUsed = (%s, %v), want (backup, true)", name, switched)
	}
}

func TestSelectorEmptyRangeIsNotFailover(t *testing.T) {
	primary := &fakeAdapter{name: "primary", failErr: &FetchError{Kind: FailEmpty, Err: fmt.Errorf("no bars")}}
	backup := &fakeAdapter{name: "backup", bars: []Bar{{Close: 10}}}

	sel := NewSelector([]Provider{primary, backup}, time.Minute)
	_, err := sel.GetOHLCV(context.Background(), "600000", time.Now(), time.Now(), AdjustRaw)
	if err == nil {
		t.Fatal("expected NO_DATA error to propagate")
	}
	if backup.calls != 0 {
		t.Fatalf("expected no failover on FailEmpty, backup called %d times", backup.calls)
	}
	status, _, fails := sel.Health("primary")
	if status != StatusOnline || fails != 0 {
		t.Fatalf("primary should remain ONLINE on empty range, got status=%v fails=%d", status, fails)
	}
}
