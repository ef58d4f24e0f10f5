package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

// Mock objects
type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64 // Simulates DB sequence value
	lastIncr     int64 // Track last increment passed
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Strict passes (key); Cached passes (key, increment).
	var increment int64 = 1
	if len(args) == 2 {
		if val, ok := args[1].(int64); ok {
			increment = val
		}
	}

	m.currentValue += increment
	m.lastIncr = increment

	return &mockRow{val: m.currentValue}
}

var testPeriod = time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

func TestGetNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("PO")

	num, err := svc.GetNextNumber(ctx, cfg, nil, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "PO-2026-00001" {
		t.Errorf("expected PO-2026-00001, got %s", num)
	}

	num, err = svc.GetNextNumber(ctx, cfg, nil, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "PO-2026-00002" {
		t.Errorf("expected PO-2026-00002, got %s", num)
	}

	if q.lastIncr != 1 {
		t.Errorf("strict strategy must increment by 1, got %d", q.lastIncr)
	}
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("MT")
	opts := &Options{Strategy: StrategyCached, RangeSize: 10}

	// First call allocates a range of 10 from the DB.
	num, err := svc.GetNextNumber(ctx, cfg, opts, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "MT-2026-00001" {
		t.Errorf("expected MT-2026-00001, got %s", num)
	}
	if q.lastIncr != 10 {
		t.Errorf("cached strategy must reserve range of 10, got %d", q.lastIncr)
	}

	// Following calls within the range must not hit the DB.
	dbValBefore := q.currentValue
	for i := 2; i <= 10; i++ {
		if _, err := svc.GetNextNumber(ctx, cfg, opts, testPeriod); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if q.currentValue != dbValBefore {
		t.Errorf("cached range exhausted DB sequence prematurely")
	}

	// The 11th call refills from the DB.
	num, err = svc.GetNextNumber(ctx, cfg, opts, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "MT-2026-00011" {
		t.Errorf("expected MT-2026-00011, got %s", num)
	}
}

func TestGetNextNumber_NoYear(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)

	cfg := Config{Prefix: "BT", IncludeYear: false, PadWidth: 3, ResetPeriod: "never"}
	num, err := svc.GetNextNumber(context.Background(), cfg, nil, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "BT-001" {
		t.Errorf("expected BT-001, got %s", num)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"PO-2026-00042", 42},
		{"MT-00007", 7},
		{"garbage", -1},
	}

	for _, tt := range tests {
		if got := ParseNumber(tt.in); got != tt.want {
			t.Errorf("ParseNumber(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
