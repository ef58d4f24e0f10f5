package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
)

// SequenceQuerier is an in-memory stand-in for the sys_sequences table.
// It understands only the numerator's UPSERT statements: every statement
// keys on the first argument and returns the resulting counter value.
type SequenceQuerier struct {
	mu   sync.Mutex
	vals map[string]int64
}

// NewSequenceQuerier creates an empty sequence store.
func NewSequenceQuerier() *SequenceQuerier {
	return &SequenceQuerier{vals: make(map[string]int64)}
}

// QueryRow implements numerator.Querier.
func (q *SequenceQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	key, ok := args[0].(string)
	if !ok {
		return seqRow{err: fmt.Errorf("sequence key must be a string, got %T", args[0])}
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	switch {
	case len(args) == 1:
		q.vals[key]++
	case strings.Contains(sql, "current_val + $2"):
		delta, err := toInt64(args[1])
		if err != nil {
			return seqRow{err: err}
		}
		q.vals[key] += delta
	default:
		val, err := toInt64(args[1])
		if err != nil {
			return seqRow{err: err}
		}
		q.vals[key] = val
	}

	return seqRow{val: q.vals[key]}
}

type seqRow struct {
	val int64
	err error
}

func (r seqRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != 1 {
		return fmt.Errorf("expected one destination, got %d", len(dest))
	}
	ptr, ok := dest[0].(*int64)
	if !ok {
		return fmt.Errorf("expected *int64 destination, got %T", dest[0])
	}
	*ptr = r.val
	return nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("expected integer argument, got %T", v)
	}
}
