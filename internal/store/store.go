// Package store provides the persistence implementations: SQLite for
// local and single-node deployments, Postgres for shared ones. Both
// bootstrap their own schema on open and satisfy model.Store.
package store

import "time"

// writeChunkSize bounds batched writes. When a whole chunk fails it is
// replayed record by record so one bad row cannot sink its neighbours.
const writeChunkSize = 25

func chunk[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		return nil
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for len(items) > size {
		out = append(out, items[:size])
		items = items[size:]
	}
	return append(out, items)
}

// Timestamps are persisted as RFC 3339 UTC strings in both backends so
// values round-trip identically regardless of driver.
func timeToDB(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func timeFromDB(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func timePtrToDB(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := timeToDB(*t)
	return &s
}

func timePtrFromDB(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t := timeFromDB(*s)
	return &t
}
