package store

import (
	"context"
	"fmt"
	"sort"
)

// SAdd adds members to the set at key and returns how many were new.
func (s *Store) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	args := make([][]byte, 0, 1+len(members))
	args = append(args, []byte(key))
	for _, m := range members {
		args = append(args, []byte(m))
	}
	n, err := sadd(ctx, s.db, args)
	if err != nil {
		return 0, err
	}
	return n.(int64), nil
}

// Seed loads a key → members map in one transaction. Keys are processed in
// sorted order.
func (s *Store) Seed(ctx context.Context, sets map[string][]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	keys := make([]string, 0, len(sets))
	for k := range sets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		args := [][]byte{[]byte(key)}
		for _, m := range sets[key] {
			args = append(args, []byte(m))
		}
		if len(args) == 1 {
			continue
		}
		if _, err := sadd(ctx, tx, args); err != nil {
			return fmt.Errorf("seed %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit: %w", err)
	}
	return nil
}

// Members returns the sorted members of the set at key.
func (s *Store) Members(ctx context.Context, key string) ([]string, error) {
	m, err := smembers(ctx, s.db, [][]byte{[]byte(key)})
	if err != nil {
		return nil, err
	}
	return m.([]string), nil
}

// Keys returns every key that currently holds a set, sorted.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	keys, err := queryMembers(ctx, s.db, `SELECT DISTINCT key FROM members ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("keys: %w", err)
	}
	return keys, nil
}
