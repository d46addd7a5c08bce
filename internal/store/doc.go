// Package store provides a SQLite-backed reference executor for compiled
// set programs.
//
// It implements the subset of Redis that package setplan emits, plus a
// few commands for seeding and inspection:
//
//	SADD SREM SMEMBERS SCARD SISMEMBER EXISTS DEL
//	SUNION SINTER SDIFF SUNIONSTORE SINTERSTORE SDIFFSTORE
//	MULTI EXEC
//
// Replies follow Redis shapes: status strings, int64 counts, member lists
// as []string and EXEC as []any. Member lists are sorted bytewise so
// results are deterministic.
//
// # Differences from Redis
//
//   - A failing command inside MULTI/EXEC rolls back the whole batch.
//     Redis would keep the effects of the other commands.
//   - Only sets exist, so there are no WRONGTYPE errors.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - One open connection, so ":memory:" databases work
package store
