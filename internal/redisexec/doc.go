// Package redisexec runs compiled programs against a live Redis server.
//
// A transactional program (MULTI ... EXEC) is submitted through a go-redis
// TxPipeline, which writes its own MULTI and EXEC around the queued
// commands, so the program's framing ops are dropped before sending. Any
// other op list goes through a plain pipeline. Either way the program
// costs a single round trip.
//
// Replies of set-valued commands are returned as sorted []string so they
// compare equal to what the SQLite store in package store produces.
package redisexec
