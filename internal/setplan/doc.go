// Package setplan compiles setexpr trees into linear sequences of Redis
// commands.
//
// Redis set commands accept any number of operands but cannot nest. A tree
// such as
//
//	(diff (inter foo bar) baz)
//
// is flattened depth-first into one command per operator node, each
// writing its result to a temporary key that its parent then names as an
// operand:
//
//	SINTERSTORE stal:1 foo bar
//	SDIFFSTORE stal:0 stal:1 baz
//
// TEMPORARY KEYS:
//
// Temporaries are named "<namespace>:<n>" where n counts from 0 within one
// compilation. A node takes its number before its children are compiled,
// so parents own lower numbers than their descendants, while commands are
// emitted after the children's commands. Replaying the ops in order
// therefore always finds every operand already computed.
//
// OUTPUT MODES:
//
//	Explain  the bare ops plus the terminal command, for inspection
//	Solve    MULTI, the ops, the terminal command, one DEL of every
//	         temporary, EXEC - together with the index of the terminal
//	         command, whose reply is the answer
//
// A Query carries the terminal command as a template with slots. Every slot
// is compiled as an inner node and its result key substituted into the
// template. Members is the one shortcut: a non-leaf root is emitted in its
// non-storing form (SUNION/SINTER/SDIFF) and becomes the answer itself.
//
// The compiler performs no I/O and keeps no state between calls. Programs
// are executed by package store (SQLite reference) or package redisexec.
package setplan
