// Package harness runs query scenarios against the SQLite store.
//
// A scenario seeds a fresh in-memory store, compiles a query document,
// evaluates its solve program and checks the reply:
//
//	name: nested_diff
//	description: members of foo and bar that are not in baz
//	seed:
//	  foo: ["1", "2", "3", "4"]
//	  bar: ["2", "3", "4", "5"]
//	  baz: ["3", "9"]
//	query:
//	  set: {diff: [{inter: [foo, bar]}, baz]}
//	expect:
//	  members: ["2", "4"]
//	assertions:
//	  - type: no_temporaries
//	  - type: explain_agrees
//
// RunWithGolden additionally snapshots the compiled commands and the reply
// to testdata/golden/<name>.golden, so any change in the emitted program
// shows up as a golden diff.
package harness
