// Package harness provides conformance testing for the record log.
//
// Scenarios are YAML files describing a sequence of mutations applied to
// a fresh log and the expected final state of both views:
//
//	name: last-writer-wins
//	description: "The newest upsert per id is authoritative"
//	steps:
//	  - op: insert
//	    doc: { a: "x" }
//	    expect_id: 1
//	  - op: upsert
//	    id: 1
//	    doc: { a: "y" }
//	expect:
//	  count: 1
//	  live:
//	    - id: 1
//	      doc: { a: "y" }
//
// Step ops are insert, upsert, delete and reload. An upsert step without a
// doc resolves to "no document": a tombstone if the id is live, a no-op
// otherwise.
//
// After the steps run, the harness re-opens the log with a second
// read-only handle and requires the replayed views to match the first
// handle's, so every scenario doubles as a replay-reproducibility check.
// RunWithGolden additionally snapshots both views as canonical JSON and
// compares against testdata/golden via goldie; regenerate with:
//
//	go test ./internal/harness -update
package harness
