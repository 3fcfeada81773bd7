package harness

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/jsonlog"
	"github.com/roach88/jsonlog/record"
)

// Object is the document type scenarios operate on.
type Object = map[string]any

// Result captures the observable state of the log after a scenario ran.
type Result struct {
	Live       []record.RecordData[Object]
	Historical []record.RecordData[Object]
	Count      int
	Tag        uint64
}

// Run executes the scenario against a fresh log at path and verifies its
// expectations. After the steps complete, the log is re-opened with a
// second read-only handle and the replayed views must match the first
// handle's views, so every scenario also checks that replay reproduces
// state from bytes alone.
func Run(scenario *Scenario, path string) (*Result, error) {
	db, err := jsonlog.Open(path, jsonlog.Options[Object]{})
	if err != nil {
		return nil, err
	}
	defer db.Close()

	for i, step := range scenario.Steps {
		if err := runStep(db, step); err != nil {
			return nil, fmt.Errorf("steps[%d] (%s): %w", i, step.Op, err)
		}
	}

	result := &Result{
		Live:       db.Records(),
		Historical: db.RecordsIncludeDeleted(),
		Count:      db.Count(),
		Tag:        db.Tag(),
	}

	replayed, err := jsonlog.Open(path, jsonlog.Options[Object]{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("re-open for replay: %w", err)
	}
	defer replayed.Close()
	if err := sameView("live", result.Live, replayed.Records()); err != nil {
		return nil, fmt.Errorf("replay mismatch: %w", err)
	}
	if err := sameView("historical", result.Historical, replayed.RecordsIncludeDeleted()); err != nil {
		return nil, fmt.Errorf("replay mismatch: %w", err)
	}

	if err := verifyExpect(scenario.Expect, result); err != nil {
		return nil, err
	}
	return result, nil
}

func runStep(db *jsonlog.Database[Object], step Step) error {
	switch step.Op {
	case OpInsert:
		id, err := db.Insert(Object(step.Doc))
		if err != nil {
			return err
		}
		if step.ExpectID != 0 && id != record.ID(step.ExpectID) {
			return fmt.Errorf("allocated id %d, expected %d", id, step.ExpectID)
		}
		return nil
	case OpUpsert:
		doc := step.Doc
		return db.Upsert(record.ID(step.ID), func(*Object) *Object {
			if doc == nil {
				return nil
			}
			next := Object(doc)
			return &next
		})
	case OpDelete:
		return db.Delete(record.ID(step.ID))
	case OpReload:
		return db.Reload()
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

func verifyExpect(expect Expect, result *Result) error {
	if expect.Count != nil && result.Count != *expect.Count {
		return fmt.Errorf("count is %d, expected %d", result.Count, *expect.Count)
	}
	if expect.Live != nil {
		if err := matchView("live", expect.Live, result.Live); err != nil {
			return err
		}
	}
	if expect.Historical != nil {
		if err := matchView("historical", expect.Historical, result.Historical); err != nil {
			return err
		}
	}
	return nil
}

// sameView compares two materialized views for structural equality.
func sameView(name string, a, b []record.RecordData[Object]) error {
	av, err := canonicalValue(viewValue(a))
	if err != nil {
		return err
	}
	bv, err := canonicalValue(viewValue(b))
	if err != nil {
		return err
	}
	if !bytes.Equal(av, bv) {
		return fmt.Errorf("%s view differs:\n  %s\n  %s", name, av, bv)
	}
	return nil
}

// matchView compares a view against the scenario's expectation.
func matchView(name string, expected []ExpectedRecord, got []record.RecordData[Object]) error {
	want := make([]any, len(expected))
	for i, rec := range expected {
		want[i] = map[string]any{"id": rec.ID, "doc": rec.Doc}
	}
	wv, err := canonicalValue(want)
	if err != nil {
		return err
	}
	gv, err := canonicalValue(viewValue(got))
	if err != nil {
		return err
	}
	if !bytes.Equal(wv, gv) {
		return fmt.Errorf("%s view:\n  got  %s\n  want %s", name, gv, wv)
	}
	return nil
}

// viewValue renders a view as plain values for canonical comparison.
func viewValue(records []record.RecordData[Object]) []any {
	out := make([]any, len(records))
	for i, rec := range records {
		out[i] = map[string]any{"id": rec.ID, "doc": map[string]any(rec.Doc)}
	}
	return out
}

// canonicalValue routes v through a JSON round trip (numbers as
// json.Number) and renders the result canonically, so yaml-sourced,
// in-memory and replayed values all compare as bytes.
func canonicalValue(v any) ([]byte, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(encoded))
	dec.UseNumber()
	var plain any
	if err := dec.Decode(&plain); err != nil {
		return nil, err
	}
	return record.MarshalCanonical(plain)
}
