package cli

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/roach88/jsonlog/record"
)

// newRecordEnv builds the CEL environment shared by filter and transform
// expressions. Each record is exposed as two variables:
//
//	id   the record identifier (int)
//	doc  the document as a dynamic value (doc.title, "tag" in doc, ...)
func newRecordEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("id", cel.IntType),
		cel.Variable("doc", cel.DynType),
	)
}

// filter wraps a compiled CEL program that selects records. Records for
// which the expression errors or yields a non-boolean are dropped.
type filter struct {
	prog cel.Program
}

func compileFilter(expr string) (*filter, error) {
	prog, err := compileRecordProgram(expr)
	if err != nil {
		return nil, err
	}
	return &filter{prog: prog}, nil
}

// Select returns the records matching the filter, preserving order.
func (f *filter) Select(records []record.RecordData[Object]) []record.RecordData[Object] {
	out := make([]record.RecordData[Object], 0, len(records))
	for _, rec := range records {
		if f.Match(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Match evaluates the filter against one record.
func (f *filter) Match(rec record.RecordData[Object]) bool {
	out, _, err := f.prog.Eval(map[string]any{
		"id":  int64(rec.ID),
		"doc": map[string]any(rec.Doc),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

// transform wraps a compiled CEL program that rewrites a document. The
// expression must produce an object; it becomes the record's replacement
// payload. Reserved log keys in the result are dropped, matching the
// behavior of documents piped in on stdin.
type transform struct {
	prog cel.Program
}

func compileTransform(expr string) (*transform, error) {
	prog, err := compileRecordProgram(expr)
	if err != nil {
		return nil, err
	}
	return &transform{prog: prog}, nil
}

// Apply evaluates the transform against one record and returns the
// replacement document.
func (t *transform) Apply(rec record.RecordData[Object]) (Object, error) {
	out, _, err := t.prog.Eval(map[string]any{
		"id":  int64(rec.ID),
		"doc": map[string]any(rec.Doc),
	})
	if err != nil {
		return nil, fmt.Errorf("evaluate expression for record %d: %w", rec.ID, err)
	}
	native, err := out.ConvertToNative(reflect.TypeOf(map[string]any{}))
	if err != nil {
		return nil, fmt.Errorf("expression must produce an object for record %d: %w", rec.ID, err)
	}
	doc := native.(map[string]any)
	stripReserved(doc)
	return doc, nil
}

// compileRecordProgram parses, checks and plans a CEL expression against
// the record environment.
func compileRecordProgram(expr string) (cel.Program, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty expression")
	}
	env, err := newRecordEnv()
	if err != nil {
		return nil, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}
	checked, iss := env.Check(ast)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}
	return env.Program(checked)
}
