package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Reserved keys injected into every upsert line. Documents must not carry
// them; Encode rejects the collision instead of silently overwriting.
const (
	idKey     = "id"
	markerKey = "deleted"
)

var errMarkerOnData = errors.New("record data cannot be a tombstone")

// DecodeError reports a log record that could not be parsed. Offset is the
// byte position of the failed record within the log; the replay cursor does
// not advance past it, so the error persists on retry until the underlying
// bytes change (a writer finishing a truncated line) or forever (genuine
// corruption). The engine cannot distinguish the two cases.
type DecodeError struct {
	Offset int64
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode record at offset %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Encode serializes one record as a single JSON line, newline terminated.
//
// Upserts are flattened: the id is injected ahead of the document's own
// fields. The document must serialize to a JSON object and must not carry
// the reserved "id" or "deleted" keys.
func Encode[T any](rec Record[T]) ([]byte, error) {
	if rec.Deleted {
		return []byte(fmt.Sprintf("{%q:%d,%q:true}\n", idKey, rec.ID, markerKey)), nil
	}

	body, err := marshalNoEscape(rec.Doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	fields, err := splitObject(body)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	if _, ok := fields[idKey]; ok {
		return nil, fmt.Errorf("document field %q collides with the record id", idKey)
	}
	if _, ok := fields[markerKey]; ok {
		return nil, fmt.Errorf("document field %q collides with the tombstone marker", markerKey)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "{%q:%d", idKey, rec.ID)
	inner := bytes.TrimSpace(body)
	inner = bytes.TrimSpace(inner[1 : len(inner)-1]) // strip the braces
	if len(inner) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// Decode parses one log line into a record.
//
// Dispatch is explicit: if the marker is present and strictly true the line
// must be exactly {id, deleted} (the strict tombstone schema); otherwise
// the line is an upsert whose id field is removed and whose remaining
// fields form the document. A present-and-false marker is dropped; any
// non-boolean marker is an error.
func Decode[T any](line []byte) (Record[T], error) {
	var zero Record[T]

	fields, err := splitObject(line)
	if err != nil {
		return zero, err
	}

	if raw, ok := fields[markerKey]; ok {
		var deleted bool
		if err := json.Unmarshal(raw, &deleted); err != nil {
			return zero, fmt.Errorf("marker %q must be a boolean", markerKey)
		}
		if deleted {
			if len(fields) != 2 {
				return zero, fmt.Errorf("tombstone carries %d extraneous field(s)", len(fields)-2)
			}
			id, err := decodeID(fields)
			if err != nil {
				return zero, err
			}
			return Tombstone[T](id), nil
		}
		delete(fields, markerKey)
	}

	id, err := decodeID(fields)
	if err != nil {
		return zero, err
	}
	delete(fields, idKey)

	body, err := json.Marshal(fields)
	if err != nil {
		return zero, fmt.Errorf("reassemble document: %w", err)
	}
	var doc T
	if err := json.Unmarshal(body, &doc); err != nil {
		return zero, fmt.Errorf("decode document: %w", err)
	}
	return Upsert(id, doc), nil
}

// marshalNoEscape serializes v without HTML escaping, so strings land in
// the log exactly as the document carries them.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// splitObject parses data as a JSON object into its raw fields. Non-object
// values, including null, are rejected.
func splitObject(data []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New("record is not a JSON object")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	return fields, nil
}

// decodeID extracts the mandatory id field. The value must be an unsigned
// 32-bit integer; anything else is a decode error.
func decodeID(fields map[string]json.RawMessage) (ID, error) {
	raw, ok := fields[idKey]
	if !ok {
		return 0, fmt.Errorf("record is missing %q", idKey)
	}
	var id ID
	if err := json.Unmarshal(raw, &id); err != nil {
		return 0, fmt.Errorf("record id must be an unsigned 32-bit integer: %w", err)
	}
	return id, nil
}
