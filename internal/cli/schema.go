package cli

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// documentDefinition is the CUE definition a schema file may declare to
// scope validation; without it the file's top-level value is the schema.
const documentDefinition = "#Document"

// Schema validates documents against a CUE definition before they are
// written to the log.
type Schema struct {
	value cue.Value
}

// LoadSchema compiles the CUE file at path into a document schema. If the
// file declares #Document, that definition is the schema; otherwise the
// file's top-level value is used directly.
func LoadSchema(path string) (*Schema, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}

	ctx := cuecontext.New()
	value := ctx.CompileBytes(src, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	if def := value.LookupPath(cue.ParsePath(documentDefinition)); def.Exists() {
		value = def
	}
	return &Schema{value: value}, nil
}

// Validate unifies doc with the schema and reports the first conflict.
// The document must be fully concrete after unification, so required
// fields without defaults are enforced.
func (s *Schema) Validate(doc Object) error {
	encoded := s.value.Context().Encode(doc)
	if err := encoded.Err(); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	unified := s.value.Unify(encoded)
	if err := unified.Err(); err != nil {
		return err
	}
	return unified.Validate(cue.Concrete(true))
}
