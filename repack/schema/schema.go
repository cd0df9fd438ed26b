package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/theimaginaryfoundation/repack-o-bot/repack"
	"github.com/theimaginaryfoundation/repack-o-bot/repack/fileutils"
)

// Result counts what WriteExportSchemas produced.
type Result struct {
	SchemasWritten int
	BytesWritten   int
}

// Generate reflects v into a plain schema document. strict forbids
// properties beyond the declared ones; the message envelope stays open
// because records carry arbitrary extra fields.
func Generate(v any, strict bool) (map[string]any, error) {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: !strict,
		DoNotReference:            true,
	}
	s := r.Reflect(v)
	b, err := s.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("Generate: marshal schema: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("Generate: decode schema: %w", err)
	}
	return m, nil
}

// WriteExportSchemas writes one schema document per export artifact:
// users.schema.json and channels.schema.json describe elements of the
// strict layout, messages.schema.json the open message envelope.
func WriteExportSchemas(dir string, compact bool) (Result, error) {
	if dir == "" {
		return Result{}, errors.New("WriteExportSchemas: dir is empty")
	}

	docs := []struct {
		name   string
		value  any
		strict bool
	}{
		{"users.schema.json", repack.User{}, true},
		{"channels.schema.json", repack.Channel{}, true},
		{"messages.schema.json", repack.MessageEnvelope{}, false},
	}

	var res Result
	for _, doc := range docs {
		m, err := Generate(doc.value, doc.strict)
		if err != nil {
			return Result{}, fmt.Errorf("WriteExportSchemas: %s: %w", doc.name, err)
		}
		path := filepath.Join(dir, doc.name)
		n, err := fileutils.WriteJSONFileAtomic(path, m, !compact)
		if err != nil {
			return Result{}, fmt.Errorf("WriteExportSchemas: write %s: %w", doc.name, err)
		}
		res.SchemasWritten++
		res.BytesWritten += n
	}
	return res, nil
}
