package yaml

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// ModulePath is the import path that Go comments are resolved against.
const ModulePath = "github.com/macropower/pstart"

// SchemaGenerator generates JSON schemas from Go types.
// Uses [github.com/invopop/jsonschema].
type SchemaGenerator struct {
	v         any
	reflector *jsonschema.Reflector
	dirs      []string
}

// NewSchemaGenerator creates a new [SchemaGenerator] for v. Doc comments of
// the packages in commentDirs, given relative to the module root, become
// schema descriptions. Generate must be called from the module root.
func NewSchemaGenerator(v any, commentDirs ...string) *SchemaGenerator {
	return &SchemaGenerator{
		v:         v,
		dirs:      commentDirs,
		reflector: &jsonschema.Reflector{},
	}
}

// Generate returns the indented JSON schema.
func (g *SchemaGenerator) Generate() ([]byte, error) {
	for _, dir := range g.dirs {
		err := g.reflector.AddGoComments(ModulePath, dir)
		if err != nil {
			return nil, fmt.Errorf("add go comments from %s: %w", dir, err)
		}
	}

	jss := g.reflector.Reflect(g.v)

	b, err := json.MarshalIndent(jss, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return append(b, '\n'), nil
}
