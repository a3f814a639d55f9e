package cli

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"mercator-hq/mdast/pkg/ast"
)

//go:embed schema/mdast.schema.json
var mdastSchema []byte

// Validation stages reported by ValidationError.
const (
	StageWellFormed = "well_formed"
	StageRoundTrip  = "round_trip"
	StageSchema     = "schema"
)

// ValidationError reports output that failed validation.
type ValidationError struct {
	Stage   string
	Details []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("JSON validation failed (%s): %s", e.Stage, strings.Join(e.Details, "; "))
}

// Validator checks formatted output before it is written.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles the schema at schemaPath, or the built-in mdast
// schema when schemaPath is empty.
func NewValidator(schemaPath string) (*Validator, error) {
	src := mdastSchema
	if schemaPath != "" {
		data, err := os.ReadFile(schemaPath)
		if err != nil {
			return nil, NewIOError(OpRead, schemaPath, err)
		}
		src = data
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(src))
	if err != nil {
		return nil, NewConfigError("output.schema", err.Error())
	}
	return &Validator{schema: schema}, nil
}

// Validate checks that data is well-formed JSON, decodes to a tree equal
// to tree and satisfies the schema.
func (v *Validator) Validate(data []byte, tree *ast.Node) error {
	if !json.Valid(data) {
		return &ValidationError{Stage: StageWellFormed, Details: []string{"output is not well-formed JSON"}}
	}

	var decoded ast.Node
	if err := decoded.UnmarshalJSON(data); err != nil {
		return &ValidationError{Stage: StageRoundTrip, Details: []string{err.Error()}}
	}
	if !ast.Equal(tree, &decoded) {
		return &ValidationError{Stage: StageRoundTrip, Details: []string{"decoded output differs from the parsed tree"}}
	}

	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &ValidationError{Stage: StageSchema, Details: []string{err.Error()}}
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return &ValidationError{Stage: StageSchema, Details: details}
	}
	return nil
}
