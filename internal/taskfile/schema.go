package taskfile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/kingrea/lattice-tasks/internal/task"
)

//go:embed task.schema.json
var taskSchemaJSON []byte

const taskSchemaURL = "https://github.com/kingrea/lattice-tasks/task.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func taskSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(taskSchemaURL, bytes.NewReader(taskSchemaJSON)); err != nil {
			schemaErr = fmt.Errorf("taskfile: load schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(taskSchemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("taskfile: compile schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// ValidateFields checks decoded frontmatter against the task schema. The
// first violation is returned as a *task.SchemaError carrying source.
func ValidateFields(source string, fields map[string]any) error {
	schema, err := taskSchema()
	if err != nil {
		return err
	}
	// Round-trip through JSON so YAML scalar types (ints, timestamps) match
	// what the validator expects.
	raw, err := json.Marshal(fields)
	if err != nil {
		return &task.SchemaError{Source: source, Reason: "frontmatter is not representable as JSON", Err: err}
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return &task.SchemaError{Source: source, Reason: "frontmatter is not representable as JSON", Err: err}
	}
	if err := schema.Validate(doc); err != nil {
		return schemaViolation(source, err)
	}
	return nil
}

func schemaViolation(source string, err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &task.SchemaError{Source: source, Err: err}
	}
	leaf := firstLeaf(ve)
	return &task.SchemaError{
		Source: source,
		Field:  jsonPointerToPath(leaf.InstanceLocation),
		Reason: leaf.Message,
	}
}

func firstLeaf(err *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(err.Causes) > 0 {
		err = err.Causes[0]
	}
	return err
}

func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}
	path := ""
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			path += fmt.Sprintf("[%d]", idx)
			continue
		}
		if path == "" {
			path = part
		} else {
			path += "." + part
		}
	}
	return path
}
