package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// RecordsSchema describes the JSON array written by WriteJSON
const RecordsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["pdf", "code", "labels"],
    "additionalProperties": false,
    "properties": {
      "pdf": {"type": "string"},
      "code": {"type": "string"},
      "labels": {
        "type": "array",
        "items": {"type": "string"},
        "uniqueItems": true
      },
      "pictos": {
        "type": "array",
        "items": {"type": "string"},
        "uniqueItems": true
      },
      "error": {"type": "string"},
      "name": {"type": "string"},
      "sheet_code": {"type": "string"},
      "ufi": {"type": "string"}
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func recordsSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("records.json", strings.NewReader(RecordsSchema)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("records.json")
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

// ValidateJSON checks data against RecordsSchema
func ValidateJSON(data []byte) error {
	s, err := recordsSchema()
	if err != nil {
		return err
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
