package httpapi

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// queryRequestSchema constrains the database-query wire shape before it is
// decoded: filter is a recursive compound-or-leaf object, sorts name either
// a property or a timestamp with a direction, and pagination controls are
// bounded. Unknown top-level fields are rejected.
const queryRequestSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "filter": {"$ref": "#/$defs/filter"},
    "sorts": {
      "type": "array",
      "items": {"$ref": "#/$defs/sort"}
    },
    "start_cursor": {"type": "string"},
    "page_size": {"type": "integer", "minimum": 1, "maximum": 100}
  },
  "$defs": {
    "filter": {
      "type": "object",
      "properties": {
        "and": {"type": "array", "items": {"$ref": "#/$defs/filter"}},
        "or": {"type": "array", "items": {"$ref": "#/$defs/filter"}},
        "property": {"type": "string"},
        "title": {"type": "object"},
        "rich_text": {"type": "object"},
        "number": {"type": "object"},
        "checkbox": {"type": "object"},
        "select": {"type": "object"},
        "status": {"type": "object"},
        "multi_select": {"type": "object"},
        "date": {"type": "object"}
      },
      "additionalProperties": false
    },
    "sort": {
      "type": "object",
      "properties": {
        "property": {"type": "string"},
        "timestamp": {"type": "string", "enum": ["created_time", "last_edited_time"]},
        "direction": {"type": "string", "enum": ["ascending", "descending"]}
      },
      "required": ["direction"],
      "additionalProperties": false
    }
  }
}`

var compiledQuerySchema = mustCompileQuerySchema()

func mustCompileQuerySchema() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(queryRequestSchema))
	if err != nil {
		panic(fmt.Sprintf("query schema is not valid JSON: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("query-request.json", doc); err != nil {
		panic(fmt.Sprintf("query schema resource: %v", err))
	}
	schema, err := compiler.Compile("query-request.json")
	if err != nil {
		panic(fmt.Sprintf("query schema compile: %v", err))
	}
	return schema
}

// ValidateQueryRequest checks a raw query body against the schema.
func ValidateQueryRequest(body []byte) error {
	value, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("body is not valid JSON: %w", err)
	}
	if err := compiledQuerySchema.Validate(value); err != nil {
		return err
	}
	return nil
}
