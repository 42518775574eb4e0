package tasks

import (
	"bytes"
	"encoding/json"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// documentIndent matches the files written by earlier versions of the service.
const documentIndent = "    "

const documentSchemaURL = "task-calendar.schema.json"

const documentSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "task calendar",
  "type": "object",
  "additionalProperties": {
    "type": "array",
    "items": {
      "type": "object",
      "required": ["task", "done"],
      "properties": {
        "task": {"type": "string"},
        "done": {"type": "boolean"}
      }
    }
  }
}`

var documentSchema = jsonschema.MustCompileString(documentSchemaURL, documentSchemaJSON)

// ValidateDocument checks raw storage bytes against the document schema.
func ValidateDocument(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: empty document", ErrMalformedStorage)
	}
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedStorage, err)
	}
	if err := documentSchema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedStorage, err)
	}
	return nil
}

// DecodeDocument validates and decodes a stored document.
func DecodeDocument(data []byte) (*Calendar, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}
	cal := NewCalendar()
	if err := json.Unmarshal(data, cal); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedStorage, err)
	}
	return cal, nil
}

// EncodeDocument renders the calendar in the pretty-printed storage format.
func EncodeDocument(cal *Calendar) ([]byte, error) {
	if cal == nil {
		cal = NewCalendar()
	}
	data, err := json.MarshalIndent(cal, "", documentIndent)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
