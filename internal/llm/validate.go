package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// CompileSchema turns a schema literal into a reusable validator.
func CompileSchema(name string, schema map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", name, err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	return c.Compile(name)
}

// ValidateJSON decodes data and checks it against s.
func ValidateJSON(s *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("response is not json: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("response does not match %s: %w", s.Location, err)
	}
	return nil
}

var chatCompletion = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return CompileSchema("chat_completion.json", ChatCompletionSchema())
})

// ValidateChatCompletion checks that a provider body has a readable first choice.
func ValidateChatCompletion(data []byte) error {
	s, err := chatCompletion()
	if err != nil {
		return err
	}
	return ValidateJSON(s, data)
}
