package server

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const chatRequestSchema = `{
  "type": "object",
  "properties": {
    "messages": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["role", "content"],
        "properties": {
          "role": {"enum": ["user", "assistant", "system"]},
          "content": {"type": "string"}
        }
      }
    },
    "prompt": {"type": "string"},
    "provider": {"type": "string"},
    "model": {"type": "string"},
    "system": {"type": "string"},
    "temperature": {"type": "number", "minimum": 0, "maximum": 2},
    "max_tokens": {"type": "integer", "minimum": 1},
    "top_p": {"type": "number", "minimum": 0, "maximum": 1},
    "top_k": {"type": "integer", "minimum": 0},
    "stop_sequences": {"type": "array", "items": {"type": "string"}},
    "stream": {"type": "boolean"},
    "stream_format": {"enum": ["text", "sse"]},
    "documents": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "content"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "content": {"type": "string"}
        }
      }
    },
    "conversation_id": {"type": "string"}
  },
  "anyOf": [
    {"required": ["messages"]},
    {"required": ["prompt"]}
  ]
}`

const invokeRequestSchema = `{
  "type": "object",
  "required": ["modelId", "prompt"],
  "properties": {
    "modelId": {"type": "string", "minLength": 1},
    "prompt": {"type": "string", "minLength": 1},
    "provider": {"type": "string"},
    "params": {"type": "object"},
    "stream": {"type": "boolean"}
  }
}`

// schemas holds the compiled request schemas.
type schemas struct {
	chat   *jsonschema.Schema
	invoke *jsonschema.Schema
}

func compileSchemas() (*schemas, error) {
	chat, err := compileSchema("chat.json", chatRequestSchema)
	if err != nil {
		return nil, err
	}
	invoke, err := compileSchema("invoke.json", invokeRequestSchema)
	if err != nil {
		return nil, err
	}
	return &schemas{chat: chat, invoke: invoke}, nil
}

func compileSchema(name, raw string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("adding schema %s: %w", name, err)
	}
	return compiler.Compile(name)
}

// validate checks body against schema and decodes it into dst.
func validate(schema *jsonschema.Schema, body []byte, dst any) error {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	if err := schema.Validate(doc); err != nil {
		return badRequest("%s", validationMessage(err))
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	return nil
}

// validationMessage flattens a schema validation error to its leaf causes.
func validationMessage(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}

	var msgs []string
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			msgs = append(msgs, loc+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return strings.Join(msgs, "; ")
}
