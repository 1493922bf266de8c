package gpt

import (
	"github.com/xeipuuv/gojsonschema"
)

type shape int

const (
	shapeUnknown shape = iota
	shapeSuccess
	shapeError
)

// Only the first element of choices is constrained; the rest are ignored.
const successSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-04/schema#",
	"type": "object",
	"required": ["choices"],
	"properties": {
		"choices": {
			"type": "array",
			"minItems": 1,
			"items": [{
				"type": "object",
				"required": ["message"],
				"properties": {
					"message": {
						"type": "object",
						"required": ["content"],
						"properties": {
							"content": {"type": "string"}
						}
					}
				}
			}]
		}
	}
}`

const errorSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-04/schema#",
	"type": "object",
	"required": ["error"],
	"properties": {
		"error": {
			"type": "object",
			"required": ["message"],
			"properties": {
				"message": {"type": "string"}
			}
		}
	}
}`

var (
	successSchema = mustSchema(successSchemaJSON)
	errorSchema   = mustSchema(errorSchemaJSON)
)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic("gpt: invalid response schema: " + err.Error())
	}
	return schema
}

// classify reports which known shape body matches. body must be valid JSON.
// The success shape wins when a body matches both.
func classify(body []byte) shape {
	if matches(successSchema, body) {
		return shapeSuccess
	}
	if matches(errorSchema, body) {
		return shapeError
	}
	return shapeUnknown
}

func matches(schema *gojsonschema.Schema, body []byte) bool {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return false
	}
	return result.Valid()
}
