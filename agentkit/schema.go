// Copyright (c) Microsoft. All rights reserved.

package agentkit

import (
	"encoding/json"
	"reflect"
	"strings"
)

// generateSchemaFromType reflects over a struct value and produces the JSON
// Schema that [NewTypedTool] advertises for the tool's arguments.
func generateSchemaFromType(v any) json.RawMessage {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	b, _ := json.Marshal(schemaForType(t))
	return b
}

// schemaForType maps a Go type onto its JSON Schema fragment. Unrepresentable
// kinds (chan, func, interface) degrade to "string" rather than failing, so a
// sloppy argument struct still yields a schema the model can call with.
func schemaForType(t reflect.Type) map[string]any {
	switch t.Kind() {
	case reflect.String:
		return map[string]any{"type": "string"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.Slice, reflect.Array:
		return map[string]any{
			"type":  "array",
			"items": schemaForType(t.Elem()),
		}
	case reflect.Ptr:
		return schemaForType(t.Elem())
	case reflect.Struct:
		return schemaForStruct(t)
	case reflect.Map:
		// Only string-keyed maps translate to a JSON object
		if t.Key().Kind() == reflect.String {
			return map[string]any{
				"type":                 "object",
				"additionalProperties": schemaForType(t.Elem()),
			}
		}
		return map[string]any{"type": "object"}
	default:
		return map[string]any{"type": "string"}
	}
}

func schemaForStruct(t reflect.Type) map[string]any {
	properties := make(map[string]any)
	var required []string

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name, skip := jsonFieldName(field)
		if skip {
			continue
		}

		prop := schemaForType(field.Type)
		required = applySchemaTag(prop, field.Tag.Get("jsonschema"), name, required)
		properties[name] = prop
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// jsonFieldName resolves the property name from the json struct tag,
// falling back to the Go field name. skip is true for `json:"-"` fields.
func jsonFieldName(field reflect.StructField) (name string, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	name = field.Name
	if tag != "" {
		if base, _, _ := strings.Cut(tag, ","); base != "" {
			name = base
		}
	}
	return name, false
}

// applySchemaTag folds a `jsonschema:"..."` struct tag into the property.
// Recognized keys: description=..., required, enum=a|b|c.
func applySchemaTag(prop map[string]any, tag, name string, required []string) []string {
	if tag == "" {
		return required
	}
	for _, part := range strings.Split(tag, ",") {
		key, val, _ := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		switch key {
		case "description":
			prop["description"] = val
		case "required":
			required = append(required, name)
		case "enum":
			opts := strings.Split(val, "|")
			anyVals := make([]any, len(opts))
			for j, o := range opts {
				anyVals[j] = strings.TrimSpace(o)
			}
			prop["enum"] = anyVals
		}
	}
	return required
}
