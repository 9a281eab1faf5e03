package compare

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const schemaDirective = "@schema"

// isSchemaDirective reports whether the expected body's first line is a
// @schema directive: "@schema path/to/schema.json", "@schema {...}" with
// the schema inline, or a bare "@schema" followed by the schema document.
func isSchemaDirective(body string) bool {
	first, _, _ := strings.Cut(strings.TrimSpace(body), "\n")
	return first == schemaDirective || strings.HasPrefix(first, schemaDirective+" ")
}

// compareSchemaBody validates the actual body against the JSON Schema
// the directive references. Each validation error is one mismatch.
func (c *Comparator) compareSchemaBody(expected, actual string, result *Result) {
	first, rest, _ := strings.Cut(strings.TrimSpace(expected), "\n")
	arg := strings.TrimSpace(strings.TrimPrefix(first, schemaDirective))

	var schemaLoader gojsonschema.JSONLoader
	switch {
	case strings.HasPrefix(arg, "{") || strings.HasPrefix(arg, "["):
		// Inline schema starting on the directive line.
		inline := arg
		if rest != "" {
			inline += "\n" + rest
		}
		schemaLoader = gojsonschema.NewStringLoader(inline)
	case arg != "":
		path := arg
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.baseDir, path)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			result.add("body", arg, nil, fmt.Sprintf("cannot resolve schema path: %v", err))
			return
		}
		schemaLoader = gojsonschema.NewReferenceLoader("file://" + abs)
	default:
		if strings.TrimSpace(rest) == "" {
			result.add("body", expected, nil, "@schema directive has no schema")
			return
		}
		schemaLoader = gojsonschema.NewStringLoader(rest)
	}

	validation, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewStringLoader(actual))
	if err != nil {
		result.add("body", expected, actual, fmt.Sprintf("schema validation failed: %v", err))
		return
	}

	for _, desc := range validation.Errors() {
		field := "body"
		if desc.Field() != "" && desc.Field() != "(root)" {
			field = "body." + desc.Field()
		}
		result.add(field, desc.Details()["expected"], desc.Value(), desc.String())
	}
}
