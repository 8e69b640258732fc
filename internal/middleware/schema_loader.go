package middleware

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	contextutils "issuereport/internal/utils"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v2"
)

const schemaRefPrefix = "#/components/schemas/"

// SchemaLoader compiles the component schemas of an OpenAPI document and answers
// which schema applies to a request or response.
type SchemaLoader struct {
	schemas map[string]*gojsonschema.Schema
	paths   map[string]interface{}
}

// NewSchemaLoader creates a new schema loader
func NewSchemaLoader() *SchemaLoader {
	return &SchemaLoader{
		schemas: make(map[string]*gojsonschema.Schema),
		paths:   make(map[string]interface{}),
	}
}

// LoadSchemasFromSwagger parses an OpenAPI YAML document and compiles every
// schema under components/schemas.
func (sl *SchemaLoader) LoadSchemasFromSwagger(data []byte) error {
	var swagger map[interface{}]interface{}
	if err := yaml.Unmarshal(data, &swagger); err != nil {
		return contextutils.WrapError(err, "failed to parse swagger file as YAML")
	}

	doc, err := convertToJSONCompatible(swagger)
	if err != nil {
		return contextutils.WrapError(err, "failed to convert swagger document")
	}
	root, _ := doc.(map[string]interface{})

	if paths, ok := lookupMap(root, "paths"); ok {
		sl.paths = paths
	}

	schemas, ok := lookupMap(root, "components", "schemas")
	if !ok {
		return contextutils.ErrorWithContextf("no schemas section found in swagger")
	}

	for name := range schemas {
		// Each schema is compiled inside the full components tree so $refs resolve.
		completeSchemaDoc := map[string]interface{}{
			"$schema": "http://json-schema.org/draft-07/schema#",
			"components": map[string]interface{}{
				"schemas": schemas,
			},
			"$ref": schemaRefPrefix + name,
		}

		schemaBytes, err := json.Marshal(completeSchemaDoc)
		if err != nil {
			return contextutils.WrapErrorf(err, "failed to marshal schema %s", name)
		}

		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaBytes))
		if err != nil {
			return contextutils.WrapErrorf(err, "failed to load schema %s", name)
		}
		sl.schemas[name] = schema
	}

	return nil
}

// SchemaNames returns the compiled schema names in sorted order
func (sl *SchemaLoader) SchemaNames() []string {
	names := make([]string, 0, len(sl.schemas))
	for name := range sl.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// convertToJSONCompatible converts YAML maps with interface{} keys into
// map[string]interface{} and rewrites OpenAPI "nullable" into JSON Schema unions.
func convertToJSONCompatible(data interface{}) (interface{}, error) {
	switch v := data.(type) {
	case map[interface{}]interface{}:
		result := make(map[string]interface{}, len(v))
		hasNullable := false

		for k, val := range v {
			keyStr, ok := k.(string)
			if !ok {
				// YAML allows numeric keys such as response codes
				keyStr = fmt.Sprint(k)
			}

			if keyStr == "nullable" {
				if nullable, ok := val.(bool); ok && nullable {
					hasNullable = true
				}
				continue
			}

			convertedVal, err := convertToJSONCompatible(val)
			if err != nil {
				return nil, err
			}
			result[keyStr] = convertedVal
		}

		if hasNullable {
			if ref, hasRef := result["$ref"].(string); hasRef {
				result["oneOf"] = []interface{}{
					map[string]interface{}{"$ref": ref},
					map[string]interface{}{"enum": []interface{}{nil}},
				}
				delete(result, "$ref")
			} else if typeVal, hasType := result["type"].(string); hasType {
				result["type"] = []interface{}{typeVal, "null"}
			}
		}

		return result, nil
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, val := range v {
			convertedVal, err := convertToJSONCompatible(val)
			if err != nil {
				return nil, err
			}
			result[i] = convertedVal
		}
		return result, nil
	default:
		return data, nil
	}
}

// lookupMap walks nested string-keyed maps
func lookupMap(m map[string]interface{}, keys ...string) (map[string]interface{}, bool) {
	current := m
	for _, key := range keys {
		next, ok := current[key].(map[string]interface{})
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, current != nil
}

// ValidateData validates data against a schema. Failures are VALIDATION_FAILED
// errors whose details list each violation.
func (sl *SchemaLoader) ValidateData(data interface{}, schemaName string) error {
	schema, exists := sl.schemas[schemaName]
	if !exists {
		return contextutils.ErrorWithContextf("schema %s not found", schemaName)
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return contextutils.WrapError(err, "failed to marshal data")
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(jsonData))
	if err != nil {
		return contextutils.WrapError(err, "validation error")
	}

	if !result.Valid() {
		var validationErrors []string
		for _, validationErr := range result.Errors() {
			validationErrors = append(validationErrors, fmt.Sprintf("%s: %s", validationErr.Field(), validationErr.Description()))
		}
		return contextutils.NewAppError(
			contextutils.ErrorCodeValidationFailed,
			contextutils.SeverityWarn,
			"Invalid request data",
			strings.Join(validationErrors, "; "),
		)
	}

	return nil
}

// operation returns the OpenAPI operation for path and method
func (sl *SchemaLoader) operation(path, method string) (map[string]interface{}, bool) {
	if op, ok := lookupMap(sl.paths, path, strings.ToLower(method)); ok {
		return op, true
	}
	for pattern := range sl.paths {
		if pathMatchesPattern(path, pattern) {
			if op, ok := lookupMap(sl.paths, pattern, strings.ToLower(method)); ok {
				return op, true
			}
		}
	}
	return nil, false
}

// IsEndpointDocumented checks if an endpoint is documented in swagger.yaml
func (sl *SchemaLoader) IsEndpointDocumented(path, method string) bool {
	_, ok := sl.operation(path, method)
	return ok
}

// pathMatchesPattern checks if a request path matches a swagger path pattern
func pathMatchesPattern(requestPath, swaggerPath string) bool {
	requestSegments := strings.Split(requestPath, "/")
	swaggerSegments := strings.Split(swaggerPath, "/")

	if len(requestSegments) != len(swaggerSegments) {
		return false
	}

	for i, swaggerSegment := range swaggerSegments {
		if strings.HasPrefix(swaggerSegment, "{") && strings.HasSuffix(swaggerSegment, "}") {
			continue
		}
		if swaggerSegment != requestSegments[i] {
			return false
		}
	}

	return true
}

// DetermineRequestSchemaFromPath returns the schema name of the JSON request body
// of path and method, or "" when none is documented.
func (sl *SchemaLoader) DetermineRequestSchemaFromPath(path, method string) string {
	op, ok := sl.operation(path, method)
	if !ok {
		return ""
	}
	schema, ok := lookupMap(op, "requestBody", "content", "application/json", "schema")
	if !ok {
		return ""
	}
	return schemaNameFromRef(schema)
}

// DetermineSchemaFromPath returns the schema name of the 200 JSON response of
// path and method, or "" when none is documented.
func (sl *SchemaLoader) DetermineSchemaFromPath(path, method string) string {
	op, ok := sl.operation(path, method)
	if !ok {
		return ""
	}
	schema, ok := lookupMap(op, "responses", "200", "content", "application/json", "schema")
	if !ok {
		return ""
	}
	return schemaNameFromRef(schema)
}

func schemaNameFromRef(schema map[string]interface{}) string {
	ref, ok := schema["$ref"].(string)
	if !ok || !strings.HasPrefix(ref, schemaRefPrefix) {
		return ""
	}
	return strings.TrimPrefix(ref, schemaRefPrefix)
}
