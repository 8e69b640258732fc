// Package api holds the OpenAPI description of the HTTP interface.
package api

import _ "embed"

// Swagger is the OpenAPI 3 document served at /swagger.yaml and used for
// request validation.
//
//go:embed swagger.yaml
var Swagger []byte
