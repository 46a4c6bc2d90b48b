// Package docs embeds the OpenAPI document served at /api-docs.
package docs

import _ "embed"

//go:embed swagger.json
var swaggerJSON []byte

// Swagger returns a copy of the embedded OpenAPI document.
func Swagger() []byte {
	out := make([]byte, len(swaggerJSON))
	copy(out, swaggerJSON)
	return out
}
