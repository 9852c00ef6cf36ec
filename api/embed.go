// Package api holds the published HTTP contract.
package api

import _ "embed"

//go:embed openapi.yaml
var OpenAPI []byte
