// Package ui embeds the built viewer front-end.
package ui

import "embed"

// DistFS holds the compiled front-end assets served by the API server.
//
//go:embed dist
var DistFS embed.FS
