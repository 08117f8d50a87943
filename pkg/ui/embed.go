// Package ui provides the embedded web UI for namer.
//
// The page is a single self-contained HTML file served by the main server.
// It talks to the /api/v1 endpoints and needs no build step.
package ui

import (
	_ "embed"
)

// IndexHTML is the rename workspace page.
//
//go:embed index.html
var IndexHTML []byte
