// Package web carries the embedded single-page UI.
package web

import _ "embed"

// IndexHTML is the query page served at /.
//
//go:embed index.html
var IndexHTML string
