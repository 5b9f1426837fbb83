package lancelot

import "embed"

// KitFS contains the templates rendered into a new project.
//
//go:embed templates/*.tmpl
var KitFS embed.FS
