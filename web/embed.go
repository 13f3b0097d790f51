// Package web embeds the HTML templates and static assets of the library manager.
package web

import "embed"

// TemplatesFS contains the HTML templates under templates/.
//
//go:embed all:templates
var TemplatesFS embed.FS

// StaticFS contains the stylesheet under static/.
//
//go:embed all:static
var StaticFS embed.FS
