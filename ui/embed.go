// Package ui holds the HTML templates of the web application.
package ui

import "embed"

//go:embed templates
var Files embed.FS
