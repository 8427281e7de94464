// Package data embeds the prompt templates and the static OOXML package
// parts used by the native document renderers.
package data

import (
	"embed"
)

//go:embed prompts/*.tmpl
var Prompts embed.FS

//go:embed all:ooxml
var OOXML embed.FS
