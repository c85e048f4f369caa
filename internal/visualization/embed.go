package visualization

import "embed"

// templates contains the embedded HTML for the canvas page.
//
//go:embed templates/*
var templates embed.FS
