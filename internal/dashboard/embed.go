package dashboard

import "embed"

//go:embed all:ui
var uiFS embed.FS
