package web

import "embed"

//go:embed assets
var AssetsEFS embed.FS
