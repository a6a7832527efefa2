// Package appfs embeds the application's static assets: HTML views, email templates, stylesheets and SQL migrations.
package appfs

import "embed"

// all: keeps the `_`-prefixed layouts
//
//go:embed all:templates migrations static
var FS embed.FS
