/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"embed"
	"fmt"
)

//go:embed favicons/*
var favicons embed.FS

// faviconLinks returns the head tags pointing at the embedded icon set.
func faviconLinks(prefix string) string {
	return fmt.Sprintf(`<link rel="icon" type="image/svg+xml" href="%[1]s/favicons/favicon.svg">`+
		`<link rel="manifest" href="%[1]s/favicons/site.webmanifest" crossorigin="use-credentials">`+
		`<meta name="theme-color" content="#060ce9">`, prefix)
}
