// Package colors contains a small palette of named scenecore.Color values, so configuration files can refer to colors by name
// ("white", "sky_blue", "darkest_gray", etc).
package colors

import (
	"strings"

	"github.com/solarlune/scenecore"
)

var (
	Transparent = scenecore.NewColor(0, 0, 0, 0)
	White       = scenecore.NewColor(1, 1, 1, 1)
	Black       = scenecore.NewColor(0, 0, 0, 1)
	Gray        = scenecore.NewColor(0.5, 0.5, 0.5, 1)
	LightGray   = scenecore.NewColor(0.8, 0.8, 0.8, 1)
	DarkGray    = scenecore.NewColor(0.25, 0.25, 0.25, 1)
	DarkestGray = scenecore.NewColor(0.1, 0.1, 0.1, 1)
	Slate       = scenecore.NewColor(0.235, 0.275, 0.314, 1)
	Red         = scenecore.NewColor(1, 0, 0, 1)
	PaleRed     = scenecore.NewColor(1, 0.5, 0.5, 1)
	Orange      = scenecore.NewColor(1, 0.5, 0, 1)
	Yellow      = scenecore.NewColor(1, 1, 0, 1)
	Green       = scenecore.NewColor(0, 1, 0, 1)
	SkyBlue     = scenecore.NewColor(0, 0.5, 1, 1)
	Turquoise   = scenecore.NewColor(0, 1, 1, 1)
	Blue        = scenecore.NewColor(0, 0, 1, 1)
	Pink        = scenecore.NewColor(1, 0, 1, 1)
	Purple      = scenecore.NewColor(0.5, 0, 1, 1)
)

var named = map[string]scenecore.Color{
	"transparent":  Transparent,
	"white":        White,
	"black":        Black,
	"gray":         Gray,
	"light_gray":   LightGray,
	"dark_gray":    DarkGray,
	"darkest_gray": DarkestGray,
	"slate":        Slate,
	"red":          Red,
	"pale_red":     PaleRed,
	"orange":       Orange,
	"yellow":       Yellow,
	"green":        Green,
	"sky_blue":     SkyBlue,
	"turquoise":    Turquoise,
	"blue":         Blue,
	"pink":         Pink,
	"purple":       Purple,
}

// Named returns the palette color with the given name. Names are case-insensitive, and spaces or dashes may be used in place of
// underscores.
func Named(name string) (scenecore.Color, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.NewReplacer(" ", "_", "-", "_").Replace(name)
	c, ok := named[name]
	return c, ok
}
