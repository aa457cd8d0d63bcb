// Package icon renders status symbols in the variant the user picked.
package icon

import (
	"github.com/anigrab/anigrab/key"
	"github.com/spf13/viper"
)

const (
	emoji   = "emoji"
	nerd    = "nerd"
	plain   = "plain"
	kaomoji = "kaomoji"
	squares = "squares"
)

// AvailableVariants lists the values accepted by the icons.variant setting.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain, kaomoji, squares}
}

type glyphs struct {
	emoji, nerd, plain, kaomoji, squares string
}

func (g glyphs) in(variant string) string {
	switch variant {
	case emoji:
		return g.emoji
	case nerd:
		return g.nerd
	case plain:
		return g.plain
	case kaomoji:
		return g.kaomoji
	case squares:
		return g.squares
	}
	return ""
}

// Get renders i in the configured variant. Unknown variants render nothing.
func Get(i Icon) string {
	g, ok := icons[i]
	if !ok {
		return ""
	}
	return g.in(viper.GetString(key.IconsVariant))
}
