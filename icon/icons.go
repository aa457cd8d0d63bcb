package icon

// Icon identifies a symbol in the registry.
type Icon int

const (
	Success Icon = iota
	Fail
	Progress
	Warn
	Link
	Queue
)

var icons = map[Icon]glyphs{
	Success: {
		emoji:   "🎉",
		nerd:    "\uf00c",
		plain:   "✓",
		kaomoji: "(ᵔ◡ᵔ)",
		squares: "🟩",
	},
	Fail: {
		emoji:   "💀",
		nerd:    "\uf00d",
		plain:   "✖",
		kaomoji: "(╥﹏╥)",
		squares: "🟥",
	},
	Progress: {
		emoji:   "⏳",
		nerd:    "\uf110",
		plain:   "…",
		kaomoji: "(・_・ヾ",
		squares: "🟦",
	},
	Warn: {
		emoji:   "⚠️",
		nerd:    "\uf071",
		plain:   "!",
		kaomoji: "(・・;)",
		squares: "🟨",
	},
	Link: {
		emoji:   "🔗",
		nerd:    "\uf0c1",
		plain:   "→",
		kaomoji: "(^_^)b",
		squares: "🟪",
	},
	Queue: {
		emoji:   "📥",
		nerd:    "\uf01a",
		plain:   "+",
		kaomoji: "(っ˘ω˘ς )",
		squares: "⬛",
	},
}
