package content

// Avatars is the fixed set of avatar glyphs a room can hand out. Display
// names are unique per room but avatars just cycle once exhausted.
var Avatars = []string{
	"🦊", "🐸", "🦁", "🐼", "🐙", "🦄", "🐲", "🦜", "🐺", "🦈", "🎃", "🤖", "🛸", "🌵", "🍄",
}

// Colors pairs with Avatars by index when assigning new participants.
var Colors = []string{
	"#a78bfa", "#f472b6", "#fb923c", "#34d399", "#60a5fa",
	"#facc15", "#f87171", "#2dd4bf", "#a3e635", "#c084fc",
	"#fb7185", "#38bdf8", "#fbbf24", "#4ade80", "#e879f9",
}

// ValidAvatar reports whether a client-supplied avatar is in the known set.
func ValidAvatar(a string) bool {
	for _, known := range Avatars {
		if known == a {
			return true
		}
	}
	return false
}
