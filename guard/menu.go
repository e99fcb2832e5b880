package guard

// MenuEntry is one navigation item.
type MenuEntry struct {
	Label string
	Path  string
}

var baseMenu = []MenuEntry{
	{Label: "Competitions", Path: "/dashboard"},
	{Label: "Achievements", Path: "/achievements"},
	{Label: "Profile", Path: "/profile"},
	{Label: "Notifications", Path: "/inbox"},
	{Label: "About", Path: "/about"},
}

var adminEntry = MenuEntry{Label: "Admin Panel", Path: "/admin"}

// Menu lists the navigation entries for role. The admin entry is a display
// filter only; the server enforces access.
func (g *Guard) Menu(role string) []MenuEntry {
	entries := make([]MenuEntry, 0, len(baseMenu)+1)
	entries = append(entries, baseMenu...)
	if g.IsElevated(role) {
		entries = append(entries, adminEntry)
	}
	return entries
}
