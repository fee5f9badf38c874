package types

// MenuEntryKind tags a menu entry variant
type MenuEntryKind string

const (
	MenuAction    MenuEntryKind = "action"
	MenuSubmenu   MenuEntryKind = "submenu"
	MenuSeparator MenuEntryKind = "separator"
	MenuToggle    MenuEntryKind = "toggle"
)

// Menu is one top-level menu bar item
type Menu struct {
	Title   string      `json:"title"`
	Entries []MenuEntry `json:"entries"`
}

// MenuEntry is a tagged variant. Tag is set for actions and toggles,
// Children for submenus, Checked for toggles.
type MenuEntry struct {
	Kind     MenuEntryKind `json:"kind"`
	Label    string        `json:"label,omitempty"`
	Tag      string        `json:"tag,omitempty"`
	Shortcut string        `json:"shortcut,omitempty"`
	Disabled bool          `json:"disabled,omitempty"`
	Checked  bool          `json:"checked,omitempty"`
	Children []MenuEntry   `json:"children,omitempty"`
}

// Action builds an action entry
func Action(label, tag, shortcut string) MenuEntry {
	return MenuEntry{Kind: MenuAction, Label: label, Tag: tag, Shortcut: shortcut}
}

// Toggle builds a checkable entry
func Toggle(label, tag string, checked bool) MenuEntry {
	return MenuEntry{Kind: MenuToggle, Label: label, Tag: tag, Checked: checked}
}

// Submenu builds a nested menu entry
func Submenu(label string, children ...MenuEntry) MenuEntry {
	return MenuEntry{Kind: MenuSubmenu, Label: label, Children: children}
}

// Separator builds a divider
func Separator() MenuEntry {
	return MenuEntry{Kind: MenuSeparator}
}

// FindTag reports whether any actionable entry in menus carries tag
func FindTag(menus []Menu, tag string) (MenuEntry, bool) {
	var walk func(entries []MenuEntry) (MenuEntry, bool)
	walk = func(entries []MenuEntry) (MenuEntry, bool) {
		for _, e := range entries {
			switch e.Kind {
			case MenuAction, MenuToggle:
				if e.Tag == tag {
					return e, true
				}
			case MenuSubmenu:
				if found, ok := walk(e.Children); ok {
					return found, true
				}
			}
		}
		return MenuEntry{}, false
	}

	for _, m := range menus {
		if e, ok := walk(m.Entries); ok {
			return e, true
		}
	}
	return MenuEntry{}, false
}
