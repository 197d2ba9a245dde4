package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	MoveUp    key.Binding
	MoveDown  key.Binding
	MoveLeft  key.Binding
	MoveRight key.Binding
	Indent    key.Binding
	Outdent   key.Binding
	Add       key.Binding
	AddChild  key.Binding
	Edit      key.Binding
	Comment   key.Binding
	Toggle    key.Binding
	Track     key.Binding
	Delete    key.Binding
	Restore   key.Binding
	Purge     key.Binding
	View      key.Binding
	Lens      key.Binding
	Sort      key.Binding
	Priority  key.Binding
	Collapse  key.Binding
	Detail    key.Binding
	Help      key.Binding
	Cancel    key.Binding
	Quit      key.Binding
	Submit    key.Binding
	FocusNext key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "collapse / prev column")),
		Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "expand / next column")),
		MoveUp:    key.NewBinding(key.WithKeys("shift+up", "K"), key.WithHelp("K", "move up")),
		MoveDown:  key.NewBinding(key.WithKeys("shift+down", "J"), key.WithHelp("J", "move down")),
		MoveLeft:  key.NewBinding(key.WithKeys("shift+left", "H"), key.WithHelp("H", "move to previous column")),
		MoveRight: key.NewBinding(key.WithKeys("shift+right", "L"), key.WithHelp("L", "move to next column")),
		Indent:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "indent")),
		Outdent:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "outdent")),
		Add:       key.NewBinding(key.WithKeys("a", "n"), key.WithHelp("a", "add")),
		AddChild:  key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "add subtask")),
		Edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "rename")),
		Comment:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "comment")),
		Toggle:    key.NewBinding(key.WithKeys("x", " "), key.WithHelp("x/space", "complete")),
		Track:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "start/stop timer")),
		Delete:    key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Restore:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "restore")),
		Purge:     key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete forever")),
		View:      key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "list/board")),
		Lens:      key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "all/today/overdue/inbox/trash")),
		Sort:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		Priority:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "priority")),
		Collapse:  key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "fold/unfold")),
		Detail:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Cancel:    key.NewBinding(key.WithKeys("esc", "ctrl+g"), key.WithHelp("esc", "cancel")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Submit:    key.NewBinding(key.WithKeys("enter")),
		FocusNext: key.NewBinding(key.WithKeys("tab", "shift+tab", "left", "right")),
	}
}

// ShortHelp and FullHelp implement help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Toggle, k.Track, k.View, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Collapse, k.Detail},
		{k.Add, k.AddChild, k.Edit, k.Comment, k.Toggle, k.Priority},
		{k.MoveUp, k.MoveDown, k.MoveLeft, k.MoveRight, k.Indent, k.Outdent, k.Track},
		{k.Delete, k.Restore, k.Purge, k.View, k.Lens, k.Sort, k.Quit},
	}
}
