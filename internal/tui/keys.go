package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Faster key.Binding
	Slower key.Binding
	Commit key.Binding
	Clear  key.Binding
	Send   key.Binding
	Play   key.Binding
	Submit key.Binding
	Cancel key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Faster, k.Slower, k.Send, k.Commit, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Faster, k.Slower, k.Play},
		{k.Send, k.Submit, k.Cancel},
		{k.Commit, k.Clear},
		{k.Help, k.Quit},
	}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Faster: key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "turn knob up")),
		Slower: key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "turn knob down")),
		Commit: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save settings")),
		Clear:  key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear screen")),
		Send:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "send a line")),
		Play:   key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "play practice")),
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Help:   key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "help")),
		Quit:   key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}
