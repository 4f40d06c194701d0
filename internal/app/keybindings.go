package app

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Toggle      key.Binding
	Skip        key.Binding
	QuitRoutine key.Binding
	Copy        key.Binding
	Help        key.Binding
	Leave       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Toggle:      key.NewBinding(key.WithKeys(" ", "space", "p"), key.WithHelp("space", "pause/resume")),
		Skip:        key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n", "skip step")),
		QuitRoutine: key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit routine")),
		Copy:        key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Leave:       key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "leave")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Skip, k.QuitRoutine, k.Help, k.Leave}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Skip, k.QuitRoutine},
		{k.Copy, k.Help, k.Leave},
	}
}

// setActive enables the routine controls only while something is playing.
func (k *keyMap) setActive(active bool) {
	k.Toggle.SetEnabled(active)
	k.Skip.SetEnabled(active)
	k.QuitRoutine.SetEnabled(active)
	k.Copy.SetEnabled(active)
}
