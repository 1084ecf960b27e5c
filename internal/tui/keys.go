package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit     key.Binding
	Toggle   key.Binding
	NextPane key.Binding
	PrevPane key.Binding
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Select   key.Binding
	Add      key.Binding
	Remove   key.Binding
	Submit   key.Binding
	Advance  key.Binding
	Refresh  key.Binding
}

var keys = keyMap{
	Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "sair")),
	Toggle:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "garçom/gerente")),
	NextPane: key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "próximo painel")),
	PrevPane: key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "painel anterior")),
	Up:       key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "subir")),
	Down:     key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "descer")),
	Left:     key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "anterior")),
	Right:    key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "próximo")),
	Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "escolher")),
	Add:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "adicionar")),
	Remove:   key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "remover")),
	Submit:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "enviar pedido")),
	Advance:  key.NewBinding(key.WithKeys("a", "enter"), key.WithHelp("a", "avançar pedido")),
	Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "atualizar")),
}

func (k keyMap) waiterHelp() []key.Binding {
	return []key.Binding{k.NextPane, k.Select, k.Add, k.Remove, k.Submit, k.Toggle, k.Quit}
}

func (k keyMap) managerHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Advance, k.Refresh, k.Toggle, k.Quit}
}
