package tui

import (
	"fmt"
	"strings"

	"cafeteria/internal/composer"
	"cafeteria/internal/models"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

const menuRows = 8

func (m Model) waiterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Submit):
		return m, m.submit()
	case key.Matches(msg, keys.NextPane):
		return m, m.setFocus((m.focus + 1) % focusCount)
	case key.Matches(msg, keys.PrevPane):
		return m, m.setFocus((m.focus + focusCount - 1) % focusCount)
	}

	if m.focus == focusName || m.focus == focusNotes {
		return m.updateInputs(msg)
	}

	st := m.composer.State()
	switch m.focus {
	case focusTables:
		switch {
		case key.Matches(msg, keys.Left, keys.Up):
			m.tableCursor = clamp(m.tableCursor-1, len(st.Tables))
		case key.Matches(msg, keys.Right, keys.Down):
			m.tableCursor = clamp(m.tableCursor+1, len(st.Tables))
		case key.Matches(msg, keys.Select):
			if len(st.Tables) > 0 {
				if err := m.composer.SelectTable(st.Tables[m.tableCursor].Number); err != nil {
					m.setFlash(composer.UserMessage(err), true)
				}
			}
		}

	case focusCategories:
		moved := m.categoryCursor
		switch {
		case key.Matches(msg, keys.Left, keys.Up):
			moved = clamp(m.categoryCursor-1, len(st.Categories))
		case key.Matches(msg, keys.Right, keys.Down):
			moved = clamp(m.categoryCursor+1, len(st.Categories))
		}
		if moved != m.categoryCursor && len(st.Categories) > 0 {
			m.categoryCursor = moved
			m.composer.SetCategory(st.Categories[moved].Category)
			m.menuCursor = 0
		}

	case focusMenu:
		switch {
		case key.Matches(msg, keys.Up):
			m.menuCursor = clamp(m.menuCursor-1, len(st.Menu))
		case key.Matches(msg, keys.Down):
			m.menuCursor = clamp(m.menuCursor+1, len(st.Menu))
		case key.Matches(msg, keys.Select, keys.Add):
			if len(st.Menu) > 0 {
				m.composer.AddItem(st.Menu[m.menuCursor])
			}
		}

	case focusCart:
		switch {
		case key.Matches(msg, keys.Up):
			m.cartCursor = clamp(m.cartCursor-1, len(st.Cart))
		case key.Matches(msg, keys.Down):
			m.cartCursor = clamp(m.cartCursor+1, len(st.Cart))
		case key.Matches(msg, keys.Add):
			if len(st.Cart) > 0 {
				if err := m.composer.AddItemByID(st.Cart[m.cartCursor].MenuItemID); err != nil {
					m.log.WithError(err).Warn("failed to add cart item")
				}
			}
		case key.Matches(msg, keys.Remove):
			if len(st.Cart) > 0 {
				m.composer.RemoveItem(st.Cart[m.cartCursor].MenuItemID)
				m.cartCursor = clamp(m.cartCursor, len(m.composer.State().Cart))
			}
		}
	}
	return m, nil
}

func (m *Model) setFocus(f focus) tea.Cmd {
	m.focus = f
	m.nameInput.Blur()
	m.notesInput.Blur()
	switch f {
	case focusName:
		return m.nameInput.Focus()
	case focusNotes:
		return m.notesInput.Focus()
	}
	return nil
}

func (m *Model) submit() tea.Cmd {
	if m.composer.Submitting() {
		return nil
	}
	m.flash = ""
	comp, ctx := m.composer, m.ctx
	return func() tea.Msg {
		order, err := comp.Submit(ctx)
		return submitResultMsg{order: order, err: err}
	}
}

func (m Model) waiterView() string {
	st := m.composer.State()
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Interface do Garçom") + "\n")
	b.WriteString(pane(m.focus == focusName).Render("Garçom: "+m.nameInput.View()) + "\n")

	// tables
	var tables []string
	for i, t := range st.Tables {
		label := fmt.Sprintf("Mesa %d (%d)", t.Number, t.Capacity)
		if st.SelectedTable != nil && st.SelectedTable.Number == t.Number {
			label = selectedStyle.Render("✓ " + label)
		}
		if m.focus == focusTables && i == m.tableCursor {
			label = cursorStyle.Render(label)
		}
		tables = append(tables, label)
	}
	tableLine := mutedStyle.Render("Nenhuma mesa livre")
	if len(tables) > 0 {
		tableLine = strings.Join(tables, "  ")
	}
	b.WriteString(pane(m.focus == focusTables).Render("Selecionar Mesa\n"+tableLine) + "\n")

	// categories
	var cats []string
	for i, c := range st.Categories {
		label := c.Category
		if c.Category == models.CategoryAll {
			label = "Todos"
		}
		if c.Category == st.Category {
			label = selectedStyle.Render(label)
		}
		if m.focus == focusCategories && i == m.categoryCursor {
			label = cursorStyle.Render(label)
		}
		cats = append(cats, label)
	}
	b.WriteString(pane(m.focus == focusCategories).Render(strings.Join(cats, " · ")) + "\n")

	// menu
	var menu strings.Builder
	menu.WriteString("Cardápio\n")
	start, end := visible(len(st.Menu), m.menuCursor, menuRows)
	for i := start; i < end; i++ {
		item := st.Menu[i]
		line := fmt.Sprintf("%-24s %s", item.Name, priceStyle.Render(models.FormatMoney(item.Price)))
		if m.focus == focusMenu && i == m.menuCursor {
			line = cursorStyle.Render(line)
		}
		menu.WriteString(line + "\n")
		if item.Description != "" {
			menu.WriteString(mutedStyle.Render("  "+item.Description) + "\n")
		}
	}
	if len(st.Menu) == 0 {
		menu.WriteString(mutedStyle.Render(m.spinner.View() + " Carregando cardápio..."))
	}
	b.WriteString(pane(m.focus == focusMenu).Render(strings.TrimRight(menu.String(), "\n")) + "\n")

	// cart
	var cart strings.Builder
	cart.WriteString("Pedido\n")
	if len(st.Cart) == 0 {
		cart.WriteString(mutedStyle.Render("Carrinho vazio") + "\n")
	}
	for i, line := range st.Cart {
		text := fmt.Sprintf("[-] %d [+]  %-22s %s", line.Quantity, line.Name, models.FormatMoney(line.Subtotal()))
		if m.focus == focusCart && i == m.cartCursor {
			text = cursorStyle.Render(text)
		}
		cart.WriteString(text + "\n")
	}
	b.WriteString(pane(m.focus == focusCart).Render(strings.TrimRight(cart.String(), "\n")) + "\n")
	b.WriteString(pane(m.focus == focusNotes).Render(m.notesInput.View()) + "\n")

	button := "[ctrl+s] Enviar Pedido"
	if st.Submitting {
		button = m.spinner.View() + " Enviando..."
	}
	b.WriteString(priceStyle.Render("Total: "+models.FormatMoney(st.Total)) + "   " + button)
	return b.String()
}

// visible returns the window of at most size rows that keeps cursor in view
func visible(n, cursor, size int) (int, int) {
	if n <= size {
		return 0, n
	}
	start := cursor - size/2
	if start < 0 {
		start = 0
	}
	if start+size > n {
		start = n - size
	}
	return start, start + size
}
