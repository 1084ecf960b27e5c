package tui

import (
	"fmt"
	"strings"

	"cafeteria/internal/models"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const tablesPerRow = 5

func (m Model) managerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	orders := m.monitor.Snapshot().Orders
	switch {
	case key.Matches(msg, keys.Up):
		m.orderCursor = clamp(m.orderCursor-1, len(orders))
	case key.Matches(msg, keys.Down):
		m.orderCursor = clamp(m.orderCursor+1, len(orders))
	case key.Matches(msg, keys.Refresh):
		mon, ctx := m.monitor, m.ctx
		return m, func() tea.Msg {
			mon.Refresh(ctx)
			return ChangedMsg{}
		}
	case key.Matches(msg, keys.Advance):
		if m.advancing || len(orders) == 0 {
			return m, nil
		}
		order := orders[clamp(m.orderCursor, len(orders))]
		if _, ok := order.Status.Next(); !ok {
			return m, nil
		}
		m.advancing = true
		mon, ctx := m.monitor, m.ctx
		return m, func() tea.Msg {
			return advanceResultMsg{err: mon.Advance(ctx, order)}
		}
	}
	return m, nil
}

func (m Model) managerView() string {
	snap := m.monitor.Snapshot()
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Painel da Cafeteria") + "\n")
	b.WriteString(mutedStyle.Render("Gestão de pedidos em tempo real") + "\n\n")

	cards := []string{
		card("Pedidos Pendentes", fmt.Sprint(snap.Stats.OrderCount(models.OrderStatusPending))),
		card("Preparando", fmt.Sprint(snap.Stats.OrderCount(models.OrderStatusPreparing))),
		card("Prontos", fmt.Sprint(snap.Stats.OrderCount(models.OrderStatusReady))),
		card("Vendas Hoje", models.FormatMoney(snap.Stats.TodayRevenue)),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...) + "\n")

	b.WriteString(sectionStyle.Render("Status das Mesas") + "\n")
	b.WriteString(tableGrid(snap.Tables) + "\n")

	b.WriteString(sectionStyle.Render("Pedidos Ativos") + "\n")
	switch {
	case !snap.Loaded:
		b.WriteString(m.spinner.View() + " Carregando...")
	case len(snap.Orders) == 0:
		b.WriteString(mutedStyle.Render("Nenhum pedido ativo no momento"))
	default:
		cursor := clamp(m.orderCursor, len(snap.Orders))
		for i, order := range snap.Orders {
			b.WriteString(orderBlock(order, i == cursor) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func card(label, value string) string {
	return cardStyle.Render(mutedStyle.Render(label) + "\n" + lipgloss.NewStyle().Bold(true).Render(value))
}

func tableGrid(tables []models.Table) string {
	if len(tables) == 0 {
		return mutedStyle.Render("Nenhuma mesa cadastrada")
	}
	var rows []string
	var row []string
	for i, t := range tables {
		cell := busyTableStyle.Render(fmt.Sprintf("Mesa %-2d Ocupada", t.Number))
		if t.Available() {
			cell = freeTableStyle.Render(fmt.Sprintf("Mesa %-2d Livre  ", t.Number))
		}
		row = append(row, cell)
		if (i+1)%tablesPerRow == 0 {
			rows = append(rows, strings.Join(row, " "))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, strings.Join(row, " "))
	}
	return strings.Join(rows, "\n")
}

func orderBlock(order models.Order, selected bool) string {
	var b strings.Builder

	status := order.Status.Label()
	if style, ok := statusStyles[string(order.Status)]; ok {
		status = style.Render(status)
	}
	created := ""
	if !order.CreatedAt.IsZero() {
		created = order.CreatedAt.Local().Format("15:04:05")
	}
	fmt.Fprintf(&b, "Mesa %d  %s  %s\n", order.TableNumber, status, priceStyle.Render(models.FormatMoney(order.TotalAmount)))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("Garçom: %s  %s", order.WaiterName, created)) + "\n")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "  %dx %-22s %s\n", item.Quantity, item.MenuItemName, models.FormatMoney(item.Subtotal()))
	}
	if order.SpecialRequests != nil && *order.SpecialRequests != "" {
		b.WriteString("Observações: " + *order.SpecialRequests + "\n")
	}
	if action := order.Status.ActionLabel(); action != "" {
		b.WriteString(selectedStyle.Render("[a] " + action))
	}

	marker := "  "
	if selected {
		marker = "› "
	}
	return pane(selected).Render(marker + strings.TrimRight(b.String(), "\n"))
}
