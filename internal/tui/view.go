package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/idelchi/dirdive/internal/size"
)

const barWidth = 20

type styles struct {
	base      lipgloss.Style
	container lipgloss.Style
	header    lipgloss.Style
	title     lipgloss.Style
	subtitle  lipgloss.Style
	status    lipgloss.Style
	muted     lipgloss.Style
	danger    lipgloss.Style
	warning   lipgloss.Style
	confirm   lipgloss.Style
	chip      lipgloss.Style
}

//nolint:gochecknoglobals // Style sheet
var ui = styles{
	base: lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("238")),
	container: lipgloss.NewStyle().Padding(0, 1),
	header:    lipgloss.NewStyle().Padding(0, 1),
	title:     lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true),
	subtitle:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	status:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
	muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	danger:    lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
	warning:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	confirm:   lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("203")).Bold(true).Padding(0, 1),
	chip:      lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("62")).Padding(0, 1),
}

func newTable() table.Model {
	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithKeyMap(tableKeyMap()),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("238")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(true)
	t.SetStyles(s)

	return t
}

func columns(width int) []table.Column {
	sizeWidth := 12
	pctWidth := 7
	nameWidth := max(width-sizeWidth-pctWidth-barWidth-12, 20)

	return []table.Column{
		{Title: "Directory", Width: nameWidth},
		{Title: "Size", Width: sizeWidth},
		{Title: "%", Width: pctWidth},
		{Title: "", Width: barWidth},
	}
}

// bar renders a proportional bar for part relative to the largest entry.
func bar(part, largest int64) string {
	if largest <= 0 || part <= 0 {
		return ""
	}

	n := int(float64(barWidth) * float64(part) / float64(largest))
	if n == 0 {
		n = 1
	}

	return strings.Repeat("█", n)
}

func (m *model) setTableRows() {
	entries := m.state.Result.Entries
	total := m.state.Result.Total()

	var largest int64
	if len(entries) > 0 {
		largest = entries[0].Size
	}

	rows := make([]table.Row, 0, len(entries))

	for _, e := range entries {
		pct := 0.0
		if total > 0 {
			pct = 100.0 * float64(e.Size) / float64(total)
		}

		rows = append(rows, table.Row{
			e.Name(),
			size.Format(e.Size),
			fmt.Sprintf("%.1f%%", pct),
			bar(e.Size, largest),
		})
	}

	m.table.SetRows(rows)

	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading…"
	}

	view := lipgloss.JoinVertical(
		lipgloss.Left,
		m.headerView(),
		ui.base.Render(m.table.View()),
		m.statusView(),
		m.footerView(),
	)

	return ui.container.Render(view)
}

func (m *model) updateLayout(width, height int) {
	if width == 0 || height == 0 {
		return
	}

	m.width = max(width, 60)
	m.height = max(height, 12)

	m.table.SetColumns(columns(m.width))

	headerHeight := lipgloss.Height(m.headerView())
	statusHeight := lipgloss.Height(m.statusView())
	footerHeight := lipgloss.Height(m.footerView())
	available := max(m.height-headerHeight-statusHeight-footerHeight-4, 5)

	m.table.SetHeight(available)
	m.table.SetWidth(m.width - 4)
}

func (m model) headerView() string {
	title := ui.title.Render("dirdive")
	root := ui.chip.Render("root: " + m.rootLabel())

	line := lipgloss.JoinHorizontal(lipgloss.Left, title, " ", root)

	return ui.header.Render(lipgloss.JoinVertical(lipgloss.Left, line, ui.subtitle.Render(m.trail())))
}

// trail renders the way from the root to the current directory.
func (m model) trail() string {
	if m.state.Current == "" {
		return m.root
	}

	crumbs := m.state.Breadcrumbs()
	parts := make([]string, 0, len(crumbs))
	parts = append(parts, crumbs[0])

	for _, crumb := range crumbs[1:] {
		parts = append(parts, filepath.Base(crumb))
	}

	return strings.Join(parts, " › ")
}

func (m model) rootLabel() string {
	if m.state.Root != "" {
		return m.state.Root
	}

	return m.root
}

func (m model) statusView() string {
	if m.loading {
		return ui.status.Render(fmt.Sprintf("%s %s… %s", m.spinner.View(), m.pending, m.pendingPath))
	}

	if m.err != nil {
		return ui.danger.Render(fmt.Sprintf("Error: %v", m.err))
	}

	res := m.state.Result
	parts := []string{
		fmt.Sprintf("Directories: %d", len(res.Entries)),
		fmt.Sprintf("Total: %s", size.Format(res.Total())),
		fmt.Sprintf("Confirm: %s", boolLabel(m.confirmDeletes)),
	}

	if res.Elapsed > 0 {
		parts = append(parts, fmt.Sprintf("Scan: %s", res.Elapsed.Truncate(10*time.Millisecond)))
	}

	if len(res.Skipped) > 0 {
		parts = append(parts, ui.warning.Render(fmt.Sprintf("Skipped: %d", len(res.Skipped))))
	}

	return ui.status.Render(strings.Join(parts, " · "))
}

func (m model) footerView() string {
	if m.confirm != nil {
		return ui.confirm.Render(fmt.Sprintf("Delete %s (%s)? (y/n)", m.confirm.Path, size.Format(m.confirm.Size)))
	}

	if m.lastEvent != "" {
		return lipgloss.JoinVertical(lipgloss.Left, ui.muted.Render(m.lastEvent), m.help.View(m.keys))
	}

	return m.help.View(m.keys)
}

func boolLabel(value bool) string {
	if value {
		return "on"
	}

	return "off"
}
