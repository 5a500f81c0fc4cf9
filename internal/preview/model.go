// Package preview provides the Bubble Tea spectrum preview.
package preview

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/dsc2asc/internal/chart"
	"github.com/verte-zerg/dsc2asc/internal/convert"
	"github.com/verte-zerg/dsc2asc/internal/descriptor"
	"github.com/verte-zerg/dsc2asc/internal/model"
)

const (
	maxTableRows  = 6
	labelReserve  = 12
	minBodyHeight = 4
	// Metadata cards plus chart title, axis labels and rule.
	chartChrome = 9
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	missingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardStyle    = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// Model implements the Bubble Tea preview UI.
type Model struct {
	desc     model.ScanDescriptor
	base     string
	resolver convert.Resolver
	cfg      model.PreviewConfig

	items   []convert.Availability
	present int

	intervals table.Model
	chartView viewport.Model
	shown     int
	errMsg    string

	width  int
	height int
}

// NewModel constructs a preview model. cfg.Interval is a zero-based descriptor index; the
// chart starts there when that interval has data, otherwise on the first one that does.
func NewModel(desc model.ScanDescriptor, base string, resolver convert.Resolver, cfg model.PreviewConfig) *Model {
	items, present := convert.Survey(desc, resolver)
	m := &Model{
		desc:      desc,
		base:      base,
		resolver:  resolver,
		cfg:       cfg,
		items:     items,
		present:   present,
		chartView: viewport.New(0, 0),
		shown:     -1,
	}
	m.intervals = buildIntervalTable(items)
	start := convert.FirstPresent(items)
	for _, item := range items {
		if item.Index == cfg.Interval && item.Present {
			start = item.Index
		}
	}
	if start >= 0 {
		m.intervals.SetCursor(m.rowOf(start))
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderSelected(true)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "up", "k":
			m.moveSelection(-1)
			return m, nil
		case "down", "j":
			m.moveSelection(1)
			return m, nil
		case "pgup", "pgdown", "home", "end":
			var cmd tea.Cmd
			m.chartView, cmd = m.chartView.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// moveSelection steps the cursor to the next interval with data in direction dir, skipping
// missing ones. The cursor stays put when there is none.
func (m *Model) moveSelection(dir int) {
	for row := m.intervals.Cursor() + dir; row >= 0 && row < len(m.items); row += dir {
		if m.items[row].Present {
			m.intervals.SetCursor(row)
			m.renderSelected(false)
			return
		}
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	parts := []string{
		m.renderHeader(),
		m.intervals.View(),
		m.chartView.View(),
		m.renderFooter(),
	}
	return strings.Join(parts, "\n")
}

func (m *Model) renderHeader() string {
	title := titleStyle.Render(m.base)
	summary := headerStyle.Render(fmt.Sprintf("Intervals: %d  Convertible: %d of %d", len(m.desc.Intervals), m.present, len(m.items)))
	return title + "  " + summary
}

func (m *Model) renderFooter() string {
	help := headerStyle.Render("Select: up/down  Scroll chart: pgup/pgdn  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) updateLayout() {
	rows := len(m.items)
	if rows > maxTableRows {
		rows = maxTableRows
	}
	if rows < 1 {
		rows = 1
	}
	m.intervals.SetHeight(rows + 1)
	m.intervals.SetWidth(m.width)

	bodyHeight := m.height - 1 - (rows + 2) - 2
	if bodyHeight < minBodyHeight {
		bodyHeight = minBodyHeight
	}
	m.chartView.Width = m.width
	m.chartView.Height = bodyHeight
}

// renderSelected redraws the chart when the selection moved or force is set.
func (m *Model) renderSelected(force bool) {
	if len(m.items) == 0 {
		m.chartView.SetContent("No intervals with data files declared.")
		return
	}
	item := m.items[m.intervals.Cursor()]
	if item.Index == m.shown && !force {
		return
	}
	m.shown = item.Index
	m.errMsg = ""
	if !item.Present {
		m.chartView.SetContent(missingStyle.Render(fmt.Sprintf("No data file %s", convert.SiblingName(m.base, item.Interval))))
		return
	}
	content, err := m.renderChart(item)
	if err != nil {
		m.errMsg = err.Error()
		m.chartView.SetContent("Failed to load interval.")
		return
	}
	m.chartView.SetContent(content)
	m.chartView.GotoTop()
}

func (m *Model) renderChart(item convert.Availability) (string, error) {
	xs, ys, err := convert.Samples(context.Background(), m.resolver, item.Interval)
	if err != nil {
		return "", err
	}
	height := m.cfg.Height
	if height <= 0 {
		height = m.chartView.Height - chartChrome
	}
	if height < minBodyHeight {
		height = minBodyHeight
	}
	width := m.width - labelReserve
	var buf bytes.Buffer
	spec := chart.ForInterval(item.Label(), xs, ys)
	if err := chart.PlotWithColor(&buf, spec, width, height, m.cfg.Color); err != nil {
		return "", err
	}
	return metadataCards(m.desc, len(ys)) + "\n" + strings.TrimRight(buf.String(), "\n"), nil
}

func (m *Model) rowOf(index int) int {
	for row, item := range m.items {
		if item.Index == index {
			return row
		}
	}
	return 0
}

func buildIntervalTable(items []convert.Availability) table.Model {
	columns := []table.Column{
		{Title: "#", Width: 3},
		{Title: "Start", Width: 9},
		{Title: "End", Width: 9},
		{Title: "Step", Width: 8},
		{Title: "File", Width: 6},
		{Title: "Status", Width: 8},
	}
	rows := make([]table.Row, 0, len(items))
	for _, item := range items {
		status := "OK"
		if !item.Present {
			status = "missing"
		}
		rows = append(rows, table.Row{
			strconv.Itoa(item.Index + 1),
			strconv.FormatFloat(item.Interval.Start, 'g', -1, 64),
			strconv.FormatFloat(item.Interval.End, 'g', -1, 64),
			strconv.FormatFloat(item.Interval.Step, 'g', -1, 64),
			item.Interval.FileExtension,
			status,
		})
	}
	return table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
	)
}

func metadataCards(desc model.ScanDescriptor, samples int) string {
	fields := descriptor.LabeledFields(desc)
	cards := make([]string, 0, len(fields)+2)
	for _, f := range fields {
		cards = append(cards, metricCard(f.Label, f.Value))
	}
	cards = append(cards,
		metricCard("Total intervals", strconv.Itoa(len(desc.Intervals))),
		metricCard("Samples", strconv.Itoa(samples)),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}
