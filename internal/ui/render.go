package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/thobiasn/skiff/internal/gui"
	"github.com/thobiasn/skiff/internal/input"
	"github.com/thobiasn/skiff/internal/state"
)

// tableTop is the row of the container table's top border.
const tableTop = 1

var tabs = []gui.NavPanel{gui.PanelContainers, gui.PanelLogs, gui.PanelMetrics, gui.PanelInfo}

// snapshot is the presentation state read once per frame, so drawing never
// holds the gui lock and the registry lock together.
type snapshot struct {
	panel    gui.NavPanel
	icon     string
	init     bool
	help     bool
	connect  bool
	mouse    bool
	info     string
	hasInfo  bool
	deleteID state.ContainerID
	deleting bool
	err      state.AppError
	hasErr   bool
}

// regions collects the clickable areas drawn this frame.
type regions struct {
	headers map[state.Header]gui.Rect
	panels  map[gui.NavPanel]gui.Rect
	buttons map[gui.DeleteButton]gui.Rect
}

func newRegions() regions {
	return regions{
		headers: make(map[state.Header]gui.Rect),
		panels:  make(map[gui.NavPanel]gui.Rect),
		buttons: make(map[gui.DeleteButton]gui.Rect),
	}
}

func (m Model) snapshot() snapshot {
	s := snapshot{
		panel:   m.gui.CurrentPanel(),
		icon:    m.gui.LoadingIcon(),
		init:    m.gui.StatusContains(gui.StatusInit),
		help:    m.gui.StatusContains(gui.StatusHelp),
		connect: m.gui.StatusContains(gui.StatusDockerConnect),
		mouse:   m.gui.MouseCapture(),
	}
	s.info, s.hasInfo = m.gui.InfoBox()
	s.deleteID, s.deleting = m.gui.DeleteContainer()
	s.err, s.hasErr = m.app.Error()
	return s
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	snap := m.snapshot()
	if snap.connect {
		m.gui.ClearRegions()
		return m.renderConnect(snap)
	}

	reg := newRegions()
	var (
		body       string
		actions    []gui.Action
		deleteName string
	)
	m.app.View(func(r *state.Registry) {
		body = m.renderBody(r, snap, reg)
		if c := r.Selected(); c != nil {
			actions = gui.Actions(snap.panel, c.State, true, c.IsSelf)
		} else {
			actions = gui.Actions(snap.panel, state.StateUnknown, false, false)
		}
		if snap.deleting {
			deleteName = snap.deleteID.Short()
			if c := r.Get(snap.deleteID); c != nil {
				deleteName = c.Name
			}
		}
	})

	out := body + "\n" + m.renderFooter(actions)

	switch {
	case snap.hasErr:
		out = m.overlayCentered(out, m.errorDialog(snap.err))
	case snap.deleting:
		dialog, buttons := m.deleteDialog(deleteName)
		w, h := blockSize(dialog)
		x, y := centerOffset(w, h, m.width, m.height)
		for b, r := range buttons {
			reg.buttons[b] = gui.Rect{X: x + r.X, Y: y + r.Y, W: r.W, H: r.H}
		}
		out = Overlay(out, dialog, x, y, m.height)
	case snap.help:
		out = m.overlayCentered(out, m.helpDialog(actions, snap.mouse))
	}
	if snap.hasInfo {
		box := renderBox("", " "+snap.info+" ", lipgloss.Width(snap.info)+4, 3, &m.theme)
		w, h := blockSize(box)
		out = Overlay(out, box, max(m.width-w-1, 0), max(m.height-h-1, 0), m.height)
	}

	m.applyRegions(reg)
	return out
}

func (m Model) applyRegions(reg regions) {
	m.gui.ClearRegions()
	for h, r := range reg.headers {
		m.gui.SetHeaderRegion(h, r)
	}
	for p, r := range reg.panels {
		m.gui.SetPanelRegion(p, r)
	}
	for b, r := range reg.buttons {
		m.gui.SetButtonRegion(b, r)
	}
}

func (m Model) overlayCentered(bg, fg string) string {
	w, h := blockSize(fg)
	x, y := centerOffset(w, h, m.width, m.height)
	return Overlay(bg, fg, x, y, m.height)
}

// renderBody draws the title bar, the container table and the panel below
// it. It runs with the registry held.
func (m Model) renderBody(r *state.Registry, snap snapshot, reg regions) string {
	contentH := max(m.height-2, 3)
	tableH := max(contentH*2/5, 4)
	if snap.panel != gui.PanelContainers {
		tableH = max(min(r.Len()+3, contentH/3), 4)
	}
	panelH := max(contentH-tableH, 3)

	parts := []string{
		m.renderTitle(r, snap, reg),
		m.renderTable(r, snap, tableH, reg),
		m.renderPanel(r, snap.panel, panelH),
	}
	return strings.Join(parts, "\n")
}

func (m Model) renderTitle(r *state.Registry, snap snapshot, reg regions) string {
	var b strings.Builder
	head := accentStyle(&m.theme).Bold(true).Render(" skiff") + " " + snap.icon + "  "
	b.WriteString(head)
	x := lipgloss.Width(head)
	for _, p := range tabs {
		label := " " + p.Title() + " "
		w := lipgloss.Width(label)
		reg.panels[p] = gui.Rect{X: x, Y: 0, W: w, H: 1}
		style := mutedStyle(&m.theme)
		if p == snap.panel {
			style = lipgloss.NewStyle().Reverse(true)
		}
		b.WriteString(style.Render(label) + " ")
		x += w + 1
	}

	if s, ok := r.Sorted(); ok {
		right := mutedStyle(&m.theme).Render(fmt.Sprintf("sort: %s %s ", s.Header, s.Direction))
		if pad := m.width - x - lipgloss.Width(right); pad > 0 {
			b.WriteString(strings.Repeat(" ", pad) + right)
		}
	}
	return TruncateStyled(b.String(), m.width)
}

func sortArrow(d state.Direction) string {
	if d == state.Desc {
		return "▼"
	}
	return "▲"
}

// renderTable draws the container list. Header cells are registered as
// click targets for sorting.
func (m Model) renderTable(r *state.Registry, snap snapshot, height int, reg regions) string {
	cols := r.Columns()
	sort, sorted := r.Sorted()
	innerW := m.width - 2

	widths := make([]int, len(state.Headers))
	cells := make([]string, len(state.Headers))
	x := 2
	for i, h := range state.Headers {
		label := h.String()
		if sorted && sort.Header == h {
			label += " " + sortArrow(sort.Direction)
		}
		w := max(cols.Width(h), lipgloss.Width(label))
		widths[i] = w
		cells[i] = padRight(label, w)
		if x < m.width-1 {
			reg.headers[h] = gui.Rect{X: x, Y: tableTop + 1, W: min(w, m.width-1-x), H: 1}
		}
		x += w + 2
	}
	lines := []string{mutedStyle(&m.theme).Bold(true).Render(" " + strings.Join(cells, "  "))}

	items := r.Items()
	sel, hasSel := r.SelectedIndex()
	start, end := window(sel, len(items), height-3)
	for i := start; i < end; i++ {
		row := m.containerRow(items[i], widths)
		if hasSel && i == sel {
			row = cursorRow(row, innerW)
		}
		lines = append(lines, row)
	}
	if len(items) == 0 {
		msg := " no containers"
		if snap.init {
			msg = " loading containers…"
		}
		lines = append(lines, mutedStyle(&m.theme).Render(msg))
	}

	title := "Containers"
	if t := r.ContainerTitle(); t != "" {
		title += " " + t
	}
	return renderBox(title, strings.Join(lines, "\n"), m.width, height, &m.theme)
}

func (m Model) containerRow(c *state.ContainerItem, widths []int) string {
	cpu, _ := c.CPU.Last()
	mem, _ := c.Mem.Last()
	values := []string{
		c.State.String(),
		c.Status,
		cpu.String(),
		mem.String() + " / " + c.MemLimit.String(),
		c.ID.Short(),
		c.Name,
		c.Image,
		c.Rx.String(),
		c.Tx.String(),
	}
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = padRight(v, widths[i])
	}
	cells[0] = lipgloss.NewStyle().Foreground(m.theme.StateColor(c.State)).Render(cells[0])
	if c.IsSelf {
		cells[5] = mutedStyle(&m.theme).Render(cells[5])
	}
	return " " + strings.Join(cells, "  ")
}

// renderPanel draws the area below the table for the current panel. The
// root panel shows the selected container's logs next to its charts.
func (m Model) renderPanel(r *state.Registry, panel gui.NavPanel, height int) string {
	c := r.Selected()
	if c == nil {
		return renderBox(panel.Title(), mutedStyle(&m.theme).Render(" no container selected"), m.width, height, &m.theme)
	}
	switch panel {
	case gui.PanelLogs:
		return m.renderLogs(r, c, m.width, height)
	case gui.PanelMetrics:
		return m.renderMetrics(r, c, m.width, height)
	case gui.PanelInfo:
		return m.renderInfo(c, m.width, height)
	}
	if m.width < 90 {
		return m.renderLogs(r, c, m.width, height)
	}
	chartW := m.width / 3
	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderLogs(r, c, m.width-chartW, height),
		m.renderMetrics(r, c, chartW, height),
	)
}

func (m Model) renderLogs(r *state.Registry, c *state.ContainerItem, width, height int) string {
	lines := c.Logs.Lines()
	sel, ok := c.Logs.Selected()
	start, end := window(sel, len(lines), height-2)
	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		line := " " + lines[i]
		if ok && i == sel {
			line = cursorRow(line, width-2)
		}
		out = append(out, line)
	}
	if len(lines) == 0 {
		out = append(out, mutedStyle(&m.theme).Render(" no logs"))
	}

	title := "Logs " + strings.TrimSpace(r.LogTitle())
	if c.LastUpdated > 0 {
		title += " · updated " + humanize.Time(time.Unix(int64(c.LastUpdated), 0))
	}
	return renderBox(title, strings.Join(out, "\n"), width, height, &m.theme)
}

func (m Model) renderMetrics(r *state.Registry, c *state.ContainerItem, width, height int) string {
	cd, _ := r.ChartData()
	innerW := width - 2
	rows := max((height-2-2)/2, 1)

	cpu := make([]float64, len(cd.CPU))
	for i, p := range cd.CPU {
		cpu[i] = p.Y
	}
	mem := make([]float64, len(cd.Mem))
	for i, p := range cd.Mem {
		mem[i] = p.Y
	}
	lastCPU, _ := c.CPU.Last()
	lastMem, _ := c.Mem.Last()

	dim := mutedStyle(&m.theme)
	lines := []string{
		fgStyle(&m.theme).Render(" cpu "+lastCPU.String()) + dim.Render(" max "+cd.MaxCPU.String()),
		Chart(cpu, innerW, rows, m.theme.GraphCPU, 0),
		fgStyle(&m.theme).Render(" memory "+lastMem.String()+" / "+c.MemLimit.String()) + dim.Render(" max "+cd.MaxMem.String()),
		Chart(mem, innerW, rows, m.theme.GraphMem, c.MemLimit.Value()),
	}

	title := "Metrics " + lipgloss.NewStyle().Foreground(m.theme.StateColor(cd.State)).Render(cd.State.String())
	return renderBox(title, strings.Join(lines, "\n"), width, height, &m.theme)
}

func (m Model) renderInfo(c *state.ContainerItem, width, height int) string {
	sel, ok := c.Info.Selected()
	start, end := window(sel, len(c.Info.Items), height-2)
	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		line := " " + c.Info.Items[i]
		if ok && i == sel {
			line = cursorRow(line, width-2)
		}
		out = append(out, line)
	}
	if len(c.Info.Items) == 0 {
		out = append(out, mutedStyle(&m.theme).Render(" loading…"))
	}

	title := "Info " + c.Name
	if c.Created > 0 {
		title += " · created " + humanize.Time(time.Unix(int64(c.Created), 0))
	}
	return renderBox(title, strings.Join(out, "\n"), width, height, &m.theme)
}

func (m Model) renderFooter(actions []gui.Action) string {
	bindings := make([]key.Binding, 0, len(actions)+2)
	for _, a := range actions {
		bindings = append(bindings, a.Binding)
	}
	bindings = append(bindings, input.Keys.ShortHelp()...)
	return TruncateStyled(" "+m.help.ShortHelpView(bindings), m.width)
}

func (m Model) helpDialog(actions []gui.Action, mouse bool) string {
	groups := input.Keys.FullHelp()
	if len(actions) > 0 {
		ctx := make([]key.Binding, len(actions))
		for i, a := range actions {
			ctx[i] = a.Binding
		}
		groups = append(groups, ctx)
	}
	capture := "off"
	if mouse {
		capture = "on"
	}
	body := m.help.FullHelpView(groups) + "\n\n" + mutedStyle(&m.theme).Render("mouse capture: "+capture)
	body = lipgloss.NewStyle().Padding(0, 1).Render(body)
	w, h := blockSize(body)
	return renderBox("Help", body, w+2, h+2, &m.theme)
}

func (m Model) errorDialog(err state.AppError) string {
	text := lipgloss.NewStyle().Foreground(m.theme.Critical).Render(err.Error())
	hint := mutedStyle(&m.theme).Render("press c to clear")
	body := lipgloss.NewStyle().Padding(1, 2).Render(text + "\n\n" + hint)
	w, h := blockSize(body)
	return renderBox("Error", body, w+2, h+2, &m.theme)
}

// deleteDialog renders the delete confirmation and returns the button areas
// relative to its top-left corner.
func (m Model) deleteDialog(name string) (string, map[gui.DeleteButton]gui.Rect) {
	const gap = 4
	yes, no := " (y)es ", " (n)o "
	question := fmt.Sprintf("Are you sure you want to delete %s?", name)

	buttonsW := lipgloss.Width(yes) + gap + lipgloss.Width(no)
	innerW := max(lipgloss.Width(question), buttonsW) + 4
	qPad := (innerW - lipgloss.Width(question)) / 2
	bPad := (innerW - buttonsW) / 2

	buttons := strings.Repeat(" ", bPad) +
		lipgloss.NewStyle().Reverse(true).Foreground(m.theme.Critical).Render(yes) +
		strings.Repeat(" ", gap) +
		lipgloss.NewStyle().Reverse(true).Render(no)
	lines := []string{"", strings.Repeat(" ", qPad) + question, "", buttons, ""}

	// Content starts one cell in from the border; the buttons are line 3.
	rects := map[gui.DeleteButton]gui.Rect{
		gui.ButtonYes: {X: 1 + bPad, Y: 1 + 3, W: lipgloss.Width(yes), H: 1},
		gui.ButtonNo:  {X: 1 + bPad + lipgloss.Width(yes) + gap, Y: 1 + 3, W: lipgloss.Width(no), H: 1},
	}
	return renderBox("Delete", strings.Join(lines, "\n"), innerW+2, len(lines)+2, &m.theme), rects
}

// renderConnect draws the connection error screen with its exit countdown.
func (m Model) renderConnect(snap snapshot) string {
	remaining := connectTimeout
	if !m.closeAt.IsZero() {
		remaining = max(time.Until(m.closeAt), 0)
	}
	secs := int(math.Ceil(remaining.Seconds()))

	msg := state.AppError{Kind: state.ErrDockerConnect}.Error()
	if snap.hasErr {
		msg = snap.err.Error()
	}
	body := lipgloss.NewStyle().Foreground(m.theme.Critical).Render(msg) + "\n\n" +
		mutedStyle(&m.theme).Render(fmt.Sprintf("closing in %d", secs))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}
