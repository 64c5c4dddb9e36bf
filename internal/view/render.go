package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"fleetwatch/internal/domain"
)

// Renderer dibuja el snapshot de la flota en la terminal.
type Renderer struct {
	width     int
	mapHeight int

	header   lipgloss.Style
	faint    lipgloss.Style
	errStyle lipgloss.Style
	selected lipgloss.Style
	badges   map[string]lipgloss.Style
}

func NewRenderer(width int) Renderer {
	if width < 40 {
		width = 80
	}
	badge := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	return Renderer{
		width:     width,
		mapHeight: 12,
		header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		faint:     lipgloss.NewStyle().Faint(true),
		errStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		selected:  lipgloss.NewStyle().Reverse(true),
		badges: map[string]lipgloss.Style{
			domain.VesselStatusInTransit: badge.Foreground(lipgloss.Color("10")),
			domain.VesselStatusAnchored:  badge.Foreground(lipgloss.Color("11")),
			"other":                      badge.Foreground(lipgloss.Color("8")),
		},
	}
}

// Badge renderiza el estado con el color de su clase.
func (r Renderer) Badge(row Row) string {
	style, ok := r.badges[row.StatusClass]
	if !ok {
		style = r.badges["other"]
	}
	status := row.Status
	if status == "" {
		status = "unknown"
	}
	return style.Render(status)
}

// Render arma la pantalla completa: encabezado, lista y mapa.
func (r Renderer) Render(user string, snap domain.Snapshot) string {
	var b strings.Builder

	title := fmt.Sprintf("fleetwatch  %s", user)
	b.WriteString(r.header.Render(title))
	b.WriteString("\n")
	b.WriteString(r.statusLine(snap))
	b.WriteString("\n\n")

	rows := List(snap)
	if len(rows) == 0 {
		b.WriteString(r.faint.Render("no vessels"))
		b.WriteString("\n")
	}
	for i, row := range rows {
		b.WriteString(r.renderRow(i+1, row))
		b.WriteString("\n")
	}

	markers := MapMarkers(snap)
	b.WriteString("\n")
	b.WriteString(r.faint.Render(fmt.Sprintf("map: %d of %d vessels with position", len(markers), len(rows))))
	b.WriteString("\n")
	for _, line := range PlotMarkers(markers, r.width-2, r.mapHeight) {
		b.WriteString(" ")
		b.WriteString(line)
		b.WriteString("\n")
	}

	if v, ok := snap.Selected(); ok {
		b.WriteString("\n")
		b.WriteString(r.header.Render("selected: " + v.Name))
		b.WriteString("\n")
		b.WriteString(r.detail(v))
	}
	return b.String()
}

func (r Renderer) statusLine(snap domain.Snapshot) string {
	switch {
	case snap.Loading:
		return r.faint.Render("loading fleet...")
	case snap.LastError != "":
		line := "last refresh failed: " + snap.LastError
		if !snap.FetchedAt.IsZero() {
			line += fmt.Sprintf(" (showing data from %s)", snap.FetchedAt.Format("15:04:05"))
		}
		return r.errStyle.Render(line)
	case snap.FetchedAt.IsZero():
		return r.faint.Render("no data yet")
	default:
		return r.faint.Render("updated " + snap.FetchedAt.Local().Format("15:04:05"))
	}
}

func (r Renderer) renderRow(n int, row Row) string {
	line := fmt.Sprintf("%3d  %-24s %s  %-22s %s",
		n,
		truncate(row.Name, 24),
		r.Badge(row),
		row.Position,
		row.Speed,
	)
	style := lipgloss.NewStyle().MaxWidth(r.width)
	if row.Selected {
		style = r.selected.MaxWidth(r.width)
	}
	return style.Render(line)
}

func (r Renderer) detail(v domain.Vessel) string {
	row := List(domain.Snapshot{Vessels: []domain.Vessel{v}})[0]
	lines := []string{
		fmt.Sprintf("  type: %s  flag: %s  imo: %d  mmsi: %d", dash(v.VesselType), dash(v.Flag), v.IMO, v.MMSI),
		fmt.Sprintf("  position: %s  speed: %s", row.Position, row.Speed),
		fmt.Sprintf("  updated: %s", row.Updated),
	}
	if v.LastHeading != nil {
		lines = append(lines, fmt.Sprintf("  heading: %.0f°", *v.LastHeading))
	}
	return strings.Join(lines, "\n") + "\n"
}

func truncate(s string, n int) string {
	if lipgloss.Width(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) > n-1 {
		runes = runes[:n-1]
	}
	return string(runes) + "…"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
