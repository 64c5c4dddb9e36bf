package view

import (
	"strings"

	"fleetwatch/internal/domain"
)

// Marker es una entidad con latitud y longitud para el mapa.
type Marker struct {
	ID        int64
	Name      string
	Latitude  float64
	Longitude float64
	Heading   *float64
	Selected  bool
}

// MapMarkers devuelve solo los buques con posicion conocida.
func MapMarkers(snap domain.Snapshot) []Marker {
	markers := make([]Marker, 0, len(snap.Vessels))
	for _, v := range snap.Vessels {
		if !v.HasPosition() {
			continue
		}
		markers = append(markers, Marker{
			ID:        v.ID,
			Name:      v.Name,
			Latitude:  *v.LastPositionLat,
			Longitude: *v.LastPositionLon,
			Heading:   v.LastHeading,
			Selected:  snap.SelectedID != nil && *snap.SelectedID == v.ID,
		})
	}
	return markers
}

// PlotMarkers proyecta los marcadores sobre una grilla de width x height celdas.
// La grilla se ajusta a la caja que contiene a todos los marcadores; el seleccionado se dibuja con '@'.
func PlotMarkers(markers []Marker, width, height int) []string {
	if width < 1 || height < 1 {
		return nil
	}
	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(".", width))
	}
	if len(markers) == 0 {
		return gridLines(grid)
	}

	minLat, maxLat := markers[0].Latitude, markers[0].Latitude
	minLon, maxLon := markers[0].Longitude, markers[0].Longitude
	for _, m := range markers[1:] {
		minLat = min(minLat, m.Latitude)
		maxLat = max(maxLat, m.Latitude)
		minLon = min(minLon, m.Longitude)
		maxLon = max(maxLon, m.Longitude)
	}

	for _, m := range markers {
		col := scale(m.Longitude, minLon, maxLon, width)
		// Norte arriba.
		row := height - 1 - scale(m.Latitude, minLat, maxLat, height)
		glyph := '*'
		if m.Selected {
			glyph = '@'
		}
		if grid[row][col] == '@' {
			continue
		}
		grid[row][col] = glyph
	}
	return gridLines(grid)
}

func scale(v, lo, hi float64, cells int) int {
	if hi <= lo {
		return cells / 2
	}
	idx := int((v - lo) / (hi - lo) * float64(cells-1))
	return max(0, min(cells-1, idx))
}

func gridLines(grid [][]rune) []string {
	lines := make([]string, len(grid))
	for i, row := range grid {
		lines[i] = string(row)
	}
	return lines
}
