package view

import (
	"fmt"
	"time"

	"fleetwatch/internal/domain"
)

// Row es una fila de la lista de buques, lista para renderizar.
type Row struct {
	ID          int64
	Name        string
	VesselType  string
	Flag        string
	Status      string
	StatusClass string
	Position    string
	Speed       string
	Updated     string
	Selected    bool
}

// List convierte el snapshot en filas. Todos los buques aparecen, con o sin posicion.
func List(snap domain.Snapshot) []Row {
	rows := make([]Row, 0, len(snap.Vessels))
	for _, v := range snap.Vessels {
		rows = append(rows, Row{
			ID:          v.ID,
			Name:        v.Name,
			VesselType:  v.VesselType,
			Flag:        v.Flag,
			Status:      v.Status,
			StatusClass: v.StatusClass(),
			Position:    formatPosition(v),
			Speed:       formatSpeed(v.LastSpeed),
			Updated:     formatUpdated(v.LastPositionUpdate),
			Selected:    snap.SelectedID != nil && *snap.SelectedID == v.ID,
		})
	}
	return rows
}

func formatPosition(v domain.Vessel) string {
	if !v.HasPosition() {
		return "-"
	}
	return fmt.Sprintf("%.4f, %.4f", *v.LastPositionLat, *v.LastPositionLon)
}

func formatSpeed(speed *float64) string {
	if speed == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f kn", *speed)
}

func formatUpdated(ts *time.Time) string {
	if ts == nil || ts.IsZero() {
		return "-"
	}
	return ts.UTC().Format("2006-01-02 15:04:05")
}
