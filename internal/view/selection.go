package view

import "errors"

var ErrNoSuchRow = errors.New("no such row")

// Selector recibe el unico evento que emite la vista: la seleccion de un buque.
type Selector interface {
	Select(vesselID *int64)
}

// SelectRow selecciona la fila n (desde 1). n == 0 limpia la seleccion.
func SelectRow(sel Selector, rows []Row, n int) error {
	if n == 0 {
		sel.Select(nil)
		return nil
	}
	if n < 0 || n > len(rows) {
		return ErrNoSuchRow
	}
	id := rows[n-1].ID
	sel.Select(&id)
	return nil
}

// SelectMarker selecciona el buque de un marcador del mapa.
func SelectMarker(sel Selector, m Marker) {
	id := m.ID
	sel.Select(&id)
}
