package domain

import "time"

// Estados de navegacion reportados por el servicio remoto.
const (
	VesselStatusInTransit = "in_transit"
	VesselStatusAnchored  = "anchored"
	VesselStatusInPort    = "in_port"
	VesselStatusOffline   = "offline"
)

type Vessel struct {
	ID                 int64      `json:"id"`
	IMO                int64      `json:"imo,omitempty"`
	MMSI               int64      `json:"mmsi,omitempty"`
	Name               string     `json:"name"`
	VesselType         string     `json:"vessel_type,omitempty"`
	Flag               string     `json:"flag,omitempty"`
	Status             string     `json:"status"`
	LastPositionLat    *float64   `json:"last_position_lat,omitempty"`
	LastPositionLon    *float64   `json:"last_position_lon,omitempty"`
	LastSpeed          *float64   `json:"last_speed,omitempty"`
	LastHeading        *float64   `json:"last_heading,omitempty"`
	LastPositionUpdate *time.Time `json:"last_position_update,omitempty"`
}

// HasPosition indica si el buque tiene latitud y longitud conocidas.
func (v Vessel) HasPosition() bool {
	return v.LastPositionLat != nil && v.LastPositionLon != nil
}

// StatusClass agrupa el estado en in_transit, anchored u other.
func (v Vessel) StatusClass() string {
	switch v.Status {
	case VesselStatusInTransit, VesselStatusAnchored:
		return v.Status
	default:
		return "other"
	}
}

type VesselPosition struct {
	VesselID  int64     `json:"-"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Speed     *float64  `json:"speed,omitempty"`
	Heading   *float64  `json:"heading,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot es la flota completa en un instante; se reemplaza entera en cada refresco.
type Snapshot struct {
	Vessels    []Vessel
	FetchedAt  time.Time
	LastError  string
	Loading    bool
	SelectedID *int64
}

// Selected resuelve la seleccion actual contra la flota del snapshot.
func (s Snapshot) Selected() (Vessel, bool) {
	if s.SelectedID == nil {
		return Vessel{}, false
	}
	for _, v := range s.Vessels {
		if v.ID == *s.SelectedID {
			return v, true
		}
	}
	return Vessel{}, false
}
