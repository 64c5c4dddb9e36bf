package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fleetwatch/internal/domain"
)

// maxPages acota el seguimiento de enlaces "next" de una respuesta paginada.
const maxPages = 50

// flexFloat acepta numeros JSON y decimales serializados como string.
// null y "" lo dejan ausente.
type flexFloat struct {
	value *float64
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		f.value = nil
		return nil
	}
	s = strings.TrimSpace(strings.Trim(s, `"`))
	if s == "" {
		f.value = nil
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	f.value = &v
	return nil
}

func (f flexFloat) ptr() *float64 {
	if f.value == nil {
		return nil
	}
	v := *f.value
	return &v
}

func (f flexFloat) float() float64 {
	if f.value == nil {
		return 0
	}
	return *f.value
}

type vesselPayload struct {
	ID                 int64      `json:"id"`
	IMO                int64      `json:"imo"`
	MMSI               int64      `json:"mmsi"`
	Name               string     `json:"name"`
	VesselType         string     `json:"vessel_type"`
	Flag               string     `json:"flag"`
	Status             string     `json:"status"`
	LastPositionLat    flexFloat  `json:"last_position_lat"`
	LastPositionLon    flexFloat  `json:"last_position_lon"`
	LastSpeed          flexFloat  `json:"last_speed"`
	LastHeading        flexFloat  `json:"last_heading"`
	LastPositionUpdate *time.Time `json:"last_position_update"`
}

func (p vesselPayload) toDomain() domain.Vessel {
	return domain.Vessel{
		ID:                 p.ID,
		IMO:                p.IMO,
		MMSI:               p.MMSI,
		Name:               p.Name,
		VesselType:         p.VesselType,
		Flag:               p.Flag,
		Status:             p.Status,
		LastPositionLat:    p.LastPositionLat.ptr(),
		LastPositionLon:    p.LastPositionLon.ptr(),
		LastSpeed:          p.LastSpeed.ptr(),
		LastHeading:        p.LastHeading.ptr(),
		LastPositionUpdate: p.LastPositionUpdate,
	}
}

type pageEnvelope struct {
	Count   *int            `json:"count"`
	Next    *string         `json:"next"`
	Results []vesselPayload `json:"results"`
}

// DecodeVesselList normaliza un listado plano o un sobre {results: [...]}.
// Devuelve tambien el enlace "next" si el sobre lo trae.
func DecodeVesselList(body []byte) ([]domain.Vessel, string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, "", errors.New("empty vessel list response")
	}

	var (
		items []vesselPayload
		next  string
	)
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, "", fmt.Errorf("unmarshal vessel list: %w", err)
		}
	case '{':
		var env pageEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, "", fmt.Errorf("unmarshal vessel page: %w", err)
		}
		items = env.Results
		if env.Next != nil {
			next = *env.Next
		}
	default:
		return nil, "", errors.New("unrecognized vessel list shape")
	}

	vessels := make([]domain.Vessel, 0, len(items))
	for _, it := range items {
		vessels = append(vessels, it.toDomain())
	}
	return vessels, next, nil
}

// ListVessels trae la flota completa, siguiendo la paginacion si existe.
func (c *Client) ListVessels(ctx context.Context) ([]domain.Vessel, error) {
	all := make([]domain.Vessel, 0)
	path := VesselsPath
	for page := 0; page < maxPages; page++ {
		status, body, err := c.do(ctx, http.MethodGet, path, nil, true)
		if err != nil {
			return nil, fmt.Errorf("list vessels: %w", err)
		}
		if status != http.StatusOK {
			return nil, statusError("list vessels", status, body)
		}
		vessels, next, err := DecodeVesselList(body)
		if err != nil {
			return nil, fmt.Errorf("list vessels: %w", err)
		}
		all = append(all, vessels...)
		if next == "" {
			return all, nil
		}
		if path, err = c.nextPage(path, next); err != nil {
			return nil, fmt.Errorf("list vessels: %w", err)
		}
	}
	return nil, fmt.Errorf("list vessels: more than %d pages", maxPages)
}

// nextPage resuelve el enlace "next" relativo a la pagina actual.
func (c *Client) nextPage(current, next string) (string, error) {
	cur, err := c.endpoint(current)
	if err != nil {
		return "", err
	}
	base, err := url.Parse(cur)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}
	ref, err := url.Parse(next)
	if err != nil {
		return "", fmt.Errorf("parse next link: %w", err)
	}
	resolved := base.ResolveReference(ref).String()
	if _, err := c.endpoint(resolved); err != nil {
		return "", err
	}
	return resolved, nil
}

// SyncMockData dispara la regeneracion de datos simulados en el servicio remoto.
func (c *Client) SyncMockData(ctx context.Context) (string, error) {
	status, body, err := c.do(ctx, http.MethodPost, SyncMockDataPath, nil, true)
	if err != nil {
		return "", fmt.Errorf("sync mock data: %w", err)
	}
	if status < 200 || status > 299 {
		return "", statusError("sync mock data", status, body)
	}
	var resp struct {
		Message string `json:"message"`
	}
	if len(bytes.TrimSpace(body)) > 0 {
		_ = json.Unmarshal(body, &resp)
	}
	return resp.Message, nil
}

type positionPayload struct {
	Latitude  flexFloat `json:"latitude"`
	Longitude flexFloat `json:"longitude"`
	Speed     flexFloat `json:"speed"`
	Heading   flexFloat `json:"heading"`
	Timestamp time.Time `json:"timestamp"`
}

// VesselHistory devuelve las ultimas posiciones registradas de un buque.
func (c *Client) VesselHistory(ctx context.Context, vesselID int64) ([]domain.VesselPosition, error) {
	path := fmt.Sprintf("%s%d/history/", VesselsPath, vesselID)
	status, body, err := c.do(ctx, http.MethodGet, path, nil, true)
	if err != nil {
		return nil, fmt.Errorf("vessel history: %w", err)
	}
	if status != http.StatusOK {
		return nil, statusError("vessel history", status, body)
	}
	var items []positionPayload
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("vessel history: unmarshal response: %w", err)
	}
	positions := make([]domain.VesselPosition, 0, len(items))
	for _, it := range items {
		positions = append(positions, domain.VesselPosition{
			VesselID:  vesselID,
			Latitude:  it.Latitude.float(),
			Longitude: it.Longitude.float(),
			Speed:     it.Speed.ptr(),
			Heading:   it.Heading.ptr(),
			Timestamp: it.Timestamp,
		})
	}
	return positions, nil
}
