package view

import (
	"errors"
	"strings"
	"testing"
	"time"

	"fleetwatch/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func sampleSnapshot() domain.Snapshot {
	ts := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	return domain.Snapshot{
		Vessels: []domain.Vessel{
			{ID: 1, Name: "Orion", Status: domain.VesselStatusInTransit, LastPositionLat: ptr(35.6), LastPositionLon: ptr(139.7), LastSpeed: ptr(12.5), LastPositionUpdate: &ts},
			{ID: 2, Name: "Ghost", Status: domain.VesselStatusOffline},
			{ID: 3, Name: "Luna", Status: domain.VesselStatusAnchored, LastPositionLat: ptr(35.4)},
			{ID: 4, Name: "Vega", Status: domain.VesselStatusAnchored, LastPositionLat: ptr(35.0), LastPositionLon: ptr(139.0)},
		},
		FetchedAt: ts,
	}
}

type recordingSelector struct {
	ids []*int64
}

func (r *recordingSelector) Select(id *int64) { r.ids = append(r.ids, id) }

func TestList_IncludesEveryVessel(t *testing.T) {
	rows := List(sampleSnapshot())
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if rows[1].Name != "Ghost" || rows[1].Position != "-" || rows[1].StatusClass != "other" {
		t.Fatalf("unexpected row for vessel without position: %+v", rows[1])
	}
	if rows[0].Speed != "12.5 kn" || rows[0].Updated != "2024-05-01 10:30:00" {
		t.Fatalf("unexpected formatting: %+v", rows[0])
	}
}

func TestMapMarkers_OnlyPositionedVessels(t *testing.T) {
	markers := MapMarkers(sampleSnapshot())
	if len(markers) != 2 {
		t.Fatalf("expected 2 markers, got %d", len(markers))
	}
	for _, m := range markers {
		if m.ID == 2 || m.ID == 3 {
			t.Fatalf("vessel %d has no full position and must not be a marker", m.ID)
		}
	}
}

func TestSelectionFlag(t *testing.T) {
	snap := sampleSnapshot()
	id := int64(4)
	snap.SelectedID = &id

	for _, row := range List(snap) {
		if row.Selected != (row.ID == 4) {
			t.Fatalf("row %d selected=%v", row.ID, row.Selected)
		}
	}
	markers := MapMarkers(snap)
	if !markers[1].Selected || markers[0].Selected {
		t.Fatalf("unexpected marker selection: %+v", markers)
	}
}

func TestSelectRow(t *testing.T) {
	rows := List(sampleSnapshot())
	sel := &recordingSelector{}

	if err := SelectRow(sel, rows, 2); err != nil {
		t.Fatalf("select row: %v", err)
	}
	if err := SelectRow(sel, rows, 0); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := SelectRow(sel, rows, 9); !errors.Is(err, ErrNoSuchRow) {
		t.Fatalf("expected ErrNoSuchRow, got %v", err)
	}

	if len(sel.ids) != 2 || sel.ids[0] == nil || *sel.ids[0] != 2 || sel.ids[1] != nil {
		t.Fatalf("unexpected selection events: %+v", sel.ids)
	}

	SelectMarker(sel, Marker{ID: 4})
	if *sel.ids[2] != 4 {
		t.Fatalf("expected marker selection of 4")
	}
}

func TestPlotMarkers(t *testing.T) {
	markers := []Marker{
		{ID: 1, Latitude: 10, Longitude: 10},
		{ID: 2, Latitude: 0, Longitude: 0, Selected: true},
	}
	lines := PlotMarkers(markers, 5, 3)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "....*" {
		t.Fatalf("north-east marker misplaced: %q", lines[0])
	}
	if lines[2] != "@...." {
		t.Fatalf("selected south-west marker misplaced: %q", lines[2])
	}

	empty := PlotMarkers(nil, 3, 2)
	if len(empty) != 2 || empty[0] != "..." {
		t.Fatalf("unexpected empty grid: %+v", empty)
	}
}

func TestRenderer_Render(t *testing.T) {
	snap := sampleSnapshot()
	id := int64(1)
	snap.SelectedID = &id

	out := NewRenderer(100).Render("ana", snap)
	for _, want := range []string{"ana", "Orion", "Ghost", "Luna", "Vega", "2 of 4 vessels", "selected: Orion"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q:\n%s", want, out)
		}
	}
}

func TestRenderer_StatusLine(t *testing.T) {
	r := NewRenderer(80)
	if out := r.Render("ana", domain.Snapshot{Loading: true}); !strings.Contains(out, "loading fleet") {
		t.Fatalf("expected loading line:\n%s", out)
	}
	snap := sampleSnapshot()
	snap.LastError = "503"
	if out := r.Render("ana", snap); !strings.Contains(out, "last refresh failed: 503") || !strings.Contains(out, "Orion") {
		t.Fatalf("expected error line with retained data:\n%s", out)
	}
}
