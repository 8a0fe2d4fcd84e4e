package layout

import (
	"fmt"

	"croquis-cli/model"
)

const (
	undefinedAreaKey = "area-undefined"

	synthColumns = 4
	synthPitch   = 150
	synthOriginX = 50
	synthOriginY = 50
)

// Normalize turns any of the server's layout shapes into the editor's
// canonical form: an explicit area list, an area list derived from the
// seats, or an empty layout. Seats are kept verbatim and marked as known to
// the server.
func Normalize(raw model.LayoutResponse) (Layout, []Seat) {
	seats := normalizeSeats(raw.Seats)

	if records, ok := explicitAreas(raw.LayoutConfig); ok {
		areas := make([]Area, 0, len(records))
		for _, record := range records {
			areas = append(areas, normalizeArea(record))
		}
		return Layout{Areas: areas}, seats
	}

	if len(seats) > 0 {
		return Layout{Areas: synthesizeAreas(seats)}, seats
	}
	return Layout{Areas: []Area{}}, seats
}

// AsRaw renders the canonical form back into the explicit wire shape.
func AsRaw(l Layout, seats []Seat) model.LayoutResponse {
	records := make([]model.AreaRecord, 0, len(l.Areas))
	for _, area := range l.Areas {
		areaID := area.AreaID
		records = append(records, model.AreaRecord{
			Id:     area.ID,
			X:      area.X,
			Y:      area.Y,
			AreaID: &areaID,
			Name:   area.Name,
		})
	}
	return model.LayoutResponse{
		LayoutConfig: &model.LayoutConfig{Areas: records},
		Seats:        seatRecords(seats),
	}
}

func explicitAreas(cfg *model.LayoutConfig) ([]model.AreaRecord, bool) {
	if cfg == nil {
		return nil, false
	}
	if cfg.Areas == nil && cfg.Tables == nil {
		return nil, false
	}
	records := make([]model.AreaRecord, 0, len(cfg.Areas)+len(cfg.Tables))
	records = append(records, cfg.Areas...)
	records = append(records, cfg.Tables...)
	return records, true
}

func normalizeArea(record model.AreaRecord) Area {
	record = migrateAreaID(record)

	var areaID int64
	if record.AreaID != nil {
		areaID = *record.AreaID
	}
	id := record.Id
	if id == undefinedAreaKey && areaID > 0 {
		id = persistedAreaKey(areaID)
	}

	return Area{
		ID:     id,
		AreaID: areaID,
		Origin: classify(id, areaID),
		X:      record.X,
		Y:      record.Y,
		Name:   record.Name,
	}
}

func migrateAreaID(record model.AreaRecord) model.AreaRecord {
	if record.AreaID == nil && record.LegacyAreaID != nil {
		value := *record.LegacyAreaID
		record.AreaID = &value
	}
	record.LegacyAreaID = nil
	return record
}

func synthesizeAreas(seats []Seat) []Area {
	seen := map[int64]bool{}
	areas := []Area{}
	for _, seat := range seats {
		if seat.AreaID == 0 || seen[seat.AreaID] {
			continue
		}
		seen[seat.AreaID] = true
		n := len(areas)
		areas = append(areas, Area{
			ID:     persistedAreaKey(seat.AreaID),
			AreaID: seat.AreaID,
			Origin: classify(persistedAreaKey(seat.AreaID), seat.AreaID),
			X:      float64(synthOriginX + (n%synthColumns)*synthPitch),
			Y:      float64(synthOriginY + (n/synthColumns)*synthPitch),
			Name:   fmt.Sprintf("Área %d", seat.AreaID),
		})
	}
	return areas
}

func normalizeSeats(records []model.SeatRecord) []Seat {
	seats := make([]Seat, 0, len(records))
	for _, record := range records {
		seats = append(seats, Seat{
			SeatID: record.SeatID,
			Code:   record.Code,
			Row:    record.Row,
			Column: record.Column,
			Status: ParseStatus(record.Status),
			AreaID: record.AreaID,
			IsNew:  false,
		})
	}
	return seats
}

func seatRecords(seats []Seat) []model.SeatRecord {
	records := make([]model.SeatRecord, 0, len(seats))
	for _, seat := range seats {
		records = append(records, model.SeatRecord{
			SeatID: seat.SeatID,
			Code:   seat.Code,
			Row:    seat.Row,
			Column: seat.Column,
			Status: string(seat.Status),
			AreaID: seat.AreaID,
			IsNew:  seat.IsNew,
		})
	}
	return records
}
