package model

// LayoutResponse is the body of GET and PUT /eventos/{id}/layout.
// A nil LayoutConfig means the event has no saved layout yet.
type LayoutResponse struct {
	Message      string        `json:"message,omitempty"`
	LayoutConfig *LayoutConfig `json:"layoutConfig"`
	Seats        []SeatRecord  `json:"seats"`
}

// LayoutConfig accepts the current "areas" key and the legacy "tables" key.
type LayoutConfig struct {
	Areas  []AreaRecord `json:"areas"`
	Tables []AreaRecord `json:"tables,omitempty"`
}

// AreaRecord is an area as returned by the server. The area id has drifted
// between "areaid" and "areaID" over time; both are decoded and the
// normalizer folds them into AreaID.
type AreaRecord struct {
	Id           string  `json:"id"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	AreaID       *int64  `json:"areaid,omitempty"`
	LegacyAreaID *int64  `json:"areaID,omitempty"`
	Name         string  `json:"name,omitempty"`
}

type SeatRecord struct {
	SeatID int64  `json:"seatId"`
	Code   string `json:"code"`
	Row    int    `json:"row"`
	Column int    `json:"column"`
	Status string `json:"status"`
	AreaID int64  `json:"areaId"`
	IsNew  bool   `json:"isNew,omitempty"`
}

// LayoutPayload is the PUT body. AreaPayload has no deletion marker; that
// flag never leaves the editor.
type LayoutPayload struct {
	LayoutConfig LayoutConfigPayload `json:"layoutConfig"`
	Seats        []SeatRecord        `json:"seats"`
}

type LayoutConfigPayload struct {
	Areas []AreaPayload `json:"areas"`
}

type AreaPayload struct {
	Id     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	AreaID int64   `json:"areaid"`
	Name   string  `json:"name,omitempty"`
}
