// Package layout holds the venue layout editor core: the area/seat model,
// normalization of server responses, the mutable store with its selection
// and drag state, deferred deletion and the save orchestration.
package layout

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	PersistedPrefix = "area-"
	LocalPrefix     = "new-table-"

	// SyntheticIDThreshold separates server ids from client timestamp ids.
	SyntheticIDThreshold int64 = 1_000_000_000

	DefaultX = 50
	DefaultY = 50
)

// Origin tags whether an area exists on the server.
type Origin int

const (
	OriginLocal Origin = iota
	OriginPersisted
)

func (o Origin) String() string {
	if o == OriginPersisted {
		return "persisted"
	}
	return "local"
}

type Area struct {
	ID                string
	AreaID            int64
	Origin            Origin
	X                 float64
	Y                 float64
	Name              string
	MarkedForDeletion bool
}

func (a Area) Persisted() bool {
	return a.Origin == OriginPersisted
}

// Label is the text drawn on the canvas for the area.
func (a Area) Label() string {
	if a.Persisted() {
		if strings.TrimSpace(a.Name) != "" {
			return a.Name
		}
		return fmt.Sprintf("Área %d", a.AreaID)
	}
	if strings.TrimSpace(a.Name) != "" {
		return a.Name
	}
	return "Nueva Área"
}

// DisplayName is used in notices: the name when set, else the id.
func (a Area) DisplayName() string {
	if strings.TrimSpace(a.Name) != "" {
		return a.Name
	}
	return a.ID
}

func persistedAreaKey(areaID int64) string {
	return PersistedPrefix + strconv.FormatInt(areaID, 10)
}

func localAreaKey(tempID int64) string {
	return LocalPrefix + strconv.FormatInt(tempID, 10)
}

// classify applies the server's id convention. It is only called where raw
// records enter the editor.
func classify(id string, areaID int64) Origin {
	if strings.HasPrefix(id, PersistedPrefix) && areaID < SyntheticIDThreshold {
		return OriginPersisted
	}
	return OriginLocal
}

type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusOccupied  Status = "OCCUPIED"
	StatusReserved  Status = "RESERVED"
	StatusBlocked   Status = "BLOCKED"
)

var Statuses = []Status{StatusAvailable, StatusOccupied, StatusReserved, StatusBlocked}

// ParseStatus accepts the English values and the legacy Spanish ones.
func ParseStatus(raw string) Status {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "OCCUPIED", "OCUPADO":
		return StatusOccupied
	case "RESERVED", "RESERVADO":
		return StatusReserved
	case "BLOCKED", "BLOQUEADO":
		return StatusBlocked
	default:
		return StatusAvailable
	}
}

type Seat struct {
	SeatID int64
	Code   string
	Row    int
	Column int
	Status Status
	AreaID int64
	IsNew  bool
}

// ShortCode is the two-character label drawn inside a seat cell.
func (s Seat) ShortCode() string {
	runes := []rune(s.Code)
	if len(runes) <= 2 {
		return s.Code
	}
	return string(runes[len(runes)-2:])
}

type Layout struct {
	Areas []Area
}

func (l Layout) clone() Layout {
	return Layout{Areas: append([]Area(nil), l.Areas...)}
}
