package devapi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"croquis-cli/model"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// syntheticIDThreshold matches the editor's rule: ids at or above it were
// minted by a client and have no row yet.
const syntheticIDThreshold int64 = 1_000_000_000

var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS eventos (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    nombre           TEXT NOT NULL,
    fecha            TEXT NOT NULL DEFAULT '',
    lugarnombre      TEXT NOT NULL DEFAULT '',
    capacidad        INTEGER NOT NULL DEFAULT 0,
    boletos_vendidos INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS areas (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    evento_id INTEGER NOT NULL REFERENCES eventos(id),
    nombre    TEXT NOT NULL DEFAULT '',
    x         REAL NOT NULL DEFAULT 0,
    y         REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS asientos (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    evento_id INTEGER NOT NULL REFERENCES eventos(id),
    area_id   INTEGER NOT NULL REFERENCES areas(id),
    codigo    TEXT NOT NULL DEFAULT '',
    fila      INTEGER NOT NULL DEFAULT 0,
    columna   INTEGER NOT NULL DEFAULT 0,
    estado    TEXT NOT NULL DEFAULT 'AVAILABLE'
);
CREATE TABLE IF NOT EXISTS layouts (
    evento_id INTEGER PRIMARY KEY REFERENCES eventos(id),
    saved_at  TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// OpenSQLite opens the database file, creating its directory if needed.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init creates the schema and seeds sample events into an empty database.
func (r *Repository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM eventos`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return r.seed(ctx)
}

// seed adds one event whose layout was never saved (only seats) and one
// with a saved layout.
func (r *Repository) seed(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	gala, err := insertEvent(ctx, tx, model.Event{Name: "Concierto de Gala", Date: "2026-11-20", VenueName: "Teatro Municipal", Capacity: 120, SoldTickets: 3})
	if err != nil {
		return err
	}
	for n, name := range []string{"Platea", "Palco"} {
		areaID, err := insertArea(ctx, tx, gala, name, 0, 0)
		if err != nil {
			return err
		}
		for i, status := range []string{"AVAILABLE", "OCCUPIED", "RESERVED"} {
			code := fmt.Sprintf("%c%d", 'A'+rune(n), i+1)
			if _, err := insertSeat(ctx, tx, gala, areaID, model.SeatRecord{Code: code, Row: 1, Column: i + 1, Status: status}); err != nil {
				return err
			}
		}
	}

	feria, err := insertEvent(ctx, tx, model.Event{Name: "Feria del Libro", Date: "2026-12-05", VenueName: "Centro de Convenciones", Capacity: 60})
	if err != nil {
		return err
	}
	areaID, err := insertArea(ctx, tx, feria, "Stand A", 80, 60)
	if err != nil {
		return err
	}
	if _, err := insertSeat(ctx, tx, feria, areaID, model.SeatRecord{Code: "S1", Row: 1, Column: 1, Status: "AVAILABLE"}); err != nil {
		return err
	}
	if err := markSaved(ctx, tx, feria); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Repository) CreateEvent(ctx context.Context, e model.Event) (int64, error) {
	return insertEvent(ctx, r.db, e)
}

func (r *Repository) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, nombre, fecha, lugarnombre, capacidad, boletos_vendidos
        FROM eventos
        ORDER BY fecha, id
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.Id, &e.Name, &e.Date, &e.VenueName, &e.Capacity, &e.SoldTickets); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *Repository) GetEvent(ctx context.Context, id int64) (model.Event, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, nombre, fecha, lugarnombre, capacidad, boletos_vendidos
        FROM eventos
        WHERE id = ?
    `, id)

	var e model.Event
	if err := row.Scan(&e.Id, &e.Name, &e.Date, &e.VenueName, &e.Capacity, &e.SoldTickets); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Event{}, ErrNotFound
		}
		return model.Event{}, err
	}
	return e, nil
}

// GetLayout returns layoutConfig null for events whose layout was never
// saved, leaving the client to arrange areas from the seats.
func (r *Repository) GetLayout(ctx context.Context, eventID int64) (model.LayoutResponse, error) {
	if _, err := r.GetEvent(ctx, eventID); err != nil {
		return model.LayoutResponse{}, err
	}
	return readLayout(ctx, r.db, eventID)
}

// SaveLayout replaces the event's areas and seats with the payload. Areas
// and seats carrying client ids get fresh rows; the response reports the
// permanent ids.
func (r *Repository) SaveLayout(ctx context.Context, eventID int64, payload model.LayoutPayload) (model.LayoutResponse, error) {
	if _, err := r.GetEvent(ctx, eventID); err != nil {
		return model.LayoutResponse{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.LayoutResponse{}, err
	}
	defer tx.Rollback()

	existingAreas, err := idSet(ctx, tx, `SELECT id FROM areas WHERE evento_id = ?`, eventID)
	if err != nil {
		return model.LayoutResponse{}, err
	}

	areaIDs := map[int64]int64{}
	keepAreas := map[int64]bool{}
	for _, a := range payload.LayoutConfig.Areas {
		if a.AreaID > 0 && a.AreaID < syntheticIDThreshold && existingAreas[a.AreaID] {
			if _, err := tx.ExecContext(ctx, `UPDATE areas SET nombre = ?, x = ?, y = ? WHERE id = ?`, a.Name, a.X, a.Y, a.AreaID); err != nil {
				return model.LayoutResponse{}, err
			}
			areaIDs[a.AreaID] = a.AreaID
			keepAreas[a.AreaID] = true
			continue
		}
		newID, err := insertArea(ctx, tx, eventID, a.Name, a.X, a.Y)
		if err != nil {
			return model.LayoutResponse{}, err
		}
		areaIDs[a.AreaID] = newID
		keepAreas[newID] = true
	}

	existingSeats, err := idSet(ctx, tx, `SELECT id FROM asientos WHERE evento_id = ?`, eventID)
	if err != nil {
		return model.LayoutResponse{}, err
	}
	keepSeats := map[int64]bool{}
	for _, s := range payload.Seats {
		areaID, ok := areaIDs[s.AreaID]
		if !ok {
			return model.LayoutResponse{}, fmt.Errorf("seat %d references unknown area %d", s.SeatID, s.AreaID)
		}
		s.AreaID = areaID
		if !s.IsNew && s.SeatID > 0 && s.SeatID < syntheticIDThreshold && existingSeats[s.SeatID] {
			if _, err := tx.ExecContext(ctx, `
                UPDATE asientos SET area_id = ?, codigo = ?, fila = ?, columna = ?, estado = ?
                WHERE id = ?
            `, s.AreaID, s.Code, s.Row, s.Column, normalizeStatus(s.Status), s.SeatID); err != nil {
				return model.LayoutResponse{}, err
			}
			keepSeats[s.SeatID] = true
			continue
		}
		newID, err := insertSeat(ctx, tx, eventID, s.AreaID, s)
		if err != nil {
			return model.LayoutResponse{}, err
		}
		keepSeats[newID] = true
	}

	for id := range existingSeats {
		if !keepSeats[id] {
			if _, err := tx.ExecContext(ctx, `DELETE FROM asientos WHERE id = ?`, id); err != nil {
				return model.LayoutResponse{}, err
			}
		}
	}
	for id := range existingAreas {
		if !keepAreas[id] {
			if err := deleteArea(ctx, tx, id); err != nil {
				return model.LayoutResponse{}, err
			}
		}
	}
	if err := markSaved(ctx, tx, eventID); err != nil {
		return model.LayoutResponse{}, err
	}

	resp, err := readLayout(ctx, tx, eventID)
	if err != nil {
		return model.LayoutResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.LayoutResponse{}, err
	}
	resp.Message = "Croquis actualizado"
	return resp, nil
}

// DeleteArea removes an area and every seat in it.
func (r *Repository) DeleteArea(ctx context.Context, eventID int64, areaID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var found int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM areas WHERE id = ? AND evento_id = ?`, areaID, eventID).Scan(&found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if err := deleteArea(ctx, tx, areaID); err != nil {
		return err
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type querier interface {
	execer
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readLayout(ctx context.Context, q querier, eventID int64) (model.LayoutResponse, error) {
	var saved int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM layouts WHERE evento_id = ?`, eventID).Scan(&saved); err != nil {
		return model.LayoutResponse{}, err
	}

	resp := model.LayoutResponse{Seats: []model.SeatRecord{}}
	if saved > 0 {
		rows, err := q.QueryContext(ctx, `SELECT id, nombre, x, y FROM areas WHERE evento_id = ? ORDER BY id`, eventID)
		if err != nil {
			return model.LayoutResponse{}, err
		}
		cfg := &model.LayoutConfig{Areas: []model.AreaRecord{}}
		for rows.Next() {
			var (
				id   int64
				area model.AreaRecord
			)
			if err := rows.Scan(&id, &area.Name, &area.X, &area.Y); err != nil {
				rows.Close()
				return model.LayoutResponse{}, err
			}
			area.Id = fmt.Sprintf("area-%d", id)
			area.AreaID = &id
			cfg.Areas = append(cfg.Areas, area)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return model.LayoutResponse{}, err
		}
		resp.LayoutConfig = cfg
	}

	rows, err := q.QueryContext(ctx, `
        SELECT id, codigo, fila, columna, estado, area_id
        FROM asientos
        WHERE evento_id = ?
        ORDER BY area_id, id
    `, eventID)
	if err != nil {
		return model.LayoutResponse{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var s model.SeatRecord
		if err := rows.Scan(&s.SeatID, &s.Code, &s.Row, &s.Column, &s.Status, &s.AreaID); err != nil {
			return model.LayoutResponse{}, err
		}
		resp.Seats = append(resp.Seats, s)
	}
	return resp, rows.Err()
}

func insertEvent(ctx context.Context, q execer, e model.Event) (int64, error) {
	res, err := q.ExecContext(ctx, `
        INSERT INTO eventos (nombre, fecha, lugarnombre, capacidad, boletos_vendidos)
        VALUES (?, ?, ?, ?, ?)
    `, e.Name, e.Date, e.VenueName, e.Capacity, e.SoldTickets)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertArea(ctx context.Context, q execer, eventID int64, name string, x, y float64) (int64, error) {
	res, err := q.ExecContext(ctx, `INSERT INTO areas (evento_id, nombre, x, y) VALUES (?, ?, ?, ?)`, eventID, name, x, y)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertSeat(ctx context.Context, q execer, eventID, areaID int64, s model.SeatRecord) (int64, error) {
	res, err := q.ExecContext(ctx, `
        INSERT INTO asientos (evento_id, area_id, codigo, fila, columna, estado)
        VALUES (?, ?, ?, ?, ?, ?)
    `, eventID, areaID, s.Code, s.Row, s.Column, normalizeStatus(s.Status))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func deleteArea(ctx context.Context, q execer, areaID int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM asientos WHERE area_id = ?`, areaID); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx, `DELETE FROM areas WHERE id = ?`, areaID)
	return err
}

func markSaved(ctx context.Context, q execer, eventID int64) error {
	_, err := q.ExecContext(ctx, `
        INSERT INTO layouts (evento_id) VALUES (?)
        ON CONFLICT(evento_id) DO UPDATE SET saved_at = CURRENT_TIMESTAMP
    `, eventID)
	return err
}

func idSet(ctx context.Context, q querier, query string, args ...any) (map[int64]bool, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := map[int64]bool{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

func normalizeStatus(raw string) string {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "OCCUPIED", "OCUPADO":
		return "OCCUPIED"
	case "RESERVED", "RESERVADO":
		return "RESERVED"
	case "BLOCKED", "BLOQUEADO":
		return "BLOCKED"
	default:
		return "AVAILABLE"
	}
}
