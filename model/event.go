package model

type Event struct {
	Id           int64  `json:"eventoID"`
	Name         string `json:"nombre"`
	Date         string `json:"fecha"`
	VenueName    string `json:"lugarnombre"`
	Capacity     int    `json:"capacidad"`
	SoldTickets  int    `json:"boletosVendidos"`
	Status       string `json:"estado,omitempty"`
	Description  string `json:"descripcion,omitempty"`
	StartTime    string `json:"horainicio,omitempty"`
	EventType    string `json:"tipo,omitempty"`
	TotalSoldAlt int    `json:"total_sold_tickets,omitempty"`
}

// Sold returns the sold count, falling back to the list endpoint's field.
func (e Event) Sold() int {
	if e.SoldTickets > 0 {
		return e.SoldTickets
	}
	return e.TotalSoldAlt
}

type LoginRequest struct {
	Email    string `json:"correoElectronico"`
	Password string `json:"contraseña"`
}

type LoginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message,omitempty"`
}
