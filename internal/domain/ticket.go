package domain

import "time"

// Payment states a sold ticket can be in.
const (
	StatusPaid   = "Pagado"
	StatusUnpaid = "No pagado"
)

// Ticket is one numbered raffle entry. Buyer fields are pointers so an
// available ticket serializes with nulls, matching what the store holds.
type Ticket struct {
	Number   int        `json:"number"`
	RaffleID string     `json:"raffle_id"`
	Sold     bool       `json:"sold"`
	Name     *string    `json:"name"`
	Phone    *string    `json:"phone"`
	Status   string     `json:"status"`
	SoldDate *time.Time `json:"sold_date"`
}

// Pagination describes one page window of a ticket listing.
type Pagination struct {
	Total       int64 `json:"total"`
	PageSize    int   `json:"pageSize"`
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
}

// Stats backs the admin dashboard counters.
type Stats struct {
	Total     int64 `json:"total"`
	Sold      int64 `json:"sold"`
	Available int64 `json:"available"`
}

func ValidStatus(status string) bool {
	return status == StatusPaid || status == StatusUnpaid
}
