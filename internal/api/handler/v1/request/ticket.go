package request

import (
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/granrifa/rifa-api/internal/domain"
)

type SellTicketsRequest struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Status        string `json:"status"`
	TicketNumbers []int  `json:"ticketNumbers"`
}

func (req *SellTicketsRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.Phone, validation.Required, validation.Length(1, 30)),
		validation.Field(&req.Status, validation.In(domain.StatusPaid, domain.StatusUnpaid)),
		validation.Field(&req.TicketNumbers, validation.Required, validation.Length(1, 0)),
	)
}

type RevertSaleRequest struct {
	TicketNumber int `json:"ticketNumber"`
}

func (req *RevertSaleRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.TicketNumber, validation.Required, validation.Min(1)),
	)
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

func (req *UpdateStatusRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Status, validation.Required, validation.In(domain.StatusPaid, domain.StatusUnpaid)),
	)
}

type InitializeTicketsRequest struct {
	TotalTickets int `json:"totalTickets"`
}

func (req *InitializeTicketsRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.TotalTickets, validation.Min(0)),
	)
}
