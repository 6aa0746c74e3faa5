package response

import "github.com/granrifa/rifa-api/internal/domain"

type ListTicketsResponse struct {
	Tickets    []domain.Ticket   `json:"tickets"`
	Pagination domain.Pagination `json:"pagination"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type InitializeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type LoginResponse struct {
	Token string `json:"token"`
}
