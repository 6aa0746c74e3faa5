package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/granrifa/rifa-api/internal/api/handler/v1/request"
	"github.com/granrifa/rifa-api/internal/api/handler/v1/response"
	"github.com/granrifa/rifa-api/internal/domain"
	"github.com/granrifa/rifa-api/internal/service"
)

// Page sizes the UI renders with: the public grid and the sell picker load
// 100 tickets per page, the admin sold-ticket table 10.
const (
	DefaultPageSize   = 100
	AdminSoldPageSize = 10
)

type TicketService interface {
	ListAll(ctx context.Context, raffleID string) []domain.Ticket
	ListPage(ctx context.Context, page, pageSize int, raffleID string) ([]domain.Ticket, domain.Pagination)
	ListSold(ctx context.Context, page, pageSize int, filter, raffleID string) ([]domain.Ticket, domain.Pagination, error)
	Stats(ctx context.Context, raffleID string) (domain.Stats, error)
	SellTickets(ctx context.Context, raffleID string, input service.SaleInput) error
	RevertSale(ctx context.Context, raffleID string, number int) error
	UpdateStatus(ctx context.Context, raffleID string, number int, status string) error
	InitializeTickets(ctx context.Context, raffleID string, totalTickets int) (bool, error)
}

type TicketHandler struct {
	svc                 TicketService
	defaultRaffleID     string
	defaultTotalTickets int
}

func NewTicketHandler(svc TicketService, defaultRaffleID string, defaultTotalTickets int) *TicketHandler {
	return &TicketHandler{
		svc:                 svc,
		defaultRaffleID:     defaultRaffleID,
		defaultTotalTickets: defaultTotalTickets,
	}
}

// HandleListTickets godoc
// @Summary      List tickets, one page at a time
// @Tags         tickets
// @Produce      json
// @Param        page      query     int     false  "page number (default 1)"
// @Param        pageSize  query     int     false  "page size (default 100)"
// @Param        raffleId  query     string  false  "raffle id (default \"default\")"
// @Success      200       {object}  response.ListTicketsResponse
// @Router       /tickets [get]
func (h *TicketHandler) HandleListTickets(ctx *gin.Context) {
	page := queryInt(ctx, "page", 1)
	pageSize := queryInt(ctx, "pageSize", DefaultPageSize)
	raffleID := h.raffleID(ctx)

	tickets, pagination := h.svc.ListPage(ctx.Request.Context(), page, pageSize, raffleID)

	ctx.JSON(http.StatusOK, response.ListTicketsResponse{
		Tickets:    tickets,
		Pagination: pagination,
	})
}

// HandleListAllTickets godoc
// @Summary      List every ticket of the raffle
// @Tags         tickets
// @Produce      json
// @Param        raffleId  query     string  false  "raffle id (default \"default\")"
// @Success      200       {array}   domain.Ticket
// @Router       /tickets/all [get]
func (h *TicketHandler) HandleListAllTickets(ctx *gin.Context) {
	tickets := h.svc.ListAll(ctx.Request.Context(), h.raffleID(ctx))

	ctx.JSON(http.StatusOK, tickets)
}

// HandleListSoldTickets godoc
// @Summary      List sold tickets with filter and pagination
// @Description  Filter matches the ticket number, the buyer name (case-insensitive) or the phone as a substring.
// @Tags         admin
// @Produce      json
// @Param        page      query     int     false  "page number (default 1)"
// @Param        filter    query     string  false  "substring filter"
// @Param        raffleId  query     string  false  "raffle id (default \"default\")"
// @Success      200       {object}  response.ListTicketsResponse
// @Failure      401       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /admin/tickets/sold [get]
// @Security SessionAuth
func (h *TicketHandler) HandleListSoldTickets(ctx *gin.Context) {
	page := queryInt(ctx, "page", 1)
	filter := ctx.Query("filter")

	tickets, pagination, err := h.svc.ListSold(ctx.Request.Context(), page, AdminSoldPageSize, filter, h.raffleID(ctx))
	if err != nil {
		err = fmt.Errorf("v1.HandleListSoldTickets -> h.svc.ListSold -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, response.ListTicketsResponse{
		Tickets:    tickets,
		Pagination: pagination,
	})
}

// HandleGetStats godoc
// @Summary      Ticket counters for the dashboard
// @Tags         admin
// @Produce      json
// @Param        raffleId  query     string  false  "raffle id (default \"default\")"
// @Success      200       {object}  domain.Stats
// @Failure      401       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /admin/tickets/stats [get]
// @Security SessionAuth
func (h *TicketHandler) HandleGetStats(ctx *gin.Context) {
	stats, err := h.svc.Stats(ctx.Request.Context(), h.raffleID(ctx))
	if err != nil {
		err = fmt.Errorf("v1.HandleGetStats -> h.svc.Stats -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, stats)
}

// HandleSellTickets godoc
// @Summary      Sell one or more tickets to a buyer
// @Description  All requested tickets are sold in one transaction; a ticket that is already sold fails the whole request.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      request.SellTicketsRequest true "request body"
// @Success      200      {object}  response.SuccessResponse
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /admin/tickets/sell [post]
// @Security SessionAuth
func (h *TicketHandler) HandleSellTickets(ctx *gin.Context) {
	var req request.SellTicketsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	err := h.svc.SellTickets(ctx.Request.Context(), h.raffleID(ctx), service.SaleInput{
		Name:          req.Name,
		Phone:         req.Phone,
		Status:        req.Status,
		TicketNumbers: req.TicketNumbers,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTicketAlreadySold):
			response.RenderErr(ctx, response.ErrConflict(err))
		case errors.Is(err, service.ErrTicketNotFound):
			response.RenderErr(ctx, response.ErrNotFound("ticket", "numbers", req.TicketNumbers))
		case errors.Is(err, service.ErrMissingBuyerFields),
			errors.Is(err, service.ErrInvalidTicketNumber),
			errors.Is(err, service.ErrInvalidStatus):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandleSellTickets -> h.svc.SellTickets -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.JSON(http.StatusOK, response.SuccessResponse{Success: true})
}

// HandleRevertSale godoc
// @Summary      Revert a sale, putting the ticket back on sale
// @Description  Clears the buyer fields. The payment status keeps its last value.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      request.RevertSaleRequest true "request body"
// @Success      200      {object}  response.SuccessResponse
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /admin/tickets/revert [post]
// @Security SessionAuth
func (h *TicketHandler) HandleRevertSale(ctx *gin.Context) {
	var req request.RevertSaleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	err := h.svc.RevertSale(ctx.Request.Context(), h.raffleID(ctx), req.TicketNumber)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTicketNotFound):
			response.RenderErr(ctx, response.ErrNotFound("ticket", "number", req.TicketNumber))
		case errors.Is(err, service.ErrInvalidTicketNumber):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandleRevertSale -> h.svc.RevertSale -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.JSON(http.StatusOK, response.SuccessResponse{Success: true})
}

// HandleUpdateStatus godoc
// @Summary      Toggle the payment status of a sold ticket
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        number   path      int                          true "ticket number"
// @Param        request  body      request.UpdateStatusRequest  true "request body"
// @Success      200      {object}  response.SuccessResponse
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /admin/tickets/{number}/status [patch]
// @Security SessionAuth
func (h *TicketHandler) HandleUpdateStatus(ctx *gin.Context) {
	number, err := strconv.Atoi(ctx.Param("number"))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(service.ErrInvalidTicketNumber))

		return
	}

	var req request.UpdateStatusRequest
	if err = ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err = req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	err = h.svc.UpdateStatus(ctx.Request.Context(), h.raffleID(ctx), number, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTicketNotFound):
			response.RenderErr(ctx, response.ErrNotFound("ticket", "number", number))
		case errors.Is(err, service.ErrInvalidTicketNumber), errors.Is(err, service.ErrInvalidStatus):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandleUpdateStatus -> h.svc.UpdateStatus -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.JSON(http.StatusOK, response.SuccessResponse{Success: true})
}

// HandleInitializeTickets godoc
// @Summary      Populate the ticket pool
// @Description  Creates tickets 1..totalTickets once. A pool that already has tickets is left untouched.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      request.InitializeTicketsRequest true "request body"
// @Success      200      {object}  response.InitializeResponse
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /admin/tickets/initialize [post]
// @Security SessionAuth
func (h *TicketHandler) HandleInitializeTickets(ctx *gin.Context) {
	var req request.InitializeTicketsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	totalTickets := req.TotalTickets
	if totalTickets == 0 {
		totalTickets = h.defaultTotalTickets
	}

	created, err := h.svc.InitializeTickets(ctx.Request.Context(), h.raffleID(ctx), totalTickets)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTotalTickets) {
			response.RenderErr(ctx, response.ErrBadRequest(err))

			return
		}

		err = fmt.Errorf("v1.HandleInitializeTickets -> h.svc.InitializeTickets -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	message := "tickets already initialized"
	if created {
		message = fmt.Sprintf("initialized %d tickets", totalTickets)
	}

	ctx.JSON(http.StatusOK, response.InitializeResponse{
		Success: true,
		Message: message,
	})
}

func (h *TicketHandler) raffleID(ctx *gin.Context) string {
	if raffleID := ctx.Query("raffleId"); raffleID != "" {
		return raffleID
	}

	return h.defaultRaffleID
}

func queryInt(ctx *gin.Context, key string, fallback int) int {
	value, err := strconv.Atoi(ctx.Query(key))
	if err != nil || value < 1 {
		return fallback
	}

	return value
}
