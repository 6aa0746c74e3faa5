package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/granrifa/rifa-api/internal/domain"
	"github.com/granrifa/rifa-api/internal/repository"
)

var (
	ErrTicketNotFound    = repository.ErrTicketNotFound
	ErrTicketAlreadySold = repository.ErrTicketAlreadySold

	ErrMissingBuyerFields  = errors.New("name, phone and at least one ticket number are required")
	ErrInvalidTicketNumber = errors.New("ticket number must be a positive integer")
	ErrInvalidStatus       = errors.New(`status must be "Pagado" or "No pagado"`)
	ErrInvalidTotalTickets = errors.New("total tickets must be a positive integer")
)

type TicketRepository interface {
	FindAll(ctx context.Context, raffleID string) ([]domain.Ticket, error)
	Count(ctx context.Context, raffleID string) (int64, error)
	CountSold(ctx context.Context, raffleID string) (int64, error)
	FindPage(ctx context.Context, raffleID string, offset, limit int) ([]domain.Ticket, error)
	CountSoldFiltered(ctx context.Context, raffleID, filter string) (int64, error)
	FindSoldPage(ctx context.Context, raffleID, filter string, offset, limit int) ([]domain.Ticket, error)
	SellAll(ctx context.Context, raffleID string, numbers []int, name, phone, status string, soldDate time.Time) error
	Revert(ctx context.Context, raffleID string, number int) error
	UpdateStatus(ctx context.Context, raffleID string, number int, status string) error
	CreateRange(ctx context.Context, raffleID string, from, to, batchSize int) error
}

// SaleInput carries one sale request, single or multi-ticket.
type SaleInput struct {
	Name          string
	Phone         string
	Status        string
	TicketNumbers []int
}

type TicketService struct {
	repo            TicketRepository
	insertBatchSize int
	now             func() time.Time
}

func NewTicketService(repo TicketRepository, insertBatchSize int) *TicketService {
	return &TicketService{
		repo:            repo,
		insertBatchSize: insertBatchSize,
		now:             time.Now,
	}
}

// ListAll returns every ticket ordered by number. Store errors degrade to an
// empty listing so the public grid always renders; callers must tolerate a
// false-empty result.
func (s *TicketService) ListAll(ctx context.Context, raffleID string) []domain.Ticket {
	tickets, err := s.repo.FindAll(ctx, raffleID)
	if err != nil {
		zap.L().Error("failed to list tickets", zap.String("raffleID", raffleID), zap.Error(err))

		return []domain.Ticket{}
	}

	return tickets
}

// ListPage returns one page in ascending-number order. Like ListAll, store
// errors degrade to an empty page with a zeroed total.
func (s *TicketService) ListPage(ctx context.Context, page, pageSize int, raffleID string) ([]domain.Ticket, domain.Pagination) {
	if page < 1 {
		page = 1
	}

	emptyPage := domain.Pagination{
		Total:       0,
		PageSize:    pageSize,
		CurrentPage: page,
		TotalPages:  0,
	}

	total, err := s.repo.Count(ctx, raffleID)
	if err != nil {
		zap.L().Error("failed to count tickets", zap.String("raffleID", raffleID), zap.Error(err))

		return []domain.Ticket{}, emptyPage
	}

	offset := (page - 1) * pageSize
	tickets, err := s.repo.FindPage(ctx, raffleID, offset, pageSize)
	if err != nil {
		zap.L().Error("failed to list ticket page", zap.String("raffleID", raffleID), zap.Error(err))

		return []domain.Ticket{}, emptyPage
	}

	return tickets, domain.Pagination{
		Total:       total,
		PageSize:    pageSize,
		CurrentPage: page,
		TotalPages:  totalPages(total, pageSize),
	}
}

// ListSold backs the admin dashboard table: sold tickets only, filtered at
// the store by number, name (case-insensitive) or phone substring. A page
// past the end yields an empty slice, not an error.
func (s *TicketService) ListSold(ctx context.Context, page, pageSize int, filter, raffleID string) ([]domain.Ticket, domain.Pagination, error) {
	if page < 1 {
		page = 1
	}

	total, err := s.repo.CountSoldFiltered(ctx, raffleID, filter)
	if err != nil {
		return nil, domain.Pagination{}, fmt.Errorf("s.repo.CountSoldFiltered -> %w", err)
	}

	offset := (page - 1) * pageSize
	tickets, err := s.repo.FindSoldPage(ctx, raffleID, filter, offset, pageSize)
	if err != nil {
		return nil, domain.Pagination{}, fmt.Errorf("s.repo.FindSoldPage -> %w", err)
	}

	return tickets, domain.Pagination{
		Total:       total,
		PageSize:    pageSize,
		CurrentPage: page,
		TotalPages:  totalPages(total, pageSize),
	}, nil
}

func (s *TicketService) Stats(ctx context.Context, raffleID string) (domain.Stats, error) {
	total, err := s.repo.Count(ctx, raffleID)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("s.repo.Count -> %w", err)
	}

	sold, err := s.repo.CountSold(ctx, raffleID)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("s.repo.CountSold -> %w", err)
	}

	return domain.Stats{
		Total:     total,
		Sold:      sold,
		Available: total - sold,
	}, nil
}

// SellTickets applies one sale to every requested number. The repository
// runs the updates in a single transaction, so a ticket that is already
// sold rolls the whole request back.
func (s *TicketService) SellTickets(ctx context.Context, raffleID string, input SaleInput) error {
	if input.Name == "" || input.Phone == "" || len(input.TicketNumbers) == 0 {
		return ErrMissingBuyerFields
	}

	for _, number := range input.TicketNumbers {
		if number < 1 {
			return ErrInvalidTicketNumber
		}
	}

	status := input.Status
	if status == "" {
		status = domain.StatusUnpaid
	}
	if !domain.ValidStatus(status) {
		return ErrInvalidStatus
	}

	err := s.repo.SellAll(ctx, raffleID, input.TicketNumbers, input.Name, input.Phone, status, s.now())
	if err != nil {
		if errors.Is(err, ErrTicketAlreadySold) || errors.Is(err, ErrTicketNotFound) {
			return err
		}

		return fmt.Errorf("s.repo.SellAll -> %w", err)
	}

	return nil
}

// RevertSale puts a ticket back on sale and clears the buyer fields.
// Status keeps its last value. Reverting an available ticket is a
// harmless no-op write.
func (s *TicketService) RevertSale(ctx context.Context, raffleID string, number int) error {
	if number < 1 {
		return ErrInvalidTicketNumber
	}

	if err := s.repo.Revert(ctx, raffleID, number); err != nil {
		if errors.Is(err, ErrTicketNotFound) {
			return err
		}

		return fmt.Errorf("s.repo.Revert -> %w", err)
	}

	return nil
}

func (s *TicketService) UpdateStatus(ctx context.Context, raffleID string, number int, status string) error {
	if number < 1 {
		return ErrInvalidTicketNumber
	}
	if !domain.ValidStatus(status) {
		return ErrInvalidStatus
	}

	if err := s.repo.UpdateStatus(ctx, raffleID, number, status); err != nil {
		if errors.Is(err, ErrTicketNotFound) {
			return err
		}

		return fmt.Errorf("s.repo.UpdateStatus -> %w", err)
	}

	return nil
}

// InitializeTickets populates the pool with numbers 1..totalTickets once.
// The returned flag reports whether this call created the pool; a pool that
// already has tickets is left untouched.
func (s *TicketService) InitializeTickets(ctx context.Context, raffleID string, totalTickets int) (bool, error) {
	if totalTickets < 1 {
		return false, ErrInvalidTotalTickets
	}

	count, err := s.repo.Count(ctx, raffleID)
	if err != nil {
		return false, fmt.Errorf("s.repo.Count -> %w", err)
	}
	if count > 0 {
		return false, nil
	}

	err = s.repo.CreateRange(ctx, raffleID, 1, totalTickets, s.insertBatchSize)
	if err != nil {
		// A unique violation means another admin initialized the pool
		// between our count and the insert. Same outcome as count > 0.
		if errors.Is(err, repository.ErrTicketExists) {
			return false, nil
		}

		return false, fmt.Errorf("s.repo.CreateRange -> %w", err)
	}

	return true, nil
}

func totalPages(total int64, pageSize int) int {
	if pageSize < 1 {
		return 0
	}

	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
