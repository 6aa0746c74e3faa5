package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/granrifa/rifa-api/internal/domain"
	"github.com/granrifa/rifa-api/internal/repository/dao"
)

var (
	ErrTicketNotFound    = dao.ErrTicketNotFound
	ErrTicketAlreadySold = dao.ErrTicketAlreadySold
	ErrTicketExists      = dao.ErrTicketExists
)

type TicketDAO interface {
	FindAll(ctx context.Context, raffleID string) ([]dao.Ticket, error)
	Count(ctx context.Context, raffleID string) (int64, error)
	CountSold(ctx context.Context, raffleID string) (int64, error)
	FindPage(ctx context.Context, raffleID string, offset, limit int) ([]dao.Ticket, error)
	CountSoldFiltered(ctx context.Context, raffleID, filter string) (int64, error)
	FindSoldPage(ctx context.Context, raffleID, filter string, offset, limit int) ([]dao.Ticket, error)
	SellAll(ctx context.Context, raffleID string, numbers []int, name, phone, status string, soldDate time.Time) error
	Revert(ctx context.Context, raffleID string, number int) error
	UpdateStatus(ctx context.Context, raffleID string, number int, status string) error
	InsertAll(ctx context.Context, tickets []dao.Ticket, batchSize int) error
}

type TicketRepository struct {
	dao TicketDAO
}

func NewTicketRepository(dao TicketDAO) *TicketRepository {
	return &TicketRepository{
		dao: dao,
	}
}

func (r *TicketRepository) FindAll(ctx context.Context, raffleID string) ([]domain.Ticket, error) {
	found, err := r.dao.FindAll(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	return r.daoToDomainAll(found), nil
}

func (r *TicketRepository) Count(ctx context.Context, raffleID string) (int64, error) {
	count, err := r.dao.Count(ctx, raffleID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.Count -> %w", err)
	}

	return count, nil
}

func (r *TicketRepository) CountSold(ctx context.Context, raffleID string) (int64, error) {
	count, err := r.dao.CountSold(ctx, raffleID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountSold -> %w", err)
	}

	return count, nil
}

func (r *TicketRepository) FindPage(ctx context.Context, raffleID string, offset, limit int) ([]domain.Ticket, error) {
	found, err := r.dao.FindPage(ctx, raffleID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindPage -> %w", err)
	}

	return r.daoToDomainAll(found), nil
}

func (r *TicketRepository) CountSoldFiltered(ctx context.Context, raffleID, filter string) (int64, error) {
	count, err := r.dao.CountSoldFiltered(ctx, raffleID, filter)
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountSoldFiltered -> %w", err)
	}

	return count, nil
}

func (r *TicketRepository) FindSoldPage(ctx context.Context, raffleID, filter string, offset, limit int) ([]domain.Ticket, error) {
	found, err := r.dao.FindSoldPage(ctx, raffleID, filter, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindSoldPage -> %w", err)
	}

	return r.daoToDomainAll(found), nil
}

func (r *TicketRepository) SellAll(ctx context.Context, raffleID string, numbers []int, name, phone, status string, soldDate time.Time) error {
	if err := r.dao.SellAll(ctx, raffleID, numbers, name, phone, status, soldDate); err != nil {
		return fmt.Errorf("r.dao.SellAll -> %w", err)
	}

	return nil
}

func (r *TicketRepository) Revert(ctx context.Context, raffleID string, number int) error {
	if err := r.dao.Revert(ctx, raffleID, number); err != nil {
		return fmt.Errorf("r.dao.Revert -> %w", err)
	}

	return nil
}

func (r *TicketRepository) UpdateStatus(ctx context.Context, raffleID string, number int, status string) error {
	if err := r.dao.UpdateStatus(ctx, raffleID, number, status); err != nil {
		return fmt.Errorf("r.dao.UpdateStatus -> %w", err)
	}

	return nil
}

func (r *TicketRepository) CreateRange(ctx context.Context, raffleID string, from, to, batchSize int) error {
	tickets := make([]dao.Ticket, 0, to-from+1)
	for number := from; number <= to; number++ {
		tickets = append(tickets, dao.Ticket{
			Number:   number,
			RaffleID: raffleID,
			Sold:     false,
			Status:   domain.StatusUnpaid,
		})
	}

	if err := r.dao.InsertAll(ctx, tickets, batchSize); err != nil {
		return fmt.Errorf("r.dao.InsertAll -> %w", err)
	}

	return nil
}

func (r *TicketRepository) daoToDomain(t dao.Ticket) domain.Ticket {
	return domain.Ticket{
		Number:   t.Number,
		RaffleID: t.RaffleID,
		Sold:     t.Sold,
		Name:     t.Name,
		Phone:    t.Phone,
		Status:   t.Status,
		SoldDate: t.SoldDate,
	}
}

func (r *TicketRepository) daoToDomainAll(tickets []dao.Ticket) []domain.Ticket {
	converted := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		converted = append(converted, r.daoToDomain(t))
	}

	return converted
}
