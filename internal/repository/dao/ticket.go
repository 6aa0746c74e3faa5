package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrTicketNotFound    = errors.New("ticket not found")
	ErrTicketAlreadySold = errors.New("ticket already sold")
	ErrTicketExists      = errors.New("ticket already exists")
)

type Ticket struct {
	Number   int    `gorm:"primaryKey;autoIncrement:false"`
	RaffleID string `gorm:"primaryKey;default:default"`

	Sold     bool `gorm:"not null;default:false;index"`
	Name     *string
	Phone    *string
	Status   string `gorm:"not null;default:No pagado"`
	SoldDate *time.Time
}

type TicketDAO struct {
	db *gorm.DB
}

func NewTicketDAO(db *gorm.DB) *TicketDAO {
	return &TicketDAO{
		db: db,
	}
}

func (d *TicketDAO) FindAll(ctx context.Context, raffleID string) ([]Ticket, error) {
	var tickets []Ticket

	result := d.db.WithContext(ctx).
		Where("raffle_id = ?", raffleID).
		Order("number ASC").
		Find(&tickets)
	if result.Error != nil {
		return nil, result.Error
	}

	return tickets, nil
}

func (d *TicketDAO) Count(ctx context.Context, raffleID string) (int64, error) {
	var count int64

	result := d.db.WithContext(ctx).
		Model(&Ticket{}).
		Where("raffle_id = ?", raffleID).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}

	return count, nil
}

func (d *TicketDAO) CountSold(ctx context.Context, raffleID string) (int64, error) {
	var count int64

	result := d.db.WithContext(ctx).
		Model(&Ticket{}).
		Where("raffle_id = ? AND sold = ?", raffleID, true).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}

	return count, nil
}

func (d *TicketDAO) FindPage(ctx context.Context, raffleID string, offset, limit int) ([]Ticket, error) {
	var tickets []Ticket

	result := d.db.WithContext(ctx).
		Where("raffle_id = ?", raffleID).
		Order("number ASC").
		Offset(offset).
		Limit(limit).
		Find(&tickets)
	if result.Error != nil {
		return nil, result.Error
	}

	return tickets, nil
}

// soldFilterScope pushes the dashboard search down to the store: name matches
// case-insensitively, number (as text) and phone match case-sensitively.
func soldFilterScope(raffleID, filter string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("raffle_id = ? AND sold = ?", raffleID, true)
		if filter == "" {
			return db
		}
		pattern := "%" + filter + "%"

		return db.Where(
			"number::text LIKE ? OR name ILIKE ? OR phone LIKE ?",
			pattern, pattern, pattern,
		)
	}
}

func (d *TicketDAO) CountSoldFiltered(ctx context.Context, raffleID, filter string) (int64, error) {
	var count int64

	result := d.db.WithContext(ctx).
		Model(&Ticket{}).
		Scopes(soldFilterScope(raffleID, filter)).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}

	return count, nil
}

func (d *TicketDAO) FindSoldPage(ctx context.Context, raffleID, filter string, offset, limit int) ([]Ticket, error) {
	var tickets []Ticket

	result := d.db.WithContext(ctx).
		Scopes(soldFilterScope(raffleID, filter)).
		Order("number ASC").
		Offset(offset).
		Limit(limit).
		Find(&tickets)
	if result.Error != nil {
		return nil, result.Error
	}

	return tickets, nil
}

// SellAll marks every given number as sold inside a single transaction.
// Each update is conditional on sold = false, so a ticket sold by a
// concurrent request makes its row count come back zero and rolls the
// whole sale back. All-or-nothing.
func (d *TicketDAO) SellAll(ctx context.Context, raffleID string, numbers []int, name, phone, status string, soldDate time.Time) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, number := range numbers {
			result := tx.Model(&Ticket{}).
				Where("number = ? AND raffle_id = ? AND sold = ?", number, raffleID, false).
				Updates(map[string]interface{}{
					"sold":      true,
					"name":      name,
					"phone":     phone,
					"status":    status,
					"sold_date": soldDate,
				})
			if result.Error != nil {
				return result.Error
			}

			if result.RowsAffected == 0 {
				// Missing row and sold row both affect zero rows; look
				// at the ticket to report the right error.
				var ticket Ticket
				err := tx.Where("number = ? AND raffle_id = ?", number, raffleID).First(&ticket).Error
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("ticket %d: %w", number, ErrTicketNotFound)
				}
				if err != nil {
					return err
				}

				return fmt.Errorf("ticket %d: %w", number, ErrTicketAlreadySold)
			}
		}

		return nil
	})
}

// Revert clears the sale. Status is intentionally left at its last value,
// so a reverted ticket keeps its payment history.
func (d *TicketDAO) Revert(ctx context.Context, raffleID string, number int) error {
	result := d.db.WithContext(ctx).Model(&Ticket{}).
		Where("number = ? AND raffle_id = ?", number, raffleID).
		Updates(map[string]interface{}{
			"sold":      false,
			"name":      nil,
			"phone":     nil,
			"sold_date": nil,
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("ticket %d: %w", number, ErrTicketNotFound)
	}

	return nil
}

func (d *TicketDAO) UpdateStatus(ctx context.Context, raffleID string, number int, status string) error {
	result := d.db.WithContext(ctx).Model(&Ticket{}).
		Where("number = ? AND raffle_id = ?", number, raffleID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("ticket %d: %w", number, ErrTicketNotFound)
	}

	return nil
}

// InsertAll creates the given tickets in fixed-size insert statements, all
// inside one transaction so a mid-run failure leaves nothing behind.
func (d *TicketDAO) InsertAll(ctx context.Context, tickets []Ticket, batchSize int) error {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(tickets, batchSize).Error
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrTicketExists
		}

		return err
	}

	return nil
}
