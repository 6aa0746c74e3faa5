package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granrifa/rifa-api/internal/domain"
	"github.com/granrifa/rifa-api/internal/repository"
)

// fakeTicketRepo is an in-memory stand-in for the Postgres-backed
// repository. Its SellAll is all-or-nothing like the real transaction,
// and its sold filter mirrors the SQL (ILIKE on name, LIKE on number
// text and phone).
type fakeTicketRepo struct {
	tickets  map[int]*domain.Ticket
	failNext error
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		tickets: make(map[int]*domain.Ticket),
	}
}

func (f *fakeTicketRepo) sortedNumbers() []int {
	numbers := make([]int, 0, len(f.tickets))
	for n := range f.tickets {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	return numbers
}

func (f *fakeTicketRepo) FindAll(_ context.Context, _ string) ([]domain.Ticket, error) {
	if f.failNext != nil {
		return nil, f.failNext
	}

	all := make([]domain.Ticket, 0, len(f.tickets))
	for _, n := range f.sortedNumbers() {
		all = append(all, *f.tickets[n])
	}

	return all, nil
}

func (f *fakeTicketRepo) Count(_ context.Context, _ string) (int64, error) {
	if f.failNext != nil {
		return 0, f.failNext
	}

	return int64(len(f.tickets)), nil
}

func (f *fakeTicketRepo) CountSold(_ context.Context, _ string) (int64, error) {
	var count int64
	for _, t := range f.tickets {
		if t.Sold {
			count++
		}
	}

	return count, nil
}

func (f *fakeTicketRepo) FindPage(_ context.Context, _ string, offset, limit int) ([]domain.Ticket, error) {
	if f.failNext != nil {
		return nil, f.failNext
	}

	numbers := f.sortedNumbers()
	page := make([]domain.Ticket, 0, limit)
	for i := offset; i < len(numbers) && len(page) < limit; i++ {
		page = append(page, *f.tickets[numbers[i]])
	}

	return page, nil
}

func (f *fakeTicketRepo) matchesFilter(t *domain.Ticket, filter string) bool {
	if !t.Sold {
		return false
	}
	if filter == "" {
		return true
	}
	if strings.Contains(strconv.Itoa(t.Number), filter) {
		return true
	}
	if t.Name != nil && strings.Contains(strings.ToLower(*t.Name), strings.ToLower(filter)) {
		return true
	}
	if t.Phone != nil && strings.Contains(*t.Phone, filter) {
		return true
	}

	return false
}

func (f *fakeTicketRepo) CountSoldFiltered(_ context.Context, _ string, filter string) (int64, error) {
	var count int64
	for _, t := range f.tickets {
		if f.matchesFilter(t, filter) {
			count++
		}
	}

	return count, nil
}

func (f *fakeTicketRepo) FindSoldPage(_ context.Context, _ string, filter string, offset, limit int) ([]domain.Ticket, error) {
	matched := make([]domain.Ticket, 0)
	for _, n := range f.sortedNumbers() {
		if f.matchesFilter(f.tickets[n], filter) {
			matched = append(matched, *f.tickets[n])
		}
	}

	if offset >= len(matched) {
		return []domain.Ticket{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}

	return matched[offset:end], nil
}

func (f *fakeTicketRepo) SellAll(_ context.Context, _ string, numbers []int, name, phone, status string, soldDate time.Time) error {
	// Validate everything first so a conflict leaves no ticket mutated,
	// the way the real transaction rolls back.
	for _, number := range numbers {
		t, ok := f.tickets[number]
		if !ok {
			return fmt.Errorf("ticket %d: %w", number, repository.ErrTicketNotFound)
		}
		if t.Sold {
			return fmt.Errorf("ticket %d: %w", number, repository.ErrTicketAlreadySold)
		}
	}

	for _, number := range numbers {
		t := f.tickets[number]
		n, p, d := name, phone, soldDate
		t.Sold = true
		t.Name = &n
		t.Phone = &p
		t.Status = status
		t.SoldDate = &d
	}

	return nil
}

func (f *fakeTicketRepo) Revert(_ context.Context, _ string, number int) error {
	t, ok := f.tickets[number]
	if !ok {
		return fmt.Errorf("ticket %d: %w", number, repository.ErrTicketNotFound)
	}

	t.Sold = false
	t.Name = nil
	t.Phone = nil
	t.SoldDate = nil

	return nil
}

func (f *fakeTicketRepo) UpdateStatus(_ context.Context, _ string, number int, status string) error {
	t, ok := f.tickets[number]
	if !ok {
		return fmt.Errorf("ticket %d: %w", number, repository.ErrTicketNotFound)
	}

	t.Status = status

	return nil
}

func (f *fakeTicketRepo) CreateRange(_ context.Context, raffleID string, from, to, _ int) error {
	for number := from; number <= to; number++ {
		if _, ok := f.tickets[number]; ok {
			return repository.ErrTicketExists
		}
	}
	for number := from; number <= to; number++ {
		f.tickets[number] = &domain.Ticket{
			Number:   number,
			RaffleID: raffleID,
			Sold:     false,
			Status:   domain.StatusUnpaid,
		}
	}

	return nil
}

func newTestService(repo TicketRepository, now time.Time) *TicketService {
	svc := NewTicketService(repo, 100)
	svc.now = func() time.Time { return now }

	return svc
}

func TestInitializeTickets(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTicketRepo()
	svc := newTestService(repo, time.Now())

	created, err := svc.InitializeTickets(ctx, "default", 5)
	require.NoError(t, err)
	assert.True(t, created)

	all, err := repo.FindAll(ctx, "default")
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, ticket := range all {
		assert.Equal(t, i+1, ticket.Number)
		assert.False(t, ticket.Sold)
		assert.Nil(t, ticket.Name)
		assert.Nil(t, ticket.Phone)
		assert.Nil(t, ticket.SoldDate)
	}

	// Second run is a no-op that still reports success.
	created, err = svc.InitializeTickets(ctx, "default", 5)
	require.NoError(t, err)
	assert.False(t, created)

	count, err := repo.Count(ctx, "default")
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)
}

func TestInitializeTickets_InvalidTotal(t *testing.T) {
	svc := newTestService(newFakeTicketRepo(), time.Now())

	_, err := svc.InitializeTickets(context.Background(), "default", 0)
	assert.ErrorIs(t, err, ErrInvalidTotalTickets)
}

func TestInitializeTickets_ConcurrentInitialization(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTicketRepo()
	require.NoError(t, repo.CreateRange(ctx, "default", 1, 3, 100))

	// Simulate the pool appearing between the count and the insert.
	svc := newTestService(&racingRepo{fakeTicketRepo: repo}, time.Now())

	created, err := svc.InitializeTickets(ctx, "default", 3)
	require.NoError(t, err)
	assert.False(t, created)
}

// racingRepo reports an empty pool but fails the insert with the
// unique-violation sentinel, like a concurrent initializer would cause.
type racingRepo struct {
	*fakeTicketRepo
}

func (r *racingRepo) Count(_ context.Context, _ string) (int64, error) {
	return 0, nil
}

func TestSellTickets(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTicketRepo()
	soldAt := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	svc := newTestService(repo, soldAt)

	_, err := svc.InitializeTickets(ctx, "default", 5)
	require.NoError(t, err)

	err = svc.SellTickets(ctx, "default", SaleInput{
		Name:          "Ana",
		Phone:         "555",
		Status:        domain.StatusPaid,
		TicketNumbers: []int{3},
	})
	require.NoError(t, err)

	ticket := *repo.tickets[3]
	assert.True(t, ticket.Sold)
	require.NotNil(t, ticket.Name)
	assert.Equal(t, "Ana", *ticket.Name)
	require.NotNil(t, ticket.Phone)
	assert.Equal(t, "555", *ticket.Phone)
	assert.Equal(t, domain.StatusPaid, ticket.Status)
	require.NotNil(t, ticket.SoldDate)
	assert.Equal(t, soldAt, *ticket.SoldDate)
}

func TestSellTickets_DefaultStatus(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTicketRepo()
	svc := newTestService(repo, time.Now())

	_, err := svc.InitializeTickets(ctx, "default", 2)
	require.NoError(t, err)

	err = svc.SellTickets(ctx, "default", SaleInput{
		Name:          "Luis",
		Phone:         "777",
		TicketNumbers: []int{1},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusUnpaid, repo.tickets[1].Status)
}

func TestSellTickets_MissingFields(t *testing.T) {
	svc := newTestService(newFakeTicketRepo(), time.Now())
	ctx := context.Background()

	tests := []struct {
		name  string
		input SaleInput
	}{
		{"no name", SaleInput{Phone: "555", TicketNumbers: []int{1}}},
		{"no phone", SaleInput{Name: "Ana", TicketNumbers: []int{1}}},
		{"no tickets", SaleInput{Name: "Ana", Phone: "555"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.SellTickets(ctx, "default", tc.input)
			assert.ErrorIs(t, err, ErrMissingBuyerFields)
		})
	}
}

func TestSellTickets_ConflictRollsBackWholeBatch(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTicketRepo()
	svc := newTestService(repo, time.Now())

	_, err := svc.InitializeTickets(ctx, "default", 5)
	require.NoError(t, err)

	// Ticket 4 goes to another buyer first.
	err = svc.SellTickets(ctx, "default", SaleInput{
		Name:          "Marta",
		Phone:         "111",
		TicketNumbers: []int{4},
	})
	require.NoError(t, err)

	err = svc.SellTickets(ctx, "default", SaleInput{
		Name:          "Ana",
		Phone:         "555",
		TicketNumbers: []int{2, 3, 4},
	})
	require.ErrorIs(t, err, ErrTicketAlreadySold)
	assert.Contains(t, err.Error(), "4")

	// Nothing from the failed request landed, and ticket 4 kept its buyer.
	assert.False(t, repo.tickets[2].Sold)
	assert.Nil(t, repo.tickets[2].Name)
	assert.False(t, repo.tickets[3].Sold)
	assert.Equal(t, "Marta", *repo.tickets[4].Name)
}

func TestSellTickets_UnknownNumber(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTicketRepo()
	svc := newTestService(repo, time.Now())

	_, err := svc.InitializeTickets(ctx, "default", 2)
	require.NoError(t, err)

	err = svc.SellTickets(ctx, "default", SaleInput{
		Name:          "Ana",
		Phone:         "555",
		TicketNumbers: []int{99},
	})
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestRevertSale(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTicketRepo()
	svc := newTestService(repo, time.Now())

	_, err := svc.InitializeTickets(ctx, "default", 5)
	require.NoError(t, err)

	err = svc.SellTickets(ctx, "default", SaleInput{
		Name:          "Ana",
		Phone:         "555",
		Status:        domain.StatusPaid,
		TicketNumbers: []int{3},
	})
	require.NoError(t, err)

	err = svc.RevertSale(ctx, "default", 3)
	require.NoError(t, err)

	ticket := *repo.tickets[3]
	assert.False(t, ticket.Sold)
	assert.Nil(t, ticket.Name)
	assert.Nil(t, ticket.Phone)
	assert.Nil(t, ticket.SoldDate)
	// Documented behavior: reverting does not reset the payment status.
	assert.Equal(t, domain.StatusPaid, ticket.Status)
}

func TestRevertSale_AvailableTicketIsNoOp(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTicketRepo()
	svc := newTestService(repo, time.Now())

	_, err := svc.InitializeTickets(ctx, "default", 3)
	require.NoError(t, err)

	err = svc.RevertSale(ctx, "default", 2)
	require.NoError(t, err)
	assert.False(t, repo.tickets[2].Sold)
}

func TestRevertSale_InvalidNumber(t *testing.T) {
	svc := newTestService(newFakeTicketRepo(), time.Now())

	err := svc.RevertSale(context.Background(), "default", 0)
	assert.ErrorIs(t, err, ErrInvalidTicketNumber)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTicketRepo()
	svc := newTestService(repo, time.Now())

	_, err := svc.InitializeTickets(ctx, "default", 3)
	require.NoError(t, err)

	err = svc.UpdateStatus(ctx, "default", 2, domain.StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, repo.tickets[2].Status)

	// Only the status field moves.
	assert.False(t, repo.tickets[2].Sold)
	assert.Nil(t, repo.tickets[2].Name)

	err = svc.UpdateStatus(ctx, "default", 2, "Quizás")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	err = svc.UpdateStatus(ctx, "default", 99, domain.StatusPaid)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestListSold_Pagination(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTicketRepo()
	svc := newTestService(repo, time.Now())

	_, err := svc.InitializeTickets(ctx, "default", 30)
	require.NoError(t, err)

	numbers := make([]int, 0, 25)
	for n := 1; n <= 25; n++ {
		numbers = append(numbers, n)
	}
	err = svc.SellTickets(ctx, "default", SaleInput{
		Name:          "Ana",
		Phone:         "555",
		TicketNumbers: numbers,
	})
	require.NoError(t, err)

	page1, pagination, err := svc.ListSold(ctx, 1, 10, "", "default")
	require.NoError(t, err)
	assert.Len(t, page1, 10)
	assert.EqualValues(t, 25, pagination.Total)
	assert.Equal(t, 3, pagination.TotalPages)
	assert.Equal(t, 1, pagination.CurrentPage)

	page3, _, err := svc.ListSold(ctx, 3, 10, "", "default")
	require.NoError(t, err)
	assert.Len(t, page3, 5)

	// Past the end degrades to an empty slice, not an error.
	page4, _, err := svc.ListSold(ctx, 4, 10, "", "default")
	require.NoError(t, err)
	assert.Empty(t, page4)
}

func TestListSold_Filter(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTicketRepo()
	svc := newTestService(repo, time.Now())

	_, err := svc.InitializeTickets(ctx, "default", 10)
	require.NoError(t, err)

	sell := func(name, phone string, numbers ...int) {
		t.Helper()
		require.NoError(t, svc.SellTickets(ctx, "default", SaleInput{
			Name:          name,
			Phone:         phone,
			TicketNumbers: numbers,
		}))
	}
	sell("Ana García", "555-1234", 1)
	sell("Luis Pérez", "662-9999", 2)
	sell("MARIANA", "555-8888", 3)

	// Name matches case-insensitively.
	tickets, _, err := svc.ListSold(ctx, 1, 10, "ana", "default")
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, 1, tickets[0].Number)
	assert.Equal(t, 3, tickets[1].Number)

	// Phone matches as a plain substring.
	tickets, _, err = svc.ListSold(ctx, 1, 10, "555", "default")
	require.NoError(t, err)
	assert.Len(t, tickets, 2)

	// Number matches by its decimal text; ticket 1's phone also contains "2".
	tickets, _, err = svc.ListSold(ctx, 1, 10, "2", "default")
	require.NoError(t, err)
	require.Len(t, tickets, 2)
}

func TestListAll_DegradesToEmptyOnStoreError(t *testing.T) {
	repo := newFakeTicketRepo()
	repo.failNext = errors.New("connection refused")
	svc := newTestService(repo, time.Now())

	tickets := svc.ListAll(context.Background(), "default")
	assert.NotNil(t, tickets)
	assert.Empty(t, tickets)
}

func TestListPage_DegradesToEmptyOnStoreError(t *testing.T) {
	repo := newFakeTicketRepo()
	repo.failNext = errors.New("connection refused")
	svc := newTestService(repo, time.Now())

	tickets, pagination := svc.ListPage(context.Background(), 2, 100, "default")
	assert.Empty(t, tickets)
	assert.EqualValues(t, 0, pagination.Total)
	assert.Equal(t, 0, pagination.TotalPages)
	assert.Equal(t, 2, pagination.CurrentPage)
	assert.Equal(t, 100, pagination.PageSize)
}

func TestListPage(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTicketRepo()
	svc := newTestService(repo, time.Now())

	_, err := svc.InitializeTickets(ctx, "default", 250)
	require.NoError(t, err)

	tickets, pagination := svc.ListPage(ctx, 3, 100, "default")
	assert.Len(t, tickets, 50)
	assert.EqualValues(t, 250, pagination.Total)
	assert.Equal(t, 3, pagination.TotalPages)
	assert.Equal(t, 201, tickets[0].Number)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTicketRepo()
	svc := newTestService(repo, time.Now())

	_, err := svc.InitializeTickets(ctx, "default", 10)
	require.NoError(t, err)

	err = svc.SellTickets(ctx, "default", SaleInput{
		Name:          "Ana",
		Phone:         "555",
		TicketNumbers: []int{1, 2, 3},
	})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, "default")
	require.NoError(t, err)
	assert.EqualValues(t, 10, stats.Total)
	assert.EqualValues(t, 3, stats.Sold)
	assert.EqualValues(t, 7, stats.Available)
}

func TestSoldInvariant_UnsoldTicketsHaveNoBuyerFields(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTicketRepo()
	svc := newTestService(repo, time.Now())

	_, err := svc.InitializeTickets(ctx, "default", 10)
	require.NoError(t, err)

	require.NoError(t, svc.SellTickets(ctx, "default", SaleInput{
		Name: "Ana", Phone: "555", TicketNumbers: []int{5, 6},
	}))
	require.NoError(t, svc.RevertSale(ctx, "default", 6))

	for _, ticket := range svc.ListAll(ctx, "default") {
		if ticket.Sold {
			continue
		}
		assert.Nil(t, ticket.Name, "ticket %d", ticket.Number)
		assert.Nil(t, ticket.Phone, "ticket %d", ticket.Number)
		assert.Nil(t, ticket.SoldDate, "ticket %d", ticket.Number)
	}
}
