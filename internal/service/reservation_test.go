package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/club-seat-reservation/internal/model"
	"github.com/iliyamo/club-seat-reservation/internal/testutil"
)

var kickoff = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

func seedCustomer(t *testing.T, store *testutil.Store, email string) uint64 {
	t.Helper()
	c, err := store.Customers().Upsert(context.Background(), model.Customer{Email: email})
	require.NoError(t, err)
	return c.ID
}

func countStatus(store *testutil.Store, gameID uint64, status string) int {
	n := 0
	for _, id := range store.TicketIDs(gameID) {
		if tk, _ := store.Ticket(id); tk.Status == status {
			n++
		}
	}
	return n
}

func TestReservationEngine_Reserve(t *testing.T) {
	t.Parallel()

	t.Run("reserves lowest ids first", func(t *testing.T) {
		store := testutil.NewStore()
		gameID := store.SeedGame("Rivals FC", kickoff, map[string]int{"North": 5})
		customer := seedCustomer(t, store, "fan@example.com")

		res, err := NewReservationEngine(store.Tickets()).Reserve(context.Background(), gameID, customer, 2)
		require.NoError(t, err)
		assert.Equal(t, model.ReservationResult{Reserved: 2, Requested: 2}, res)

		ids := store.TicketIDs(gameID)
		for i, id := range ids {
			tk, _ := store.Ticket(id)
			if i < 2 {
				assert.Equal(t, model.TicketReserved, tk.Status)
				require.NotNil(t, tk.CustomerID)
				assert.Equal(t, customer, *tk.CustomerID)
			} else {
				assert.Equal(t, model.TicketAvailable, tk.Status)
				assert.Nil(t, tk.CustomerID)
			}
		}
	})

	t.Run("partial when fewer seats remain", func(t *testing.T) {
		store := testutil.NewStore()
		gameID := store.SeedGame("Rivals FC", kickoff, map[string]int{"North": 3})
		customer := seedCustomer(t, store, "fan@example.com")

		res, err := NewReservationEngine(store.Tickets()).Reserve(context.Background(), gameID, customer, 5)
		require.NoError(t, err)
		assert.Equal(t, model.ReservationResult{Reserved: 3, Requested: 5}, res)
		assert.Equal(t, 0, countStatus(store, gameID, model.TicketAvailable))
	})

	t.Run("nothing left", func(t *testing.T) {
		store := testutil.NewStore()
		gameID := store.SeedGame("Rivals FC", kickoff, map[string]int{"North": 1})
		customer := seedCustomer(t, store, "fan@example.com")
		engine := NewReservationEngine(store.Tickets())

		_, err := engine.Reserve(context.Background(), gameID, customer, 1)
		require.NoError(t, err)
		res, err := engine.Reserve(context.Background(), gameID, customer, 2)
		require.NoError(t, err)
		assert.Equal(t, model.ReservationResult{Reserved: 0, Requested: 2}, res)
	})

	t.Run("rejects quantity below one", func(t *testing.T) {
		store := testutil.NewStore()
		_, err := NewReservationEngine(store.Tickets()).Reserve(context.Background(), 1, 1, 0)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		assert.True(t, errors.Is(err, ErrValidation))
	})

	t.Run("resubmission reserves more", func(t *testing.T) {
		store := testutil.NewStore()
		gameID := store.SeedGame("Rivals FC", kickoff, map[string]int{"North": 6})
		customer := seedCustomer(t, store, "fan@example.com")
		engine := NewReservationEngine(store.Tickets())

		for i := 0; i < 2; i++ {
			_, err := engine.Reserve(context.Background(), gameID, customer, 2)
			require.NoError(t, err)
		}
		assert.Equal(t, 4, countStatus(store, gameID, model.TicketReserved))
	})
}

// racingTickets lets a rival customer take the first ticket the engine
// tries to reserve.
type racingTickets struct {
	TicketStore
	rival uint64
	once  sync.Once
}

func (r *racingTickets) ReserveIfAvailable(ctx context.Context, ticketID, customerID uint64) (bool, error) {
	r.once.Do(func() {
		_, _ = r.TicketStore.ReserveIfAvailable(ctx, ticketID, r.rival)
	})
	return r.TicketStore.ReserveIfAvailable(ctx, ticketID, customerID)
}

func TestReservationEngine_ReselectsAfterLostRace(t *testing.T) {
	t.Parallel()

	store := testutil.NewStore()
	gameID := store.SeedGame("Rivals FC", kickoff, map[string]int{"North": 4})
	customer := seedCustomer(t, store, "fan@example.com")
	rival := seedCustomer(t, store, "rival@example.com")

	engine := NewReservationEngine(&racingTickets{TicketStore: store.Tickets(), rival: rival})
	res, err := engine.Reserve(context.Background(), gameID, customer, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Reserved)

	first, _ := store.Ticket(store.TicketIDs(gameID)[0])
	require.NotNil(t, first.CustomerID)
	assert.Equal(t, rival, *first.CustomerID)
	assert.Equal(t, 1, countStatus(store, gameID, model.TicketAvailable))
}

// losingTickets loses every conditional update.
type losingTickets struct {
	TicketStore
	selections int
}

func (l *losingTickets) AvailableIDs(ctx context.Context, gameID uint64, limit int) ([]uint64, error) {
	l.selections++
	return l.TicketStore.AvailableIDs(ctx, gameID, limit)
}

func (l *losingTickets) ReserveIfAvailable(context.Context, uint64, uint64) (bool, error) {
	return false, nil
}

func TestReservationEngine_BoundedRounds(t *testing.T) {
	t.Parallel()

	store := testutil.NewStore()
	gameID := store.SeedGame("Rivals FC", kickoff, map[string]int{"North": 4})
	customer := seedCustomer(t, store, "fan@example.com")

	fake := &losingTickets{TicketStore: store.Tickets()}
	res, err := NewReservationEngine(fake, WithMaxRounds(3)).Reserve(context.Background(), gameID, customer, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Reserved)
	assert.Equal(t, 3, fake.selections)
}

type failingTickets struct {
	TicketStore
	calls int
}

func (f *failingTickets) ReserveIfAvailable(ctx context.Context, ticketID, customerID uint64) (bool, error) {
	f.calls++
	if f.calls == 2 {
		return false, errors.New("connection reset")
	}
	return f.TicketStore.ReserveIfAvailable(ctx, ticketID, customerID)
}

func TestReservationEngine_StorageErrorKeepsPartialCount(t *testing.T) {
	t.Parallel()

	store := testutil.NewStore()
	gameID := store.SeedGame("Rivals FC", kickoff, map[string]int{"North": 4})
	customer := seedCustomer(t, store, "fan@example.com")

	res, err := NewReservationEngine(&failingTickets{TicketStore: store.Tickets()}).Reserve(context.Background(), gameID, customer, 3)
	require.Error(t, err)
	assert.Equal(t, 1, res.Reserved)
	assert.Equal(t, 3, res.Requested)
}

func TestReservationEngine_ConcurrentRequestsNeverShareATicket(t *testing.T) {
	t.Parallel()

	const seats, workers, perRequest = 20, 12, 3

	store := testutil.NewStore()
	gameID := store.SeedGame("Rivals FC", kickoff, map[string]int{"North": seats})
	engine := NewReservationEngine(store.Tickets())

	customers := make([]uint64, workers)
	for i := range customers {
		customers[i] = seedCustomer(t, store, "fan"+strconv.Itoa(i)+"@example.com")
	}

	results := make([]model.ReservationResult, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := engine.Reserve(context.Background(), gameID, customers[i], perRequest)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	total := 0
	for _, r := range results {
		assert.LessOrEqual(t, r.Reserved, perRequest)
		total += r.Reserved
	}
	assert.LessOrEqual(t, total, seats)
	assert.Equal(t, total, countStatus(store, gameID, model.TicketReserved))
	assert.Equal(t, seats-total, countStatus(store, gameID, model.TicketAvailable))

	// Each reserved ticket is held by exactly the customer whose result counted it.
	held := map[uint64]int{}
	for _, id := range store.TicketIDs(gameID) {
		tk, _ := store.Ticket(id)
		if tk.Status == model.TicketReserved {
			require.NotNil(t, tk.CustomerID)
			held[*tk.CustomerID]++
		}
	}
	for i, c := range customers {
		assert.Equal(t, results[i].Reserved, held[c])
	}
}

func TestReservationEngine_SingleSeatRequestsExhaustExactly(t *testing.T) {
	t.Parallel()

	const seats, workers = 10, 30

	store := testutil.NewStore()
	gameID := store.SeedGame("Rivals FC", kickoff, map[string]int{"North": seats})
	engine := NewReservationEngine(store.Tickets())

	customers := make([]uint64, workers)
	for i := range customers {
		customers[i] = seedCustomer(t, store, "single"+strconv.Itoa(i)+"@example.com")
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(customer uint64) {
			defer wg.Done()
			res, err := engine.Reserve(context.Background(), gameID, customer, 1)
			assert.NoError(t, err)
			mu.Lock()
			granted += res.Reserved
			mu.Unlock()
		}(customers[i])
	}
	wg.Wait()

	assert.Equal(t, seats, granted)
	assert.Equal(t, seats, countStatus(store, gameID, model.TicketReserved))
	assert.Equal(t, 0, countStatus(store, gameID, model.TicketAvailable))
}

func TestReservationEngine_WindowReplacesLostTicketInRound(t *testing.T) {
	t.Parallel()

	store := testutil.NewStore()
	gameID := store.SeedGame("Rivals FC", kickoff, map[string]int{"North": 4})
	customer := seedCustomer(t, store, "fan@example.com")
	rival := seedCustomer(t, store, "rival@example.com")

	counting := &countingTickets{TicketStore: &racingTickets{TicketStore: store.Tickets(), rival: rival}}
	res, err := NewReservationEngine(counting).Reserve(context.Background(), gameID, customer, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Reserved)
	assert.Equal(t, 1, counting.selections)
	assert.Equal(t, 2+defaultWindow, counting.lastLimit)
}

type countingTickets struct {
	TicketStore
	selections int
	lastLimit  int
}

func (c *countingTickets) AvailableIDs(ctx context.Context, gameID uint64, limit int) ([]uint64, error) {
	c.selections++
	c.lastLimit = limit
	return c.TicketStore.AvailableIDs(ctx, gameID, limit)
}
