package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cockroachdb/errors"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/club-seat-reservation/internal/model"
)

const backfillSQL = `INSERT INTO tickets \(game_id, seat_id, price_cents, status\)\s+SELECT g.id, s.id, p.price_cents, \?`

func TestSeatCreateBulkGeneralAdmission(t *testing.T) {
	db, mock := newMock(t)
	openFrom := time.Date(2026, 3, 1, 16, 0, 0, 0, time.UTC)
	north := "North"

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO seats \(venue_id, section, row_label, seat_number, seat_type\) VALUES \(\?, \?, \?, \?, \?\),\(\?, \?, \?, \?, \?\)$`).
		WithArgs(3, "", "A", 1, "standard", 3, "North", "A", 1, "standard").
		WillReturnResult(sqlmock.NewResult(40, 2))
	mock.ExpectExec(backfillSQL).
		WithArgs(model.TicketAvailable, 3, openFrom).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	n, err := NewSeatRepo(db).CreateBulk(context.Background(), 3, []model.Seat{
		{RowLabel: "A", SeatNumber: 1, SeatType: "standard"},
		{Section: &north, RowLabel: "A", SeatNumber: 1, SeatType: "standard"},
	}, openFrom)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestSeatCreateBulkRepeatedGeneralAdmission(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO seats`).
		WithArgs(3, "", "B", 7, "standard").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '3--B-7' for key 'uq_seats_position'"})
	mock.ExpectRollback()

	n, err := NewSeatRepo(db).CreateBulk(context.Background(), 3, []model.Seat{
		{RowLabel: "B", SeatNumber: 7, SeatType: "standard"},
	}, time.Now())
	assert.True(t, errors.Is(err, ErrIntegrity))
	assert.Zero(t, n)
}

func TestSeatCreateBulkBatchesInOneTransaction(t *testing.T) {
	db, mock := newMock(t)
	row := `\(\?, \?, \?, \?, \?\)`

	seats := make([]model.Seat, 2500)
	for i := range seats {
		seats[i] = model.Seat{RowLabel: "A", SeatNumber: uint32(i + 1), SeatType: "standard"}
	}
	mock.ExpectBegin()
	for _, size := range []int{1000, 1000, 500} {
		mock.ExpectExec(fmt.Sprintf(`VALUES (%s,){%d}%s$`, row, size-1, row)).
			WillReturnResult(sqlmock.NewResult(0, int64(size)))
	}
	mock.ExpectExec(backfillSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	n, err := NewSeatRepo(db).CreateBulk(context.Background(), 3, seats, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSeatCreateBulkBackfillFailureRollsBack(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO seats`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(backfillSQL).WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	_, err := NewSeatRepo(db).CreateBulk(context.Background(), 3, []model.Seat{
		{RowLabel: "A", SeatNumber: 1, SeatType: "standard"},
	}, time.Now())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrIntegrity))
}

func TestSeatCreateBulkEmpty(t *testing.T) {
	db, _ := newMock(t)

	n, err := NewSeatRepo(db).CreateBulk(context.Background(), 3, nil, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListByVenueGeneralAdmission(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`FROM seats\s+WHERE venue_id = \?`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "venue_id", "section", "row_label", "seat_number", "seat_type"}).
			AddRow(1, 3, "", "A", 1, "standard").
			AddRow(2, 3, "North", "A", 1, "standard"))

	seats, err := NewSeatRepo(db).ListByVenue(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, seats, 2)
	assert.Nil(t, seats[0].Section)
	require.NotNil(t, seats[1].Section)
	assert.Equal(t, "North", *seats[1].Section)
}
