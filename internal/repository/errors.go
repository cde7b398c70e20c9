// Package repository holds the MySQL-backed stores for venues, seats,
// games, tickets and customers, plus the Mongo audit log.  Sentinel
// errors defined here let the service and handler layers tell missing
// rows apart from integrity failures without inspecting driver errors.
package repository

import (
    "github.com/cockroachdb/errors"
    "github.com/go-sql-driver/mysql"
)

var (
    // ErrVenueNotFound is returned when a venue lookup yields no rows.
    ErrVenueNotFound = errors.New("venue not found")
    // ErrGameNotFound is returned when a game lookup yields no rows.
    ErrGameNotFound = errors.New("game not found")
    // ErrTicketNotFound is returned when a ticket write affects no rows.
    ErrTicketNotFound = errors.New("ticket not found")
    // ErrCustomerNotFound is returned when a referenced customer does not exist.
    ErrCustomerNotFound = errors.New("customer not found")
    // ErrIntegrity signals a unique or foreign key violation reported by MySQL.
    ErrIntegrity = errors.New("integrity violation")
)

// MySQL server error numbers this package reacts to.
const (
    mysqlDuplicateEntry  = 1062
    mysqlNoReferencedRow = 1452
)

func mysqlCode(err error) uint16 {
    var me *mysql.MySQLError
    if errors.As(err, &me) {
        return me.Number
    }
    return 0
}

// integrity maps duplicate-key and missing-reference failures to
// ErrIntegrity, keeping the driver error as the cause.
func integrity(err error, op string) error {
    switch mysqlCode(err) {
    case mysqlDuplicateEntry, mysqlNoReferencedRow:
        return errors.Mark(errors.Wrap(err, op), ErrIntegrity)
    }
    return errors.Wrap(err, op)
}
