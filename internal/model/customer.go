package model

import "time"

// Customer is a supporter who requested tickets.  Email is unique and
// always stored trimmed and lower-cased.
type Customer struct {
    ID        uint64    `json:"id"`
    FirstName *string   `json:"firstName"`
    LastName  *string   `json:"lastName"`
    Email     string    `json:"email"`
    Phone     *string   `json:"phone"`
    CreatedAt time.Time `json:"createdAt"`
    UpdatedAt time.Time `json:"updatedAt"`
}
