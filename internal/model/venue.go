package model

import "time"

// Venue is a ground where games are played.  A venue owns its seats;
// games only reference the venue and inherit its full seat plan.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – display name (e.g. "Aurora Field").
//  Slug        – unique URL-safe identifier.
//  Location    – optional city or address label.
//  Capacity    – optional declared capacity, informational only.
//  Description – optional free text.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Venue struct {
    ID          uint64    // venues.id
    Name        string    // venues.name
    Slug        string    // venues.slug
    Location    *string   // venues.location (nullable)
    Capacity    *uint32   // venues.capacity (nullable)
    Description *string   // venues.description (nullable)
    CreatedAt   time.Time // venues.created_at
    UpdatedAt   time.Time // venues.updated_at
}
