package model

// GeneralAdmission is the section label used for seats without one.
const GeneralAdmission = "General Admission"

// SectionAvailability counts the seats of one section for a game.
// TotalSeats always equals the sum of the three status counts.
type SectionAvailability struct {
    Section        string `json:"section"`
    TotalSeats     int    `json:"totalSeats"`
    AvailableSeats int    `json:"availableSeats"`
    ReservedSeats  int    `json:"reservedSeats"`
    SoldSeats      int    `json:"soldSeats"`
}

// SeatSummary is the whole-game roll-up of SectionAvailability.
type SeatSummary struct {
    TotalSeats     int `json:"totalSeats"`
    AvailableSeats int `json:"availableSeats"`
    ReservedSeats  int `json:"reservedSeats"`
    SoldSeats      int `json:"soldSeats"`
}
