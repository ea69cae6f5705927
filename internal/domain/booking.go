package domain

import (
	"time"
)

// Booking is a reservation as shown on the agent dashboard.
type Booking struct {
	ID              ID      `json:"id"`
	ListingTitle    string  `json:"listing_title"`
	ListingLocation string  `json:"listing_location"`
	DepositAmount   float64 `json:"deposit_amount"`
	TotalPrice      float64 `json:"total_price"`
	StartDatetime   string  `json:"start_datetime"`
	Status          string  `json:"status"`
	UserName        string  `json:"user_name,omitempty"`
	UserPhone       string  `json:"user_phone,omitempty"`
	ProviderName    string  `json:"provider_name,omitempty"`
}

// IsPending reports whether an agent can still confirm the booking.
func (b *Booking) IsPending() bool {
	return b.Status == "pending"
}

// StartDate formats the booking start like "Jan 2, 2006". Unparseable values
// are returned unchanged.
func (b *Booking) StartDate() string {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, b.StartDatetime); err == nil {
			return t.Format("Jan 2, 2006")
		}
	}
	return b.StartDatetime
}

// SearchedUser is a user matched by an agent search together with their
// pending bookings.
type SearchedUser struct {
	ID              ID        `json:"id"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	Email           string    `json:"email,omitempty"`
	PendingBookings []Booking `json:"pending_bookings"`
}

// SearchResult is the payload of the agent user search.
type SearchResult struct {
	SearchedUsers      []SearchedUser `json:"searched_users"`
	AllPendingBookings []Booking      `json:"all_pending_bookings"`
}
