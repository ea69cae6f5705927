package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/clickreserve/click/internal/domain"
)

// SearchUsers finds users by name or phone. Agent only.
func (c *Client) SearchUsers(ctx context.Context, query string) (*domain.SearchResult, error) {
	var result domain.SearchResult
	q := url.Values{"search": {query}}
	if _, err := c.call(ctx, http.MethodGet, "/api/agents/search-users", q, nil, &result, "Search failed. Please try again."); err != nil {
		return nil, err
	}
	return &result, nil
}

// ConfirmBooking marks a pending booking as confirmed. Agent only.
func (c *Client) ConfirmBooking(ctx context.Context, bookingID domain.ID) (string, error) {
	path := "/api/agents/bookings/" + url.PathEscape(bookingID.String()) + "/confirm"
	msg, err := c.call(ctx, http.MethodPut, path, nil, struct{}{}, nil, "Failed to confirm booking. Please try again.")
	if err != nil {
		return "", err
	}
	if msg == "" {
		msg = "Booking confirmed successfully!"
	}
	return msg, nil
}
