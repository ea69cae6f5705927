// Package receipt reads the payment-success redirect parameters and renders
// the reservation receipt.
package receipt

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/clickreserve/click/internal/i18n"
)

const (
	DefaultCurrency     = "USD"
	DefaultListingTitle = "Your Reservation"
)

// Receipt is what the payment provider passes back after a successful payment
type Receipt struct {
	PaymentID     string
	ReservationID string
	Amount        string
	Currency      string
	ListingTitle  string
	CheckIn       string
	CheckOut      string
}

// Parse extracts a receipt from query parameters. It reports false unless
// payment_id or reservation_id is present.
func Parse(q url.Values) (Receipt, bool) {
	r := Receipt{
		PaymentID:     q.Get("payment_id"),
		ReservationID: q.Get("reservation_id"),
		Amount:        q.Get("amount"),
		Currency:      q.Get("currency"),
		ListingTitle:  q.Get("listing_title"),
		CheckIn:       q.Get("check_in"),
		CheckOut:      q.Get("check_out"),
	}
	if r.PaymentID == "" && r.ReservationID == "" {
		return Receipt{}, false
	}
	if r.Currency == "" {
		r.Currency = DefaultCurrency
	}
	if r.ListingTitle == "" {
		r.ListingTitle = DefaultListingTitle
	}
	return r, true
}

// ParseURL parses the query string of a full redirect URL or of a bare
// query ("payment_id=...&amount=...").
func ParseURL(raw string) (Receipt, bool, error) {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	}
	q, err := url.ParseQuery(raw)
	if err != nil {
		return Receipt{}, false, fmt.Errorf("invalid receipt parameters: %w", err)
	}
	r, ok := Parse(q)
	return r, ok, nil
}

// Render writes the localized receipt. Missing optional lines are skipped.
func Render(w io.Writer, t i18n.Translator, r Receipt) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n%s\n\n", t.T("receipt.title"), t.T("receipt.subtitle"))
	fmt.Fprintf(&b, "%s\n", t.T("receipt.reservation_details"))

	line := func(key, value string) {
		if value != "" {
			fmt.Fprintf(&b, "  %s %s\n", t.T(key), value)
		}
	}
	line("receipt.property", r.ListingTitle)
	line("receipt.check_in", r.CheckIn)
	line("receipt.check_out", r.CheckOut)
	if r.Amount != "" {
		line("receipt.amount_paid", r.Amount+" "+r.Currency)
	}
	line("receipt.reservation_id", r.ReservationID)
	line("receipt.payment_id", r.PaymentID)

	fmt.Fprintf(&b, "\n%s\n%s\n", t.T("receipt.confirmation_email"), t.T("receipt.support_contact"))

	_, err := io.WriteString(w, b.String())
	return err
}
