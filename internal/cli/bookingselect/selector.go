// Package bookingselect lets an agent pick a pending booking interactively.
package bookingselect

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"

	"github.com/clickreserve/click/internal/domain"
)

// ErrNoPendingBookings is returned when there is nothing to pick from
var ErrNoPendingBookings = errors.New("no pending bookings match this search")

type bookingOption struct {
	Label   string
	Details string
	ID      domain.ID
}

// buildOptions builds the labels shown for each pending booking. Bookings that
// are no longer pending are skipped.
func buildOptions(bookings []domain.Booking) []bookingOption {
	options := make([]bookingOption, 0, len(bookings))
	for i := range bookings {
		b := &bookings[i]
		if !b.IsPending() {
			continue
		}
		options = append(options, bookingOption{
			Label:   fmt.Sprintf("%s, %s (%s)", b.ListingTitle, b.UserName, b.StartDate()),
			Details: fmt.Sprintf("deposit %.2f / total %.2f", b.DepositAmount, b.TotalPrice),
			ID:      b.ID,
		})
	}
	return options
}

// Prompt shows an interactive list of pending bookings and returns the ID
// of the one picked
func Prompt(bookings []domain.Booking) (domain.ID, error) {
	options := buildOptions(bookings)
	if len(options) == 0 {
		return "", ErrNoPendingBookings
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
		Details:  "{{ .Details | faint }}",
	}

	prompt := promptui.Select{
		Label:     "Select a booking to confirm",
		Items:     options,
		Templates: templates,
		Size:      10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("booking selection cancelled: %w", err)
	}

	return options[index].ID, nil
}
