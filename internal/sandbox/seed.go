package sandbox

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clickreserve/click/internal/models"
)

// Demo accounts created by seed
const (
	SeedAgentEmail    = "agent@click.ps"
	SeedAgentPassword = "agent123"
	SeedGuestEmail    = "guest@click.ps"
	SeedGuestPassword = "guest123"
)

// seed creates a verified agent, a verified guest and two pending bookings
// for the guest. It does nothing once the agent exists.
func (s *Server) seed() error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", SeedAgentEmail).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	agentHash, err := hashPassword(SeedAgentPassword, s.hashCost)
	if err != nil {
		return err
	}
	guestHash, err := hashPassword(SeedGuestPassword, s.hashCost)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		agent := models.User{
			Name:          "Click Agent",
			Email:         SeedAgentEmail,
			Phone:         "+970590000001",
			PasswordHash:  agentHash,
			Language:      "ar",
			EmailVerified: true,
			IsAgent:       true,
		}
		guest := models.User{
			Name:          "Amal Haddad",
			Email:         SeedGuestEmail,
			Phone:         "+970591234567",
			PasswordHash:  guestHash,
			Language:      "ar",
			EmailVerified: true,
		}
		if err := tx.Create(&agent).Error; err != nil {
			return err
		}
		if err := tx.Create(&guest).Error; err != nil {
			return err
		}

		start := s.clock.Now().Add(7 * 24 * time.Hour).Truncate(time.Hour)
		bookings := []models.Booking{
			{
				UserID:          guest.ID,
				ProviderName:    "Nablus Events",
				ListingTitle:    "Sunset Hall",
				ListingLocation: "Nablus",
				DepositAmount:   150,
				TotalPrice:      600,
				StartDatetime:   start,
				Status:          models.BookingPending,
			},
			{
				UserID:          guest.ID,
				ProviderName:    "Jericho Resorts",
				ListingTitle:    "Palm Chalet",
				ListingLocation: "Jericho",
				DepositAmount:   80,
				TotalPrice:      320,
				StartDatetime:   start.Add(14 * 24 * time.Hour),
				Status:          models.BookingPending,
			},
		}
		if err := tx.Omit(clause.Associations).Create(&bookings).Error; err != nil {
			return err
		}

		s.logger.Info().Str("agent", SeedAgentEmail).Str("guest", SeedGuestEmail).Msg("Seeded demo accounts")
		return nil
	})
}
