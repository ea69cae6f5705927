package sandbox

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clickreserve/click/internal/models"
)

const minSearchLength = 2

func (s *Server) searchUsers(c *gin.Context) {
	query := strings.TrimSpace(c.Query("search"))
	if utf8.RuneCountInString(query) < minSearchLength {
		fail(c, http.StatusBadRequest, "Search term must be at least 2 characters long")
		return
	}

	pattern := "%" + strings.ToLower(query) + "%"
	var users []models.User
	err := s.db.
		Where("is_agent = ?", false).
		Where("LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?", pattern, pattern, pattern).
		Order("name").
		Limit(50).
		Find(&users).Error
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to search users")
		fail(c, http.StatusInternalServerError, "Search failed")
		return
	}

	var pending []models.Booking
	err = s.db.Preload("User").
		Where("status = ?", models.BookingPending).
		Order("start_datetime").
		Find(&pending).Error
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list pending bookings")
		fail(c, http.StatusInternalServerError, "Search failed")
		return
	}

	byUser := make(map[string][]bookingResponse)
	all := make([]bookingResponse, 0, len(pending))
	for i := range pending {
		b := toBookingResponse(&pending[i])
		byUser[pending[i].UserID] = append(byUser[pending[i].UserID], b)
		all = append(all, b)
	}

	res := searchResponse{
		SearchedUsers:      make([]searchedUserResponse, 0, len(users)),
		AllPendingBookings: all,
	}
	for _, u := range users {
		bookings := byUser[u.ID]
		if bookings == nil {
			bookings = []bookingResponse{}
		}
		res.SearchedUsers = append(res.SearchedUsers, searchedUserResponse{
			ID:              u.ID,
			Name:            u.Name,
			Phone:           u.Phone,
			Email:           u.Email,
			PendingBookings: bookings,
		})
	}

	respond(c, http.StatusOK, "", res)
}

func (s *Server) confirmBooking(c *gin.Context) {
	sess, _ := getSession(c)

	var booking models.Booking
	if err := models.FindByID(s.db, c.Param("id"), &booking); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, http.StatusNotFound, "Booking not found")
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find booking")
		fail(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	if booking.Status != models.BookingPending {
		fail(c, http.StatusBadRequest, "Booking is not pending")
		return
	}

	now := s.clock.Now()
	agentID := sess.User.ID
	err := s.db.Model(&booking).Updates(map[string]interface{}{
		"status":          models.BookingConfirmed,
		"confirmed_by_id": agentID,
		"confirmed_at":    now,
	}).Error
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to confirm booking")
		fail(c, http.StatusInternalServerError, "Failed to confirm booking")
		return
	}

	s.metrics.bookingsConfirmed.Inc()
	s.logger.Info().Str("booking_id", booking.ID).Str("agent_id", agentID).Msg("Booking confirmed")
	respond(c, http.StatusOK, "Booking confirmed successfully!", nil)
}
