package sandbox

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/clickreserve/click/internal/models"
)

// envelope wraps every response body
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, envelope{Success: false, Message: message})
}

// validationMessage describes the first failed rule of a request body
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "email_address":
		return "Invalid email address"
	case "phone_chars":
		return "Invalid phone number"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// userResponse is the profile shape the client caches
type userResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Language      string    `json:"language"`
	EmailVerified bool      `json:"email_verified"`
	IsAgent       bool      `json:"is_agent"`
	IsHost        bool      `json:"is_host"`
	CreatedAt     time.Time `json:"created_at"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:            u.ID,
		Name:          u.Name,
		FirstName:     u.FirstName(),
		LastName:      u.LastName(),
		Email:         u.Email,
		Phone:         u.Phone,
		Language:      u.Language,
		EmailVerified: u.EmailVerified,
		IsAgent:       u.IsAgent,
		IsHost:        u.IsHost,
		CreatedAt:     u.CreatedAt,
	}
}

// loginResponse flattens the token into the profile
type loginResponse struct {
	Token string `json:"token"`
	userResponse
}

type bookingResponse struct {
	ID              string  `json:"id"`
	ListingTitle    string  `json:"listing_title"`
	ListingLocation string  `json:"listing_location"`
	ProviderName    string  `json:"provider_name,omitempty"`
	DepositAmount   float64 `json:"deposit_amount"`
	TotalPrice      float64 `json:"total_price"`
	StartDatetime   string  `json:"start_datetime"`
	Status          string  `json:"status"`
	UserName        string  `json:"user_name,omitempty"`
	UserPhone       string  `json:"user_phone,omitempty"`
}

func toBookingResponse(b *models.Booking) bookingResponse {
	return bookingResponse{
		ID:              b.ID,
		ListingTitle:    b.ListingTitle,
		ListingLocation: b.ListingLocation,
		ProviderName:    b.ProviderName,
		DepositAmount:   b.DepositAmount,
		TotalPrice:      b.TotalPrice,
		StartDatetime:   b.StartDatetime.UTC().Format(time.RFC3339),
		Status:          string(b.Status),
		UserName:        b.User.Name,
		UserPhone:       b.User.Phone,
	}
}

type searchedUserResponse struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Phone           string            `json:"phone"`
	Email           string            `json:"email"`
	PendingBookings []bookingResponse `json:"pending_bookings"`
}

type searchResponse struct {
	SearchedUsers      []searchedUserResponse `json:"searched_users"`
	AllPendingBookings []bookingResponse      `json:"all_pending_bookings"`
}
