package models

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// User represents a platform account (guest, host or agent)
type User struct {
	BaseModel
	Name          string    `json:"name" gorm:"not null"`
	Email         string    `json:"email" gorm:"unique;not null"`
	Phone         string    `json:"phone" gorm:"index"`
	PasswordHash  string    `json:"-" gorm:"not null"`
	Language      string    `json:"language" gorm:"not null;default:'ar'"`
	EmailVerified bool      `json:"email_verified" gorm:"not null;default:false"`
	IsAgent       bool      `json:"is_agent" gorm:"not null;default:false"`
	IsHost        bool      `json:"is_host" gorm:"not null;default:false"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// FirstName returns the first word of the user's name
func (u *User) FirstName() string {
	first, _, _ := strings.Cut(strings.TrimSpace(u.Name), " ")
	return first
}

// LastName returns everything after the first word of the user's name
func (u *User) LastName() string {
	_, last, _ := strings.Cut(strings.TrimSpace(u.Name), " ")
	return strings.TrimSpace(last)
}

// TokenPurpose distinguishes single-use tokens
type TokenPurpose string

const (
	PurposeEmailVerification TokenPurpose = "email_verification"
	PurposePasswordReset     TokenPurpose = "password_reset"
)

// OneTimeToken is a single-use token mailed to a user
type OneTimeToken struct {
	BaseModel
	Token     string       `json:"-" gorm:"unique;not null"`
	UserID    string       `json:"user_id" gorm:"not null;index"`
	Purpose   TokenPurpose `json:"purpose" gorm:"not null"`
	ExpiresAt time.Time    `json:"expires_at" gorm:"not null"`
	UsedAt    *time.Time   `json:"used_at"`

	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Expired reports whether the token can no longer be redeemed
func (t *OneTimeToken) Expired(now time.Time) bool {
	return t.UsedAt != nil || now.After(t.ExpiresAt)
}

// RevokedToken records a bearer token invalidated by logout
type RevokedToken struct {
	BaseModel
	Token string `json:"-" gorm:"unique;not null"`
}

// BookingStatus is the lifecycle state of a booking
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
)

// Booking is a reservation placed by a user on a provider's listing
type Booking struct {
	BaseModel
	UserID          string        `json:"user_id" gorm:"not null;index"`
	ProviderName    string        `json:"provider_name"`
	ListingTitle    string        `json:"listing_title" gorm:"not null"`
	ListingLocation string        `json:"listing_location"`
	DepositAmount   float64       `json:"deposit_amount"`
	TotalPrice      float64       `json:"total_price"`
	StartDatetime   time.Time     `json:"start_datetime"`
	Status          BookingStatus `json:"status" gorm:"not null;default:'pending'"`
	ConfirmedByID   *string       `json:"confirmed_by_id"`
	ConfirmedAt     *time.Time    `json:"confirmed_at"`

	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&User{}, &OneTimeToken{}, &RevokedToken{}, &Booking{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
