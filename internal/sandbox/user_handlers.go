package sandbox

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clickreserve/click/internal/models"
)

// RegisterRequest creates an account
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email_address"`
	Phone    string `json:"phone" validate:"required,phone_chars"`
	Password string `json:"password" validate:"required,min=6"`
	Language string `json:"language" validate:"omitempty,oneof=ar en he"`
}

// LoginRequest authenticates with an email or phone number
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// EmailRequest names an account by email
type EmailRequest struct {
	Email    string `json:"email" validate:"required,email_address"`
	Language string `json:"language" validate:"omitempty,oneof=ar en he"`
}

// ResetPasswordRequest sets a new password from a reset token
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// UpdateProfileRequest changes profile fields. Nil fields are left alone.
type UpdateProfileRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=2"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone" validate:"omitempty,phone_chars"`
	Language  *string `json:"language" validate:"omitempty,oneof=ar en he"`
}

// bind decodes and validates the JSON body, answering 400 on failure
func (s *Server) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := s.validator.Struct(req); err != nil {
		fail(c, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
	if !s.bind(c, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check existing user")
		fail(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	if count > 0 {
		fail(c, http.StatusConflict, "Email already registered")
		return
	}

	hash, err := hashPassword(req.Password, s.hashCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		fail(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hash,
		Language:     req.Language,
	}
	if user.Language == "" {
		user.Language = "ar"
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return s.sendOneTimeToken(c, tx, &user, models.PurposeEmailVerification, user.Language)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to register user")
		fail(c, http.StatusInternalServerError, "Registration failed")
		return
	}

	s.metrics.registrations.Inc()
	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User registered")
	respond(c, http.StatusCreated, "Registration successful. Please check your email to verify your account.", toUserResponse(&user))
}

func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if !s.bind(c, &req) {
		return
	}

	identifier := strings.TrimSpace(req.Identifier)

	var user models.User
	err := s.db.Where("email = ? OR phone = ?", strings.ToLower(identifier), identifier).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.logins.WithLabelValues("invalid_credentials").Inc()
			fail(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		fail(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := comparePassword(req.Password, user.PasswordHash); err != nil {
		s.metrics.logins.WithLabelValues("invalid_credentials").Inc()
		fail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// Unverified users still get a token; the client refuses to keep it
	token, err := s.tokens.Issue(user.ID, user.Email, user.IsAgent)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		fail(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	result := "ok"
	if !user.EmailVerified {
		result = "unverified"
	}
	s.metrics.logins.WithLabelValues(result).Inc()
	s.logger.Info().Str("user_id", user.ID).Bool("email_verified", user.EmailVerified).Msg("User logged in")
	respond(c, http.StatusOK, "Login successful", loginResponse{Token: token, userResponse: toUserResponse(&user)})
}

func (s *Server) logout(c *gin.Context) {
	sess, _ := getSession(c)

	if err := s.db.Create(&models.RevokedToken{Token: sess.TokenID}).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to revoke token")
		fail(c, http.StatusInternalServerError, "Logout failed")
		return
	}

	respond(c, http.StatusOK, "Logged out successfully", nil)
}

func (s *Server) verifyEmail(c *gin.Context) {
	ott, ok := s.redeem(c, c.Param("token"), models.PurposeEmailVerification)
	if !ok {
		return
	}

	err := s.db.Model(&models.User{}).Where("id = ?", ott.UserID).Update("email_verified", true).Error
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to verify email")
		fail(c, http.StatusInternalServerError, "Email verification failed")
		return
	}

	s.logger.Info().Str("user_id", ott.UserID).Msg("Email verified")
	respond(c, http.StatusOK, "Email verified successfully", nil)
}

func (s *Server) resendVerification(c *gin.Context) {
	var req EmailRequest
	if !s.bind(c, &req) {
		return
	}

	var user models.User
	err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, http.StatusNotFound, "No account found with this email")
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		fail(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user.EmailVerified {
		fail(c, http.StatusBadRequest, "Email is already verified")
		return
	}

	lang := req.Language
	if lang == "" {
		lang = user.Language
	}
	if err := s.sendOneTimeToken(c, s.db, &user, models.PurposeEmailVerification, lang); err != nil {
		s.logger.Error().Err(err).Msg("Failed to resend verification")
		fail(c, http.StatusInternalServerError, "Failed to send verification email")
		return
	}

	respond(c, http.StatusOK, "Verification email sent successfully", nil)
}

func (s *Server) getProfile(c *gin.Context) {
	sess, _ := getSession(c)
	respond(c, http.StatusOK, "", toUserResponse(&sess.User))
}

func (s *Server) updateProfile(c *gin.Context) {
	sess, _ := getSession(c)

	var req UpdateProfileRequest
	if !s.bind(c, &req) {
		return
	}

	user := sess.User
	if req.FirstName != nil || req.LastName != nil {
		first, last := user.FirstName(), user.LastName()
		if req.FirstName != nil {
			first = strings.TrimSpace(*req.FirstName)
		}
		if req.LastName != nil {
			last = strings.TrimSpace(*req.LastName)
		}
		user.Name = strings.TrimSpace(first + " " + last)
	}
	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Language != nil {
		user.Language = *req.Language
	}

	err := s.db.Model(&user).Updates(map[string]interface{}{
		"name":     user.Name,
		"phone":    user.Phone,
		"language": user.Language,
	}).Error
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to update profile")
		fail(c, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	if err := models.FindByID(s.db, user.ID, &user); err != nil {
		s.logger.Error().Err(err).Msg("Failed to reload profile")
		fail(c, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	respond(c, http.StatusOK, "Profile updated successfully", toUserResponse(&user))
}

func (s *Server) forgotPassword(c *gin.Context) {
	var req EmailRequest
	if !s.bind(c, &req) {
		return
	}

	const message = "If an account exists for that email, a reset link has been sent"

	var user models.User
	err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error().Err(err).Msg("Failed to find user")
		}
		respond(c, http.StatusOK, message, nil)
		return
	}

	if err := s.sendOneTimeToken(c, s.db, &user, models.PurposePasswordReset, user.Language); err != nil {
		s.logger.Error().Err(err).Msg("Failed to send password reset")
		fail(c, http.StatusInternalServerError, "Failed to send password reset email")
		return
	}

	respond(c, http.StatusOK, message, nil)
}

func (s *Server) resetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !s.bind(c, &req) {
		return
	}

	ott, ok := s.redeem(c, req.Token, models.PurposePasswordReset)
	if !ok {
		return
	}

	hash, err := hashPassword(req.Password, s.hashCost)
	if err == nil {
		err = s.db.Model(&models.User{}).Where("id = ?", ott.UserID).Update("password_hash", hash).Error
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to reset password")
		fail(c, http.StatusInternalServerError, "Failed to reset password")
		return
	}

	respond(c, http.StatusOK, "Password reset successfully", nil)
}

// sendOneTimeToken stores a fresh token for user and mails its link
func (s *Server) sendOneTimeToken(c *gin.Context, tx *gorm.DB, user *models.User, purpose models.TokenPurpose, lang string) error {
	ott := models.OneTimeToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Purpose:   purpose,
		ExpiresAt: s.clock.Now().Add(OneTimeTokenTTL),
	}
	if err := tx.Omit(clause.Associations).Create(&ott).Error; err != nil {
		return err
	}

	path := "/verify-email"
	if purpose == models.PurposePasswordReset {
		path = "/reset-password"
	}
	link := strings.TrimRight(s.config.PublicBaseURL, "/") + path + "?" + url.Values{"token": {ott.Token}}.Encode()

	err := s.mailer.Send(c.Request.Context(), Mail{
		To:      user.Email,
		Subject: mailSubject(purpose, lang),
		Link:    link,
		Token:   ott.Token,
	})
	if err != nil {
		return err
	}
	s.metrics.mailsSent.WithLabelValues(string(purpose)).Inc()
	return nil
}

// redeem marks a one-time token used. It answers 400 itself when the token
// is unknown, already used or expired.
func (s *Server) redeem(c *gin.Context, token string, purpose models.TokenPurpose) (*models.OneTimeToken, bool) {
	var ott models.OneTimeToken
	err := s.db.Where("token = ? AND purpose = ?", token, purpose).First(&ott).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, http.StatusBadRequest, "Invalid or expired token")
			return nil, false
		}
		s.logger.Error().Err(err).Msg("Failed to find token")
		fail(c, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}

	now := s.clock.Now()
	if ott.Expired(now) {
		fail(c, http.StatusBadRequest, "Token has expired. Please request a new one.")
		return nil, false
	}

	if err := s.db.Model(&ott).Update("used_at", now).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to mark token used")
		fail(c, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	return &ott, true
}

var subjects = map[models.TokenPurpose]map[string]string{
	models.PurposeEmailVerification: {
		"en": "Verify your Click email address",
		"ar": "تأكيد بريدك الإلكتروني في Click",
		"he": "אימות כתובת הדוא״ל שלך ב-Click",
	},
	models.PurposePasswordReset: {
		"en": "Reset your Click password",
		"ar": "إعادة تعيين كلمة المرور في Click",
		"he": "איפוס הסיסמה שלך ב-Click",
	},
}

func mailSubject(purpose models.TokenPurpose, lang string) string {
	if s, ok := subjects[purpose][lang]; ok {
		return s
	}
	return subjects[purpose]["en"]
}
