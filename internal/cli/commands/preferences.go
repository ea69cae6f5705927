package commands

import (
	"time"

	"github.com/clickreserve/click/internal/cli/userconfig"
)

// Preferences persists per-user choices between invocations
type Preferences interface {
	Language() (string, error)
	SetLanguage(lang string) error
	LastResend(email string) (time.Time, error)
	SetLastResend(email string, at time.Time) error
}

// defaultPreferences wraps the userconfig package for production use
type defaultPreferences struct{}

func (defaultPreferences) Language() (string, error) {
	return userconfig.GetLanguage()
}

func (defaultPreferences) SetLanguage(lang string) error {
	return userconfig.SetLanguage(lang)
}

func (defaultPreferences) LastResend(email string) (time.Time, error) {
	return userconfig.GetLastResend(email)
}

func (defaultPreferences) SetLastResend(email string, at time.Time) error {
	return userconfig.SetLastResend(email, at)
}
