// Package domain contains the client-side types exchanged with the Click API.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ID is a resource identifier. The API emits either JSON numbers or strings,
// both are kept in their textual form.
type ID string

// UnmarshalJSON accepts both numeric and string identifiers.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", string(data), err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the textual identifier.
func (id ID) String() string {
	return string(id)
}

// UserProfile is the profile snapshot returned by the API and cached in the session.
// Fields the client does not model are kept in Extra. A decoded profile also
// remembers the server's JSON for every field, so an unmodified profile
// encodes back to exactly what the server sent (numeric ids, nulls and empty
// strings included).
type UserProfile struct {
	ID            ID     `json:"id"`
	Name          string `json:"name"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	EmailVerified bool   `json:"email_verified"`
	IsAgent       bool   `json:"is_agent"`
	IsHost        bool   `json:"is_host"`
	Language      string `json:"language,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`

	// raw holds the server's encoding of the known fields, base their decoded
	// values. A field still equal to base is written back from raw.
	raw  map[string]json.RawMessage
	base profileFields
}

type plainProfile UserProfile

// profileFields is the known part of a profile without omitempty, used to
// detect fields changed since decoding
type profileFields struct {
	ID            ID     `json:"id"`
	Name          string `json:"name"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	EmailVerified bool   `json:"email_verified"`
	IsAgent       bool   `json:"is_agent"`
	IsHost        bool   `json:"is_host"`
	Language      string `json:"language"`
}

func (p *UserProfile) fields() profileFields {
	return profileFields{
		ID:            p.ID,
		Name:          p.Name,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Email:         p.Email,
		Phone:         p.Phone,
		EmailVerified: p.EmailVerified,
		IsAgent:       p.IsAgent,
		IsHost:        p.IsHost,
		Language:      p.Language,
	}
}

var profileKeys = []string{
	"id", "name", "first_name", "last_name", "email", "phone",
	"email_verified", "is_agent", "is_host", "language",
}

// UnmarshalJSON decodes the known fields and keeps the rest in Extra.
func (p *UserProfile) UnmarshalJSON(data []byte) error {
	var plain plainProfile
	if err := json.Unmarshal(data, &plain); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	raw := make(map[string]json.RawMessage, len(profileKeys))
	for _, k := range profileKeys {
		if v, ok := all[k]; ok {
			raw[k] = v
			delete(all, k)
		}
	}
	if len(all) > 0 {
		plain.Extra = all
	} else {
		plain.Extra = nil
	}

	*p = UserProfile(plain)
	p.raw = raw
	p.base = p.fields()
	return nil
}

// MarshalJSON encodes the known fields together with Extra. Known fields
// left untouched since decoding are written as the server sent them.
func (p UserProfile) MarshalJSON() ([]byte, error) {
	if p.raw == nil {
		return p.marshalFields()
	}

	current, err := encodeFields(p.fields())
	if err != nil {
		return nil, err
	}
	base, err := encodeFields(p.base)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]json.RawMessage, len(p.Extra)+len(profileKeys))
	for k, v := range p.Extra {
		merged[k] = v
	}
	for _, k := range profileKeys {
		original, sent := p.raw[k]
		switch {
		case !bytes.Equal(current[k], base[k]):
			merged[k] = current[k]
		case sent:
			merged[k] = original
		}
	}
	return json.Marshal(merged)
}

// marshalFields encodes a profile built in code rather than decoded
func (p UserProfile) marshalFields() ([]byte, error) {
	known, err := json.Marshal(plainProfile(p))
	if err != nil {
		return nil, err
	}
	if len(p.Extra) == 0 {
		return known, nil
	}

	merged := make(map[string]json.RawMessage, len(p.Extra)+len(profileKeys))
	for k, v := range p.Extra {
		merged[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

func encodeFields(f profileFields) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DisplayName prefers first/last name and falls back to Name.
func (p *UserProfile) DisplayName() string {
	full := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if full != "" {
		return full
	}
	return p.Name
}

// Clone returns a deep copy of the profile.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	c := *p
	c.Extra = cloneRaw(p.Extra)
	c.raw = cloneRaw(p.raw)
	return &c
}

func cloneRaw(m map[string]json.RawMessage) map[string]json.RawMessage {
	if m == nil {
		return nil
	}
	c := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		c[k] = append(json.RawMessage(nil), v...)
	}
	return c
}

// MaskEmail hides the middle of the local part: "jane@x.io" -> "j**e@x.io".
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || len(local) <= 2 {
		return email
	}
	return local[:1] + strings.Repeat("*", len(local)-2) + local[len(local)-1:] + "@" + domain
}
