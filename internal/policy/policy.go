// Package policy serves the static privacy policy. The policy is published
// in English and Arabic; other languages get the English text.
package policy

import (
	"embed"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/clickreserve/click/internal/i18n"
)

//go:embed documents/*.yaml
var documentFS embed.FS

// Section is one heading of the policy
type Section struct {
	Title   string   `yaml:"title"`
	Content string   `yaml:"content"`
	Items   []string `yaml:"items"`
	Note    string   `yaml:"note"`
}

// Contact is the closing contact block
type Contact struct {
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
	Email   string `yaml:"email"`
	Address string `yaml:"address"`
}

// Document is the full policy in one language
type Document struct {
	Lang        i18n.Lang `yaml:"-"`
	Title       string    `yaml:"title"`
	LastUpdated string    `yaml:"last_updated"`
	Sections    []Section `yaml:"sections"`
	Contact     Contact   `yaml:"contact"`
}

// Languages the policy is published in
var Languages = []i18n.Lang{i18n.English, i18n.Arabic}

// Load returns the policy in lang, falling back to English
func Load(lang i18n.Lang) (*Document, error) {
	if !published(lang) {
		lang = i18n.English
	}

	data, err := documentFS.ReadFile("documents/" + string(lang) + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read policy: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s policy: %w", lang, err)
	}
	doc.Lang = lang
	return &doc, nil
}

// Toggle switches between the published languages
func Toggle(lang i18n.Lang) i18n.Lang {
	if lang == i18n.English {
		return i18n.Arabic
	}
	return i18n.English
}

// Render writes the document as plain text
func (d *Document) Render(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n%s\n", d.Title, d.LastUpdated)
	for _, s := range d.Sections {
		fmt.Fprintf(&b, "\n%s\n%s\n", s.Title, s.Content)
		for _, item := range s.Items {
			fmt.Fprintf(&b, "  - %s\n", item)
		}
		if s.Note != "" {
			fmt.Fprintf(&b, "  %s\n", s.Note)
		}
	}

	fmt.Fprintf(&b, "\n%s\n%s\n", d.Contact.Title, d.Contact.Content)
	fmt.Fprintf(&b, "  Email: %s\n  Address: %s\n", d.Contact.Email, d.Contact.Address)

	_, err := io.WriteString(w, b.String())
	return err
}

func published(lang i18n.Lang) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}
