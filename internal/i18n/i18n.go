// Package i18n provides the localized text tables used by the front-end.
// Arabic is the default language; Hebrew and Arabic render right-to-left.
package i18n

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Lang is a supported language code
type Lang string

const (
	Arabic  Lang = "ar"
	English Lang = "en"
	Hebrew  Lang = "he"
)

// Default is the language used when nothing else is known
const Default = Arabic

// Supported lists the languages in toggle order
var Supported = []Lang{Arabic, English, Hebrew}

// Parse returns the Lang for code, or false if it is not supported.
func Parse(code string) (Lang, bool) {
	l := Lang(strings.ToLower(strings.TrimSpace(code)))
	for _, s := range Supported {
		if s == l {
			return l, true
		}
	}
	return "", false
}

// Next returns the language after l in toggle order (ar, en, he, ar, ...).
// An unknown language toggles to the first one.
func Next(l Lang) Lang {
	for i, s := range Supported {
		if s == l {
			return Supported[(i+1)%len(Supported)]
		}
	}
	return Supported[0]
}

// IsRTL reports whether l is written right-to-left
func IsRTL(l Lang) bool {
	return l == Arabic || l == Hebrew
}

// Direction returns "rtl" or "ltr"
func (l Lang) Direction() string {
	if IsRTL(l) {
		return "rtl"
	}
	return "ltr"
}

var matcher = language.NewMatcher([]language.Tag{language.Arabic, language.English, language.Hebrew})

// Detect maps a locale such as "en_US.UTF-8", "he-IL" or "ar" to a
// supported language. Anything unrecognized yields Default.
func Detect(locale string) Lang {
	locale = strings.TrimSpace(locale)
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	locale = strings.ReplaceAll(locale, "_", "-")
	if locale == "" || locale == "C" || locale == "POSIX" {
		return Default
	}

	tag, err := language.Parse(locale)
	if err != nil {
		return Default
	}

	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return Default
	}
	return Supported[idx]
}

// DetectEnv detects the language from the usual locale variables.
func DetectEnv(getenv func(string) string) Lang {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := getenv(key); v != "" {
			return Detect(v)
		}
	}
	return Default
}

// Catalog holds one flattened table per language
type Catalog struct {
	tables map[Lang]map[string]string
}

// Load reads the embedded locale tables
func Load() (*Catalog, error) {
	c := &Catalog{tables: make(map[Lang]map[string]string)}
	for _, l := range Supported {
		data, err := localeFS.ReadFile("locales/" + string(l) + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("failed to read %s locale: %w", l, err)
		}
		table, err := parseTable(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s locale: %w", l, err)
		}
		c.tables[l] = table
	}
	return c, nil
}

// MustLoad is Load for package-level initialization
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// T looks key up in lang, then in English, and finally returns key itself.
func (c *Catalog) T(lang Lang, key string) string {
	if v, ok := c.tables[lang][key]; ok {
		return v
	}
	if v, ok := c.tables[English][key]; ok {
		return v
	}
	return key
}

// Tf is T followed by fmt.Sprintf
func (c *Catalog) Tf(lang Lang, key string, args ...interface{}) string {
	return fmt.Sprintf(c.T(lang, key), args...)
}

// Has reports whether lang defines key without falling back
func (c *Catalog) Has(lang Lang, key string) bool {
	_, ok := c.tables[lang][key]
	return ok
}

// Keys returns the sorted keys defined for lang
func (c *Catalog) Keys(lang Lang) []string {
	keys := make([]string, 0, len(c.tables[lang]))
	for k := range c.tables[lang] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Translator binds a catalog to one language
type Translator struct {
	catalog *Catalog
	lang    Lang
}

// For returns a translator for lang
func (c *Catalog) For(lang Lang) Translator {
	return Translator{catalog: c, lang: lang}
}

// Lang returns the translator's language
func (t Translator) Lang() Lang {
	return t.lang
}

// T translates key
func (t Translator) T(key string) string {
	return t.catalog.T(t.lang, key)
}

// Tf translates key and formats it
func (t Translator) Tf(key string, args ...interface{}) string {
	return t.catalog.Tf(t.lang, key, args...)
}

// parseTable flattens nested YAML mappings into dotted keys. Only scalar
// leaves are kept.
func parseTable(data []byte) (map[string]string, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]string)
	flatten("", raw, out)
	return out, nil
}

func flatten(prefix string, node map[string]interface{}, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]interface{}:
			flatten(key, val, out)
		case string:
			out[key] = val
		case nil, []interface{}:
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}
