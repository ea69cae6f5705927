package policy

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clickreserve/click/internal/i18n"
)

func TestLoad(t *testing.T) {
	en, err := Load(i18n.English)
	require.NoError(t, err)
	assert.Equal(t, "Privacy Policy", en.Title)
	require.Len(t, en.Sections, 7)
	assert.Len(t, en.Sections[1].Items, 4)
	assert.NotEmpty(t, en.Sections[2].Note)
	assert.Equal(t, "support@clickreserve.ps", en.Contact.Email)

	ar, err := Load(i18n.Arabic)
	require.NoError(t, err)
	assert.Equal(t, "سياسة الخصوصية", ar.Title)
	assert.Len(t, ar.Sections, len(en.Sections))
}

func TestLoad_FallsBackToEnglish(t *testing.T) {
	doc, err := Load(i18n.Hebrew)
	require.NoError(t, err)
	assert.Equal(t, i18n.English, doc.Lang)
	assert.Equal(t, "Privacy Policy", doc.Title)
}

func TestToggle(t *testing.T) {
	assert.Equal(t, i18n.Arabic, Toggle(i18n.English))
	assert.Equal(t, i18n.English, Toggle(i18n.Arabic))
	assert.Equal(t, i18n.English, Toggle(i18n.Hebrew))
}

func TestRender(t *testing.T) {
	doc, err := Load(i18n.English)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, doc.Render(&buf))
	out := buf.String()
	assert.Contains(t, out, "Last updated: January 2024")
	assert.Contains(t, out, "  - When required by Palestinian law")
	assert.Contains(t, out, "Email: support@clickreserve.ps")
}
