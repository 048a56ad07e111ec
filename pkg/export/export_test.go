package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRendersHeadersAndRows(t *testing.T) {
	sheet := Sheet{
		Name:    "teachers",
		Headers: []string{"name", "subject", "phone"},
	}
	sheet.Append(map[string]string{"name": "Kim", "subject": "Math", "phone": "010-1111-2222", "ignored": "x"})
	sheet.Append(map[string]string{"name": "Lee", "subject": "English"})

	out, err := NewCSVExporter().Render(sheet)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "name,subject,phone", lines[0])
	assert.Equal(t, "Kim,Math,010-1111-2222", lines[1])
	assert.Equal(t, "Lee,English,", lines[2])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Sheet{})
	require.Error(t, err)
}

func TestPDFExporterRendersDocument(t *testing.T) {
	sheet := Sheet{Headers: []string{"class", "teacher"}}
	sheet.Append(map[string]string{"class": "Algebra A", "teacher": "Kim"})

	out, err := NewPDFExporter().Render("Student Record", []string{"Name: Hong"}, []Section{
		{Title: "Enrollments", Sheet: sheet},
	})
	require.NoError(t, err)
	assert.True(t, len(out) > 0)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestPDFExporterRejectsHeaderlessSection(t *testing.T) {
	_, err := NewPDFExporter().Render("Report", nil, []Section{{Title: "Empty"}})
	require.Error(t, err)
}
