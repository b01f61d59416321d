// ABOUTME: Spreadsheet export of people with xuri/excelize
// ABOUTME: One row per person; labeled values are joined one per line inside a cell
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/harperreed/contactshq/models"
)

const SheetName = "People"

var Header = []string{
	"ID", "Given Name", "Family Name", "Company", "Type", "Language", "Availability", "Birthday",
	"Phone Numbers", "Email Addresses", "Social Profiles", "Postal Addresses", "URLs", "Relations",
	"Groups", "Note", "External ID", "Created", "Updated",
}

var columnWidths = []float64{38, 16, 16, 20, 14, 10, 18, 12, 28, 32, 28, 40, 32, 24, 20, 40, 24, 20, 20}

// WriteXLSX writes people as a workbook to w.
func WriteXLSX(w io.Writer, people []*models.Person) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return fmt.Errorf("failed to create cell style: %w", err)
	}

	for col, title := range Header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(SheetName, cell, title); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(SheetName, name, name, columnWidths[col]); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	last, _ := excelize.ColumnNumberToName(len(Header))
	if err := f.SetCellStyle(SheetName, "A1", last+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	for i, p := range people {
		row := i + 2
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := Row(p)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
		if err := f.SetCellStyle(SheetName, cell, fmt.Sprintf("%s%d", last, row), wrapStyle); err != nil {
			return fmt.Errorf("failed to style row %d: %w", row, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Row renders one person in Header order.
func Row(p *models.Person) []any {
	availability := make([]string, len(p.Availability))
	for i, a := range p.Availability {
		availability[i] = string(a)
	}
	language := ""
	if p.PreferredLanguage != nil {
		language = string(*p.PreferredLanguage)
	}
	birthday := ""
	if p.Birthday != nil {
		birthday = p.Birthday.Format(time.DateOnly)
	}

	return []any{
		p.ID().String(),
		p.GivenName,
		models.Deref(p.FamilyName),
		models.Deref(p.Company),
		string(p.Type),
		language,
		strings.Join(availability, ", "),
		birthday,
		joinValues(p.PhoneNumbers),
		joinValues(p.EmailAddresses),
		joinValues(p.SocialProfiles),
		joinValues(p.PostalAddresses),
		joinValues(p.URLAddresses),
		joinValues(p.ContactRelations),
		strings.Join(p.Groups, ", "),
		models.Deref(p.Note),
		p.ExternalID,
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	}
}

func joinValues(values []models.LabeledValue) string {
	lines := make([]string, 0, len(values))
	for _, v := range values {
		if v.IsBlank() {
			continue
		}
		if l := v.LabelText(); l != "" {
			lines = append(lines, l+": "+v.Value)
		} else {
			lines = append(lines, v.Value)
		}
	}
	return strings.Join(lines, "\n")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.DateTime)
}
