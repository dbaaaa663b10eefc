package recommendation

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet   = "Summary"
	maxSheetName   = 31
	invalidInSheet = `[]:*?/\`
)

type Export struct {
	Filename string
	Data     []byte
}

var exportHeaders = []string{"Rank", "Employee", "Department", "Skill Index", "Coverage %", "Missing Skills"}

// BuildWorkbook renders a summary sheet followed by one sheet per
// deliverable with its ranked candidates.
func BuildWorkbook(resp ProjectRecommendations) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}

	summary := [][]interface{}{
		{"Project", resp.ProjectName},
		{"Project ID", resp.ProjectID},
		{"Total deliverables", resp.TotalDeliverables},
		{"Deliverables with recommendations", resp.DeliverablesWithRecommendations},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, err
		}
	}
	f.SetColWidth(summarySheet, "A", "A", 34)
	f.SetColWidth(summarySheet, "B", "B", 40)

	used := map[string]bool{}
	for _, d := range resp.Recommendations {
		name := sheetName(d.DeliverableName, used)
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}

		if err := f.SetSheetRow(name, "A1", &exportHeaders); err != nil {
			return nil, err
		}
		lastHeader, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
		f.SetCellStyle(name, "A1", lastHeader, headerStyle)
		f.SetColWidth(name, "B", "C", 24)
		f.SetColWidth(name, "F", "F", 48)

		for i, r := range d.TopRecommendations {
			row := []interface{}{
				i + 1,
				r.EmployeeName,
				r.DepartmentName,
				r.TotalSkillIndex,
				r.CoveragePercentage,
				strings.Join(r.MissingSkills, ", "),
			}
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				return nil, err
			}
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sheetName makes a deliverable name usable as a unique worksheet title.
func sheetName(name string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidInSheet, r) {
			return ' '
		}
		return r
	}, strings.TrimSpace(name))
	clean = strings.Trim(clean, "'")
	if clean == "" {
		clean = "Deliverable"
	}
	clean = truncateRunes(clean, maxSheetName)

	candidate := clean
	for n := 2; used[strings.ToLower(candidate)] || strings.EqualFold(candidate, summarySheet); n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = truncateRunes(clean, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
