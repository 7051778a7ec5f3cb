package workbook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// Workbook wraps the underlying xlsx file.
type Workbook struct {
	f    *excelize.File
	path string
}

// Create builds a fresh template workbook at path. It refuses to overwrite
// an existing file unless force is set.
func Create(path string, force bool) (*Workbook, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return nil, errors.Errorf("%s already exists, pass --force to replace it", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "creating output directory")
		}
	}

	wb := &Workbook{f: excelize.NewFile(), path: path}
	if err := wb.build(); err != nil {
		return nil, err
	}

	return wb, nil
}

// Open loads an existing workbook from path.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening workbook")
	}

	return &Workbook{f: f, path: path}, nil
}

// Save writes the workbook back to its path.
func (w *Workbook) Save() error {
	return errors.Wrap(w.f.SaveAs(w.path), "saving workbook")
}

// Close releases the underlying file handle.
func (w *Workbook) Close() error {
	return w.f.Close()
}

// Path returns the workbook's file path.
func (w *Workbook) Path() string {
	return w.path
}

func (w *Workbook) build() error {
	for _, sheet := range orderedSheets {
		if _, err := w.f.NewSheet(sheet); err != nil {
			return errors.Wrapf(err, "creating sheet %s", sheet)
		}
	}

	// Drop excelize's default sheet.
	if err := w.f.DeleteSheet("Sheet1"); err != nil {
		return errors.Wrap(err, "removing default sheet")
	}

	type sheetSpec struct {
		name    string
		headers []string
		rows    [][]any
	}

	specs := []sheetSpec{
		{SheetPools, poolHeaders, samplePools},
		{SheetPolicies, policyHeaders, samplePolicies},
		{SheetTemplate, templateHeaders, sampleTemplates},
		{SheetProfiles, profileHeaders, sampleProfiles()},
		{SheetServers, serverHeaders, nil},
		{SheetOrganizations, []string{"Organization Name"}, nil},
	}

	for _, spec := range specs {
		if err := w.writeTable(spec.name, spec.headers, spec.rows); err != nil {
			return err
		}
	}

	if err := w.writeVersionSheet(); err != nil {
		return err
	}

	return w.addStaticValidations()
}

func sampleProfiles() [][]any {
	rows := make([][]any, 0, 8)

	for i := 1; i <= 8; i++ {
		rows = append(rows, []any{
			fmt.Sprintf("AI-Server-%02d", i),
			fmt.Sprintf("Production AI POD Host %d", i),
			"default",
			"AI POD Servers",
			"Ai_POD_Template",
			"",
			"No",
		})
	}

	return rows
}

func (w *Workbook) writeTable(sheet string, headers []string, rows [][]any) error {
	headerStyle, err := w.headerStyle()
	if err != nil {
		return err
	}

	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := w.f.SetCellValue(sheet, cell, header); err != nil {
			return errors.Wrapf(err, "writing header on %s", sheet)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := w.f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return errors.Wrapf(err, "styling header on %s", sheet)
	}

	for r, row := range rows {
		for c, value := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := w.f.SetCellValue(sheet, cell, value); err != nil {
				return errors.Wrapf(err, "writing row on %s", sheet)
			}
		}
	}

	return w.autoWidth(sheet, headers, rows)
}

func (w *Workbook) headerStyle() (int, error) {
	style, err := w.f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"A0D7BE"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	return style, errors.Wrap(err, "creating header style")
}

func (w *Workbook) autoWidth(sheet string, headers []string, rows [][]any) error {
	const minWidth, padding = 15.0, 2.0

	for col := range headers {
		width := float64(len(headers[col]))

		for _, row := range rows {
			if col < len(row) {
				if l := float64(len(fmt.Sprint(row[col]))); l > width {
					width = l
				}
			}
		}

		width += padding
		if width < minWidth {
			width = minWidth
		}

		name, _ := excelize.ColumnNumberToName(col + 1)
		if err := w.f.SetColWidth(sheet, name, name, width); err != nil {
			return errors.Wrapf(err, "setting column width on %s", sheet)
		}
	}

	return nil
}

func (w *Workbook) writeVersionSheet() error {
	cells := map[string]any{
		"A1": "Template Version",
		"B1": TemplateVersion,
		"A2": "Generated At",
		"B2": time.Now().UTC().Format(time.RFC3339),
	}

	for cell, value := range cells {
		if err := w.f.SetCellValue(SheetVersion, cell, value); err != nil {
			return errors.Wrap(err, "writing version sheet")
		}
	}

	return nil
}

func (w *Workbook) addStaticValidations() error {
	static := []struct {
		sheet  string
		column string
		values []string
	}{
		{SheetPools, colPoolType, poolTypeOptions},
		{SheetPolicies, colPolicyType, policyTypeOptions},
		{SheetPolicies, colPolicyOrg, defaultOrgOptions},
		{SheetTemplate, colTemplateOrg, defaultOrgOptions},
		{SheetTemplate, colTemplatePlat, platformOptions},
		{SheetProfiles, colProfileOrg, defaultOrgOptions},
		{SheetProfiles, colProfileDeploy, deployOptions},
	}

	for _, s := range static {
		if err := w.setColumnDropdown(s.sheet, s.column, s.values, ""); err != nil {
			return err
		}
	}

	return nil
}

// setColumnDropdown replaces the validation on rows 2..dropdownMaxRow of the
// given column. Lists too long for an inline formula are written to the
// hidden Reference sheet under refKey's column and addressed by range.
func (w *Workbook) setColumnDropdown(sheet, column string, values []string, refKey string) error {
	sqref := fmt.Sprintf("%s2:%s%d", column, column, dropdownMaxRow)

	// Idempotent overwrite: drop any validation already covering this
	// range before re-adding.
	if err := w.f.DeleteDataValidation(sheet, sqref); err != nil {
		return errors.Wrapf(err, "clearing validation on %s!%s", sheet, sqref)
	}

	dv := excelize.NewDataValidation(true)
	dv.Sqref = sqref

	if inlineLen(values) <= inlineFormulaLimit {
		if err := dv.SetDropList(values); err != nil {
			return errors.Wrapf(err, "building drop list for %s!%s", sheet, column)
		}
	} else {
		refRange, err := w.writeReferenceList(refKey, values)
		if err != nil {
			return err
		}

		dv.SetSqrefDropList(refRange)
	}

	return errors.Wrapf(w.f.AddDataValidation(sheet, dv), "adding validation on %s!%s", sheet, sqref)
}

func inlineLen(values []string) int {
	// Excel counts the quoted, comma-joined formula against its limit.
	return len(strings.Join(values, ",")) + 2
}

// writeReferenceList stores values in the hidden Reference sheet and returns
// the absolute range to point a validation at.
func (w *Workbook) writeReferenceList(refKey string, values []string) (string, error) {
	column, ok := referenceColumns[refKey]
	if !ok {
		return "", errors.Errorf("no reference column reserved for %q", refKey)
	}

	idx, err := w.f.GetSheetIndex(SheetReference)
	if err != nil {
		return "", errors.Wrap(err, "looking up reference sheet")
	}

	if idx < 0 {
		if _, err := w.f.NewSheet(SheetReference); err != nil {
			return "", errors.Wrap(err, "creating reference sheet")
		}

		if err := w.f.SetSheetVisible(SheetReference, false); err != nil {
			return "", errors.Wrap(err, "hiding reference sheet")
		}
	}

	if err := w.f.SetCellValue(SheetReference, column+"1", refKey); err != nil {
		return "", errors.Wrap(err, "writing reference header")
	}

	// Clear leftovers from a previous, longer list.
	rows, _ := w.f.GetRows(SheetReference)
	for r := 2; r <= len(rows); r++ {
		if err := w.f.SetCellValue(SheetReference, fmt.Sprintf("%s%d", column, r), nil); err != nil {
			return "", errors.Wrap(err, "clearing reference column")
		}
	}

	for i, v := range values {
		cell := fmt.Sprintf("%s%d", column, i+2)
		if err := w.f.SetCellValue(SheetReference, cell, v); err != nil {
			return "", errors.Wrap(err, "writing reference list")
		}
	}

	return fmt.Sprintf("%s!$%s$2:$%s$%d", SheetReference, column, column, len(values)+1), nil
}
