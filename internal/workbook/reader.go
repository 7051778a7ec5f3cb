package workbook

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/ucs-toolbox/podcfg/internal/model"
)

// headerAliases maps legacy header spellings, seen in earlier template
// revisions, onto the canonical names.
var headerAliases = map[string]string{
	"name":          "", // resolved per sheet below
	"first address": "start address",
	"server name":   "server",
}

func normalizeHeader(h string) string {
	h = strings.TrimSpace(h)
	h = strings.TrimSuffix(h, "*")

	return strings.ToLower(strings.TrimSpace(h))
}

// headerMap indexes a header row by normalized name. nameAlias is the
// canonical column that a bare legacy "Name" header stands for on this
// sheet.
func headerMap(row []string, nameAlias string) map[string]int {
	m := make(map[string]int, len(row))

	for i, h := range row {
		key := normalizeHeader(h)
		if alias, ok := headerAliases[key]; ok {
			if key == "name" {
				key = nameAlias
			} else {
				key = alias
			}
		}

		if _, taken := m[key]; !taken {
			m[key] = i
		}
	}

	return m
}

func cellAt(row []string, idx int, ok bool) string {
	if !ok || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

func (w *Workbook) table(sheet, nameAlias string) ([][]string, map[string]int, error) {
	rows, err := w.f.GetRows(sheet)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "reading sheet %s", sheet)
	}

	if len(rows) == 0 {
		return nil, nil, nil
	}

	return rows[1:], headerMap(rows[0], nameAlias), nil
}

// Pools returns the rows of the Pools sheet. Blank rows are skipped.
func (w *Workbook) Pools() ([]model.PoolRow, error) {
	rows, headers, err := w.table(SheetPools, "pool name")
	if err != nil {
		return nil, err
	}

	get := func(row []string, key string) string {
		idx, ok := headers[key]
		return cellAt(row, idx, ok)
	}

	pools := make([]model.PoolRow, 0, len(rows))

	for _, row := range rows {
		name := get(row, "pool name")
		poolType := get(row, "pool type")

		if name == "" && poolType == "" {
			continue
		}

		size := 0
		if raw := get(row, "size"); raw != "" {
			size, _ = strconv.Atoi(raw)
		}

		pools = append(pools, model.PoolRow{
			Type:         model.PoolType(poolType),
			Name:         name,
			Description:  get(row, "description"),
			StartAddress: get(row, "start address"),
			Size:         size,
			Organization: orDefault(get(row, "organization")),
		})
	}

	return pools, nil
}

// Policies returns the rows of the Policies sheet.
func (w *Workbook) Policies() ([]model.PolicyRow, error) {
	rows, headers, err := w.table(SheetPolicies, "policy name")
	if err != nil {
		return nil, err
	}

	get := func(row []string, key string) string {
		idx, ok := headers[key]
		return cellAt(row, idx, ok)
	}

	policies := make([]model.PolicyRow, 0, len(rows))

	for _, row := range rows {
		name := get(row, "policy name")
		policyType := get(row, "policy type")

		if name == "" && policyType == "" {
			continue
		}

		policies = append(policies, model.PolicyRow{
			Type:         model.PolicyType(policyType),
			Name:         name,
			Description:  get(row, "description"),
			Organization: orDefault(get(row, "organization")),
		})
	}

	return policies, nil
}

// Templates returns the rows of the Template sheet. Both the singular and
// the plural sheet name are accepted, older revisions used either.
func (w *Workbook) Templates() ([]model.TemplateRow, error) {
	sheet := SheetTemplate
	if idx, _ := w.f.GetSheetIndex(sheet); idx < 0 {
		sheet = "Templates"
	}

	rows, headers, err := w.table(sheet, "template name")
	if err != nil {
		return nil, err
	}

	get := func(row []string, key string) string {
		idx, ok := headers[key]
		return cellAt(row, idx, ok)
	}

	templates := make([]model.TemplateRow, 0, len(rows))

	for _, row := range rows {
		name := get(row, "template name")
		if name == "" {
			continue
		}

		templates = append(templates, model.TemplateRow{
			Name:           name,
			Organization:   orDefault(get(row, "organization")),
			ResourceGroup:  get(row, "resource group"),
			Description:    get(row, "description"),
			TargetPlatform: get(row, "target platform"),
			BiosPolicy:     get(row, "bios policy"),
			BootPolicy:     get(row, "boot policy"),
			LanPolicy:      get(row, "lan connectivity policy"),
			StoragePolicy:  get(row, "storage policy"),
		})
	}

	return templates, nil
}

// Profiles returns the rows of the Profiles sheet. A missing Deploy cell
// defaults to No.
func (w *Workbook) Profiles() ([]model.ProfileRow, error) {
	rows, headers, err := w.table(SheetProfiles, "profile name")
	if err != nil {
		return nil, err
	}

	get := func(row []string, key string) string {
		idx, ok := headers[key]
		return cellAt(row, idx, ok)
	}

	profiles := make([]model.ProfileRow, 0, len(rows))

	for _, row := range rows {
		name := get(row, "profile name")
		if name == "" {
			continue
		}

		profiles = append(profiles, model.ProfileRow{
			Name:          name,
			Description:   get(row, "description"),
			Organization:  orDefault(get(row, "organization")),
			ResourceGroup: get(row, "resource group"),
			Template:      get(row, "template name"),
			Server:        get(row, "server"),
			Deploy:        strings.EqualFold(get(row, "deploy"), "yes"),
		})
	}

	return profiles, nil
}

func orDefault(org string) string {
	if org == "" {
		return "default"
	}

	return org
}

// DropdownList returns the validation list currently applied to rows
// 2..dropdownMaxRow of the given column, whether inline or stored on the
// Reference sheet.
func (w *Workbook) DropdownList(sheet, column string) ([]string, error) {
	validations, err := w.f.GetDataValidations(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "reading validations on %s", sheet)
	}

	prefix := column + "2"

	for _, dv := range validations {
		if dv == nil || !sqrefStartsWith(dv.Sqref, prefix) {
			continue
		}

		formula := strings.TrimSpace(dv.Formula1)
		formula = strings.TrimPrefix(formula, "<formula1>")
		formula = strings.TrimSuffix(formula, "</formula1>")

		if strings.HasPrefix(formula, `"`) {
			return strings.Split(strings.Trim(formula, `"`), ","), nil
		}

		return w.readReferenceRange(formula)
	}

	return nil, errors.Errorf("no validation found on %s!%s", sheet, column)
}

func sqrefStartsWith(sqref, prefix string) bool {
	for _, part := range strings.Fields(sqref) {
		if strings.HasPrefix(part, prefix+":") || part == prefix {
			return true
		}
	}

	return false
}

// readReferenceRange resolves a "Reference!$A$2:$A$10" style formula back to
// its values.
func (w *Workbook) readReferenceRange(formula string) ([]string, error) {
	sheet, rangeRef, ok := strings.Cut(formula, "!")
	if !ok {
		return nil, errors.Errorf("unsupported validation formula %q", formula)
	}

	sheet = strings.Trim(sheet, "'")
	rangeRef = strings.ReplaceAll(rangeRef, "$", "")

	start, end, ok := strings.Cut(rangeRef, ":")
	if !ok {
		return nil, errors.Errorf("unsupported validation range %q", rangeRef)
	}

	startCol, startRow, err := excelizeCellToCoords(start)
	if err != nil {
		return nil, err
	}

	_, endRow, err := excelizeCellToCoords(end)
	if err != nil {
		return nil, err
	}

	values := make([]string, 0, endRow-startRow+1)

	for r := startRow; r <= endRow; r++ {
		cell, _ := coordsToCell(startCol, r)

		v, err := w.f.GetCellValue(sheet, cell)
		if err != nil {
			return nil, errors.Wrap(err, "reading reference cell")
		}

		values = append(values, v)
	}

	return values, nil
}
