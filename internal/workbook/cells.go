package workbook

import (
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

func excelizeCellToCoords(cell string) (col, row int, err error) {
	col, row, err = excelize.CellNameToCoordinates(cell)

	return col, row, errors.Wrapf(err, "parsing cell %q", cell)
}

func coordsToCell(col, row int) (string, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)

	return cell, errors.Wrap(err, "building cell name")
}
