package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/gubarz/cmtscan/internal/scan"
)

// SheetName is the worksheet holding the annotations
const SheetName = "Comments"

// xlsxHeader returns the worksheet columns; context comes last
func xlsxHeader(showContext bool) []interface{} {
	header := []interface{}{"Type", "Comment", "File", "Line"}
	if showContext {
		header = append(header, "Context")
	}
	return header
}

func writeXLSX(path string, rows []scan.Annotation, opts Options) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return err
	}

	header := xlsxHeader(opts.ShowContext)
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
		return err
	}

	for i, a := range rows {
		row := []interface{}{a.Marker.Label, a.Body, a.File, a.Line}
		if opts.ShowContext {
			row = append(row, a.Context)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
	}

	for col, width := range map[string]float64{"A": 16, "B": 60, "C": 40, "D": 8, "E": 80} {
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}
