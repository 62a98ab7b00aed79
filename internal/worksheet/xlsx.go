package worksheet

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// SheetName is the workbook tab the worksheet is written to.
const SheetName = "Worksheet"

const landingFill = "FFFFF2CC"

// WriteXLSX saves the sheet as a single-tab workbook at path.
func (s *Sheet) WriteXLSX(path string) error {
	f, err := s.Workbook()
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "worksheet: save %s", path)
	}
	return nil
}

// Workbook builds the in-memory workbook.
func (s *Sheet) Workbook() (*xlsx.File, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return nil, eris.Wrap(err, "worksheet: add sheet")
	}

	addStrings(sheet, s.Title)
	addStrings(sheet, "K (m)", strconv.FormatFloat(s.K, 'f', -1, 64), "Scale", "1/"+strconv.Itoa(s.ScaleDenominator))
	addStrings(sheet)

	addStrings(sheet, "Row", "① Distance (V)", "② Frequency", "③ ①×②")
	addEntries(sheet, s.Vertical)
	addStrings(sheet, "Total", "", "⑧ "+strconv.Itoa(s.Totals.Degree), "⑨ "+strconv.Itoa(s.Totals.VerticalProduct))
	addStrings(sheet)

	addStrings(sheet, "Col", "④ Distance (H)", "⑤ Frequency", "⑥ ④×⑤")
	addEntries(sheet, s.Horizontal)
	addStrings(sheet, "Total", "", "⑧ "+strconv.Itoa(s.Totals.Degree), "⑦ "+strconv.Itoa(s.Totals.HorizontalProduct))
	addStrings(sheet)

	addStrings(sheet, "Average yarding distance", s.Formula)
	row := sheet.AddRow()
	row.AddCell().SetString("Distance (m)")
	row.AddCell().SetFloat(s.Distance.Truncated)
	if s.Distance.Rounded != "" {
		row.AddCell().SetString(s.Distance.Rounded)
	}

	return f, nil
}

func addStrings(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func addEntries(sheet *xlsx.Sheet, entries []Entry) {
	var highlight *xlsx.Style
	for _, e := range entries {
		row := sheet.AddRow()
		for _, v := range []int{e.Index, e.Distance, e.Frequency, e.Product} {
			cell := row.AddCell()
			cell.SetInt(v)
			if e.Landing {
				if highlight == nil {
					highlight = xlsx.NewStyle()
					highlight.Fill = *xlsx.NewFill("solid", landingFill, landingFill)
					highlight.ApplyFill = true
				}
				cell.SetStyle(highlight)
			}
		}
	}
}
