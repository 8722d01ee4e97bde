// Package excel writes the accounting reports as XLSX workbooks.
package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Workbook collects report sheets into one XLSX file.
type Workbook struct {
	xlsx   *excelize.File
	sheets int
}

// NewWorkbook creates an empty workbook. The default sheet is taken over by the first report added.
func NewWorkbook(company string) *Workbook {
	xlsx := excelize.NewFile()
	_ = xlsx.SetAppProps(&excelize.AppProperties{
		Application: "erp_accounting",
		Company:     company,
		DocSecurity: 2,
	})
	return &Workbook{xlsx: xlsx}
}

// newSheet returns a writer positioned on the first row of a fresh sheet.
func (w *Workbook) newSheet(name string) (*sheetWriter, error) {
	if w.sheets == 0 {
		current := w.xlsx.GetSheetName(w.xlsx.GetActiveSheetIndex())
		if err := w.xlsx.SetSheetName(current, name); err != nil {
			return nil, fmt.Errorf("rename sheet %q: %w", name, err)
		}
	} else if _, err := w.xlsx.NewSheet(name); err != nil {
		return nil, fmt.Errorf("create sheet %q: %w", name, err)
	}
	w.sheets++
	return &sheetWriter{xlsx: w.xlsx, sheet: name, row: 1}, nil
}

// WriteTo writes the workbook as XLSX.
func (w *Workbook) WriteTo(out io.Writer) (int64, error) {
	w.xlsx.SetActiveSheet(0)
	for i := range w.xlsx.WorkBook.BookViews.WorkBookView {
		w.xlsx.WorkBook.BookViews.WorkBookView[i].WindowWidth = 25000
		w.xlsx.WorkBook.BookViews.WorkBookView[i].WindowHeight = 25000 / 3 * 2
	}
	return w.xlsx.WriteTo(out)
}

// Bytes renders the workbook in memory.
func (w *Workbook) Bytes() ([]byte, error) {
	w.xlsx.SetActiveSheet(0)
	buf, err := w.xlsx.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Close releases the temporary files excelize may hold.
func (w *Workbook) Close() error {
	return w.xlsx.Close()
}

// sheetWriter fills one sheet row by row and keeps the first error.
type sheetWriter struct {
	xlsx  *excelize.File
	sheet string
	row   int
	err   error
}

func (s *sheetWriter) set(col rune, v any) {
	if s.err != nil {
		return
	}
	s.err = s.xlsx.SetCellValue(s.sheet, cell(col, s.row), v)
}

func (s *sheetWriter) style(from, to rune, styles ...*excelize.Style) {
	if s.err != nil {
		return
	}
	id, err := s.xlsx.NewStyle(mergeStyles(append([]*excelize.Style{defaultStyle()}, styles...)...))
	if err != nil {
		s.err = err
		return
	}
	s.err = s.xlsx.SetCellStyle(s.sheet, cell(from, s.row), cell(to, s.row), id)
}

func (s *sheetWriter) widths(widths map[string]float64) {
	for col, width := range widths {
		if s.err != nil {
			return
		}
		s.err = s.xlsx.SetColWidth(s.sheet, col, col, width)
	}
}

// header writes a bold title row with a bottom border; titles from the third column on are right aligned.
func (s *sheetWriter) header(titles ...string) {
	last := 'A' + rune(len(titles)) - 1
	for i, title := range titles {
		s.set('A'+rune(i), title)
	}
	s.style('A', min('B', last), fontBold(), thinBorder("bottom"))
	if last >= 'C' {
		s.style('C', last, fontBold(), thinBorder("bottom"), textAlignment("right"))
	}
	s.row++
}

func (s *sheetWriter) freezeHeader() {
	if s.err != nil {
		return
	}
	s.err = s.xlsx.SetPanes(s.sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func (s *sheetWriter) skip() {
	s.row++
}
