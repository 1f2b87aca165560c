package parser

import (
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// cellBreaks flattens in-cell line breaks so each sheet row stays one line.
var cellBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

type xlsxSource struct{}

func (xlsxSource) CanRead(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

// Read flattens one worksheet into comma-separated lines, one per sheet row,
// so that line numbers in the error log match spreadsheet row numbers.
func (xlsxSource) Read(path string, opt ReadOptions) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook %s has no sheets", filepath.Base(path))
	}
	target := sheets[0]
	if opt.Sheet != "" {
		target = ""
		for _, s := range sheets {
			if strings.EqualFold(s, opt.Sheet) {
				target = s
				break
			}
		}
		if target == "" {
			return "", fmt.Errorf("sheet '%s' not found in workbook '%s'. Available sheets: %s",
				opt.Sheet, filepath.Base(path), strings.Join(sheets, ", "))
		}
	}

	rows, err := f.GetRows(target)
	if err != nil {
		return "", fmt.Errorf("read sheet %s: %w", target, err)
	}
	var b strings.Builder
	w := csv.NewWriter(&b)
	for _, row := range rows {
		for i, cell := range row {
			row[i] = cellBreaks.Replace(cell)
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("flatten sheet %s: %w", target, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flatten sheet %s: %w", target, err)
	}
	return b.String(), nil
}
