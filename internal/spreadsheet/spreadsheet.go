// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

// Package spreadsheet handles the xlsx surface of the admin: the
// application-import template, bulk application import with a dry-run
// mode, and the calls export. Workbooks are built and parsed in memory;
// handlers set the HTTP headers and stream the buffer.
package spreadsheet

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"movilia/internal/display"
	"movilia/internal/forms"
	"movilia/internal/models"
)

// applicationHeaders is the template header row, in column order.
var applicationHeaders = []string{"Nombre", "Apellidos", "Email", "Documento"}

const applicationSheet = "Solicitudes"

// ApplicationTemplate builds the empty import template for a call.
func ApplicationTemplate(callTitle string) (*bytes.Buffer, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(applicationSheet)
	if err != nil {
		return nil, "", fmt.Errorf("template sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1D4ED8"}, Pattern: 1},
	})

	for i, h := range applicationHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(applicationSheet, cell, h)
		f.SetCellStyle(applicationSheet, cell, cell, headerStyle)
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(applicationSheet, col, col, 24)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, "", fmt.Errorf("write template: %w", err)
	}
	return buf, fmt.Sprintf("solicitudes_%s.xlsx", sanitizeFilename(callTitle)), nil
}

// RowOutcome is the per-row result of an import run. Rows are numbered
// as in the sheet (the header is row 1, the first data row is 2).
type RowOutcome struct {
	RowNumber int      `json:"row_number"`
	Errors    []string `json:"errors,omitempty"`
	Raw       []string `json:"raw"`
}

// OK reports whether the row passed validation.
func (o RowOutcome) OK() bool { return len(o.Errors) == 0 }

// ImportResult aggregates an import run. In dry-run mode nothing was
// persisted and Imported stays zero.
type ImportResult struct {
	DryRun   bool         `json:"dry_run"`
	Total    int          `json:"total"`
	Imported int          `json:"imported"`
	Outcomes []RowOutcome `json:"outcomes"`
}

// Failed counts rows that did not validate.
func (r ImportResult) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.OK() {
			n++
		}
	}
	return n
}

// applicationRow mirrors a data row for declarative validation.
type applicationRow struct {
	FirstName      string `form:"nombre" validate:"required,max=150"`
	LastName       string `form:"apellidos" validate:"required,max=150"`
	Email          string `form:"email" validate:"required,email,max=300"`
	DocumentNumber string `form:"documento" validate:"required,max=50"`
}

// ParseApplications reads an uploaded workbook and validates every data
// row, returning the outcomes and the valid applications in sheet order.
// Failures never abort the batch; callers decide whether to persist the
// valid rows (import) or only report (dry run).
func ParseApplications(r io.Reader) ([]models.Application, []RowOutcome, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := applicationSheet
	if _, err := f.GetSheetIndex(sheet); err != nil || mustIndex(f, sheet) < 0 {
		// Fall back to the first sheet for workbooks saved under another name.
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("la hoja está vacía")
	}

	var (
		apps     []models.Application
		outcomes []RowOutcome
	)
	for i, raw := range rows[1:] {
		outcome := RowOutcome{RowNumber: i + 2, Raw: raw}
		if isEmptyRow(raw) {
			continue
		}

		row := applicationRow{
			FirstName:      cellAt(raw, 0),
			LastName:       cellAt(raw, 1),
			Email:          cellAt(raw, 2),
			DocumentNumber: cellAt(raw, 3),
		}
		outcome.Errors = forms.CheckRow(row)
		outcomes = append(outcomes, outcome)

		if len(outcome.Errors) == 0 {
			apps = append(apps, models.Application{
				FirstName:      row.FirstName,
				LastName:       row.LastName,
				Email:          row.Email,
				DocumentNumber: row.DocumentNumber,
				Status:         models.ApplicationPresentada,
			})
		}
	}
	return apps, outcomes, nil
}

// CallsExport builds a workbook listing calls for the admin export.
func CallsExport(calls []models.Call) (*bytes.Buffer, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Convocatorias"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, "", fmt.Errorf("export sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"Título", "Tipo", "Modalidad", "Plazas", "Destinos", "Estado", "Publicada", "Cerrada"}
	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}
	f.SetColWidth(sheet, "A", "A", 42)
	f.SetColWidth(sheet, "E", "E", 36)

	for i, c := range calls {
		row := i + 2
		set := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			f.SetCellValue(sheet, cell, v)
		}
		set(1, c.Title)
		set(2, string(c.Type))
		set(3, string(c.Modality))
		set(4, c.NumberOfPlaces)
		set(5, strings.Join(c.Destinations, ", "))
		set(6, display.ForCallStatus(c.Status).Label)
		if c.PublishedAt != nil {
			set(7, c.PublishedAt.Format("2006-01-02"))
		}
		if c.ClosedAt != nil {
			set(8, c.ClosedAt.Format("2006-01-02"))
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, "", fmt.Errorf("write export: %w", err)
	}
	return buf, "convocatorias.xlsx", nil
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func mustIndex(f *excelize.File, sheet string) int {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return -1
	}
	return idx
}

func sanitizeFilename(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '_'
		default:
			return -1
		}
	}, s)
	if s == "" {
		return "convocatoria"
	}
	return s
}
