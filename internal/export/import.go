package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/aether/internal/models"
)

// ReadPatients reads the roster sheet of a workbook produced by Write.
// Columns are matched by header name, so their order may differ. Rows without
// an id are skipped.
func ReadPatients(r io.Reader) ([]models.Patient, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetPatients)
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", SheetPatients, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", SheetPatients)
	}
	col := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		col[strings.TrimSpace(h)] = i
	}
	if _, ok := col["ID"]; !ok {
		return nil, fmt.Errorf("sheet %q has no ID column", SheetPatients)
	}

	raw := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	cell := func(row []string, name string) string {
		return strings.TrimSpace(raw(row, name))
	}

	out := make([]models.Patient, 0, len(rows)-1)
	for n, row := range rows[1:] {
		id := cell(row, "ID")
		if id == "" {
			continue
		}
		age := 0
		if s := cell(row, "Usia"); s != "" {
			if age, err = strconv.Atoi(s); err != nil {
				return nil, fmt.Errorf("row %d: invalid age %q", n+2, s)
			}
		}
		out = append(out, models.Patient{
			ID:             id,
			Name:           cell(row, "Nama"),
			Age:            age,
			Gender:         models.Gender(cell(row, "Jenis Kelamin")),
			Condition:      cell(row, "Kondisi"),
			Room:           cell(row, "Kamar"),
			AdmissionDate:  cell(row, "Tanggal Masuk"),
			Status:         models.Status(cell(row, "Status")),
			AssignedDoctor: cell(row, "Dokter"),
			MedicalHistory: raw(row, "Riwayat Medis"),
			Notes:          raw(row, "Catatan"),
		})
	}
	return out, nil
}
