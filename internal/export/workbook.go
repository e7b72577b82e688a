// Package export writes the hospital data to an Excel workbook and reads a
// patient roster back from one.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/aether/internal/models"
)

// Sheet names.
const (
	SheetPatients  = "Pasien"
	SheetLedger    = "Buku Besar"
	SheetInventory = "Inventaris"
	SheetSummary   = "Ringkasan"
)

var patientHeader = []string{
	"ID", "Nama", "Usia", "Jenis Kelamin", "Kondisi", "Kamar", "Tanggal Masuk",
	"Status", "Dokter", "Riwayat Medis", "Catatan",
}

// Data is everything placed in the workbook.
type Data struct {
	HospitalName string
	GeneratedAt  time.Time
	Patients     []models.Patient
	Transactions []models.Transaction
	Inventory    []models.InventoryItem
	// FinanceAnalysis and InventoryStrategy are the cached AI texts, if any.
	FinanceAnalysis   string
	InventoryStrategy string
}

// Write renders d as an .xlsx workbook to w.
func Write(w io.Writer, d Data) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	summary := [][]interface{}{
		{"Rumah Sakit", d.HospitalName},
		{"Dibuat", d.GeneratedAt.Format("2006-01-02 15:04")},
		{"Jumlah Pasien", len(d.Patients)},
		{"Analisis Keuangan AI", d.FinanceAnalysis},
		{"Strategi Inventaris AI", d.InventoryStrategy},
	}
	if err := writeRows(f, SheetSummary, summary); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetSummary, "A", "A", 24); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(SheetSummary, "B", "B", 80); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	patients := make([][]interface{}, 0, len(d.Patients)+1)
	patients = append(patients, headerRow(patientHeader))
	for _, p := range d.Patients {
		patients = append(patients, []interface{}{
			p.ID, p.Name, p.Age, string(p.Gender), p.Condition, p.Room, p.AdmissionDate,
			string(p.Status), p.AssignedDoctor, p.MedicalHistory, p.Notes,
		})
	}
	if err := addSheet(f, SheetPatients, patients, bold); err != nil {
		return err
	}

	ledger := [][]interface{}{headerRow([]string{"ID", "Tanggal", "Deskripsi", "Jumlah", "Tipe", "Kategori", "Status"})}
	for _, tx := range d.Transactions {
		ledger = append(ledger, []interface{}{
			tx.ID, tx.Date, tx.Description, tx.Amount, string(tx.Type), tx.Category, string(tx.Status),
		})
	}
	if err := addSheet(f, SheetLedger, ledger, bold); err != nil {
		return err
	}

	stock := [][]interface{}{headerRow([]string{"ID", "Nama", "SKU", "Stok", "Titik Pesan Ulang", "Harga Satuan", "Kategori", "Stok Rendah"})}
	for _, it := range d.Inventory {
		low := ""
		if it.LowStock() {
			low = "YA"
		}
		stock = append(stock, []interface{}{
			it.ID, it.Name, it.SKU, it.StockLevel, it.ReorderPoint, it.UnitPrice, string(it.Category), low,
		})
	}
	if err := addSheet(f, SheetInventory, stock, bold); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func headerRow(cols []string) []interface{} {
	row := make([]interface{}, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	return row
}

func addSheet(f *excelize.File, name string, rows [][]interface{}, headerStyle int) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %q: %w", name, err)
	}
	if err := writeRows(f, name, rows); err != nil {
		return err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style header of %q: %w", name, err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("write row %d of %q: %w", i+1, sheet, err)
		}
	}
	return nil
}
