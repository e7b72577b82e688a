// Package seed holds the built-in datasets the application starts from: the
// default patient roster, and the static ledger, inventory and KPI figures
// shown on the finance, inventory and dashboard panels.
package seed

import "github.com/hyperjump/aether/internal/models"

// AppName is the product name shown in prompts and exports.
const AppName = "Aether Medis Enterprise"

// Doctors is the list of physicians patients may be assigned to.
var Doctors = []string{
	"Dr. Smith",
	"Dr. Jones",
	"Dr. Gregory House",
	"Dr. Meredith Grey",
	"Dr. Stephen Strange",
	"Dr. Julius Hibbert",
	"Dr. Leonard McCoy",
	"Dr. Allison Cameron",
	"Dr. John Dorian",
}

// Patients returns a fresh copy of the default patient roster.
func Patients() []models.Patient {
	return []models.Patient{
		{ID: "PT-1024", Name: "Eleanor Rigby", Age: 72, Gender: models.GenderFemale, Condition: "Hipertensi", Room: "304-A", AdmissionDate: "2023-10-20", Status: models.StatusStable, MedicalHistory: "Didiagnosis Diabetes Tipe 2 pada 2015. Alergi Penicillin.", Notes: "Pasien melaporkan pusing ringan saat berdiri. Pemantauan TD dimulai setiap 4 jam.", AssignedDoctor: "Dr. Gregory House"},
		{ID: "PT-1025", Name: "John Doe", Age: 45, Gender: models.GenderMale, Condition: "Usus Buntu", Room: "202-B", AdmissionDate: "2023-10-23", Status: models.StatusRecovering, MedicalHistory: "Tidak ada riwayat medis signifikan sebelumnya. Bukan perokok.", Notes: "Hari ke-2 pasca-op. Luka sembuh dengan baik. Diet ditingkatkan ke padat lunak.", AssignedDoctor: "Dr. Meredith Grey"},
		{ID: "PT-1026", Name: "Sarah Connor", Age: 33, Gender: models.GenderFemale, Condition: "Patah Tulang Paha", Room: "105-C", AdmissionDate: "2023-10-24", Status: models.StatusStable, MedicalHistory: "Rekonstruksi ACL sebelumnya di lutut kanan (2019).", AssignedDoctor: "Dr. Stephen Strange"},
		{ID: "PT-1027", Name: "Michael Scott", Age: 50, Gender: models.GenderMale, Condition: "Luka Bakar (Derajat 2)", Room: "ICU-04", AdmissionDate: "2023-10-25", Status: models.StatusCritical, MedicalHistory: "Riwayat asma. Menggunakan inhaler Albuterol jika perlu.", AssignedDoctor: "Dr. Julius Hibbert"},
		{ID: "PT-1028", Name: "Walter White", Age: 52, Gender: models.GenderMale, Condition: "Karsinoma Paru", Room: "401-A", AdmissionDate: "2023-10-18", Status: models.StatusStable, MedicalHistory: "Mantan guru kimia. Tidak ada rawat inap sebelumnya.", AssignedDoctor: "Dr. Leonard McCoy"},
		{ID: "PT-1029", Name: "Jesse Pinkman", Age: 25, Gender: models.GenderMale, Condition: "Gejala Putus Zat", Room: "210-B", AdmissionDate: "2023-10-26", Status: models.StatusRecovering, MedicalHistory: "Riwayat penyalahgunaan zat. Tidak ada alergi yang diketahui.", AssignedDoctor: "Dr. Gregory House"},
	}
}

// Transactions returns the general-ledger sample. TX-004 is the flagged anomaly.
func Transactions() []models.Transaction {
	return []models.Transaction{
		{ID: "TX-001", Date: "2023-10-24", Description: "Pengadaan: Masker Bedah", Amount: 5000, Type: models.Debit, Category: "HPP", Status: models.Posted},
		{ID: "TX-002", Date: "2023-10-24", Description: "Tagihan Pasien: Faktur #9921", Amount: 12500, Type: models.Credit, Category: "Pendapatan", Status: models.Posted},
		{ID: "TX-003", Date: "2023-10-25", Description: "Pemeliharaan Mesin MRI", Amount: 2500, Type: models.Debit, Category: "Pemeliharaan", Status: models.Pending},
		{ID: "TX-004", Date: "2023-10-25", Description: "Stok Obat Darurat (Segera)", Amount: 15000, Type: models.Debit, Category: "Inventaris", Status: models.Flagged},
		{ID: "TX-005", Date: "2023-10-26", Description: "Klaim Asuransi: AXA", Amount: 45000, Type: models.Credit, Category: "Pendapatan", Status: models.Posted},
	}
}

// Inventory returns the medical supply sample.
func Inventory() []models.InventoryItem {
	return []models.InventoryItem{
		{ID: "INV-001", Name: "Paracetamol IV 100ml", SKU: "MED-PARA-100", StockLevel: 450, ReorderPoint: 500, UnitPrice: 12.5, Category: models.CategoryPharma},
		{ID: "INV-002", Name: "Sarung Tangan Bedah (L)", SKU: "SURG-GLV-L", StockLevel: 1200, ReorderPoint: 200, UnitPrice: 0.5, Category: models.CategorySurgical},
		{ID: "INV-003", Name: "Propofol 1%", SKU: "ANES-PRO-01", StockLevel: 30, ReorderPoint: 50, UnitPrice: 45.0, Category: models.CategoryPharma},
		{ID: "INV-004", Name: "Respirator N95", SKU: "GEN-N95", StockLevel: 85, ReorderPoint: 100, UnitPrice: 3.2, Category: models.CategoryGeneral},
	}
}

// KPIs returns the dashboard headline figures.
func KPIs() []models.KPI {
	return []models.KPI{
		{Name: "Pendapatan Total (YTD)", Value: "$12.4M", Change: "+12%", Trend: models.TrendUp},
		{Name: "Biaya Operasional (Bulan Ini)", Value: "$840k", Change: "-3%", Trend: models.TrendDown},
		{Name: "Kas Tunai", Value: "$3.2M", Change: "+5%", Trend: models.TrendUp},
		{Name: "Piutang Usaha", Value: "$450k", Change: "+2%", Trend: models.TrendDown},
	}
}

// RevenueSeries returns the monthly revenue and expense chart data.
func RevenueSeries() []models.RevenuePoint {
	return []models.RevenuePoint{
		{Month: "Jan", Revenue: 4000, Expense: 2400},
		{Month: "Feb", Revenue: 3000, Expense: 1398},
		{Month: "Mar", Revenue: 2000, Expense: 9800},
		{Month: "Apr", Revenue: 2780, Expense: 3908},
		{Month: "Mei", Revenue: 1890, Expense: 4800},
		{Month: "Jun", Revenue: 2390, Expense: 3800},
		{Month: "Jul", Revenue: 3490, Expense: 4300},
	}
}
