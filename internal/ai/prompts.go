package ai

import (
	"encoding/json"
	"fmt"

	"github.com/hyperjump/aether/internal/models"
)

// SystemInstruction fixes the assistant's role, tone and response language.
const SystemInstruction = `Anda adalah Aether, asisten AI canggih untuk "Aether Medis Enterprise" (AME), sebuah ERP Rumah Sakit.
Peran Anda adalah membantu staf rumah sakit (akuntan, dokter, manajer logistik) dengan:
1. Analisis Keuangan: Menjelaskan aturan PSAK/IFRS, menganalisis anomali transaksi, dan merangkum laporan GL.
2. Rantai Pasok: Memprediksi permintaan berdasarkan data yang diberikan dan menyarankan strategi pengadaan.
3. SOP Umum: Menjelaskan prosedur operasi standar rumah sakit.
4. Perawatan Pasien: Membantu observasi klinis, merangkum catatan pasien, dan mengambil pembaruan status.

Penggunaan Konteks:
Anda mungkin menerima data spesifik (Rekam Medis Pasien, Catatan Klinis, Log Keuangan) yang dilampirkan pada pertanyaan pengguna.
Gunakan data ini untuk memberikan jawaban yang akurat dan spesifik. Jika ditanya tentang pasien, rujuk konteks "Catatan" atau "Kondisi" yang diberikan.

Nada: Profesional, presisi, mewah, dan membantu.
Format: Gunakan Markdown untuk tabel atau daftar.
Bahasa: Selalu merespons dalam Bahasa Indonesia yang formal dan baik.`

// Fallback texts shown in place of model output.
const (
	ChatErrorText      = "Maaf, terjadi gangguan koneksi ke layanan AI. Mohon coba lagi."
	ChatEmptyText      = "Maaf, saya tidak dapat memproses permintaan tersebut."
	FraudErrorText     = "Tidak dapat menyelesaikan analisis AI saat ini. Silakan periksa konfigurasi API."
	FraudEmptyText     = "Analisis selesai. Tidak ada teks spesifik yang dikembalikan."
	InventoryErrorText = "Tidak dapat membuat strategi. Silakan periksa konfigurasi API."
	InventoryEmptyText = "Pembuatan strategi selesai."
)

// FraudPrompt embeds the ledger into the anomaly analysis prompt.
func FraudPrompt(transactions []models.Transaction) (string, error) {
	data, err := json.MarshalIndent(nonNil(transactions), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode transactions: %w", err)
	}
	return "Analisis transaksi keuangan rumah sakit berikut untuk anomali atau potensi penipuan berdasarkan pola umum.\n" +
		"Tandai item dengan status 'FLAGGED' sebagai prioritas tinggi.\n\n" +
		"Data:\n" + string(data) + "\n\n" +
		"Berikan ringkasan eksekutif yang ringkas dan tindakan yang disarankan dalam Bahasa Indonesia.", nil
}

// InventoryPrompt embeds stock levels into the procurement strategy prompt.
func InventoryPrompt(items []models.InventoryItem) (string, error) {
	data, err := json.MarshalIndent(nonNil(items), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode inventory: %w", err)
	}
	return "Berdasarkan tingkat inventaris medis berikut, sarankan strategi pengadaan menggunakan kerangka kerja ESIA (Eliminate, Simplify, Integrate, Automate).\n" +
		"Identifikasi item di bawah titik pemesanan ulang (reorder point).\n\n" +
		"Data Inventaris:\n" + string(data) + "\n\n" +
		"Jawab dalam Bahasa Indonesia.", nil
}

// nonNil makes an empty dataset encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
