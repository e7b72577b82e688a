package ai

import (
	"fmt"
	"strings"

	"github.com/hyperjump/aether/internal/models"
)

const (
	placeholderNone   = "Nihil"
	placeholderDoctor = "Belum Ada"

	contextHeader  = "[Data Konteks Sistem - Rekam Medis Pasien Saat Ini]"
	questionHeader = "[Pertanyaan Pengguna]"
)

// BuildPatientContext serializes patients one line per record in the fixed
// order id, name, condition, room, status, history, physician, notes. A limit
// above zero keeps only the first limit records.
func BuildPatientContext(patients []models.Patient, limit int) string {
	if limit > 0 && len(patients) > limit {
		patients = patients[:limit]
	}
	lines := make([]string, len(patients))
	for i, p := range patients {
		lines[i] = fmt.Sprintf("ID: %s | Nama: %s | Kondisi: %s | Kamar: %s | Status: %s | Riwayat: %s | Dokter: %s | Catatan: %s",
			orNone(p.ID),
			orNone(p.Name),
			orNone(p.Condition),
			orNone(p.Room),
			orNone(string(p.Status)),
			orNone(p.MedicalHistory),
			or(p.AssignedDoctor, placeholderDoctor),
			orNone(p.Notes),
		)
	}
	return strings.Join(lines, "\n")
}

// ComposeMessage prepends the patient context to the user's text. Without
// patients the text is sent unchanged.
func ComposeMessage(patients []models.Patient, text string, limit int) string {
	if len(patients) == 0 {
		return text
	}
	return contextHeader + "\n" + BuildPatientContext(patients, limit) + "\n\n" + questionHeader + "\n" + text
}

func orNone(s string) string { return or(s, placeholderNone) }

func or(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}
