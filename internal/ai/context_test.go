package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyperjump/aether/internal/models"
)

func TestBuildPatientContext(t *testing.T) {
	patients := []models.Patient{
		{ID: "PT-1024", Name: "Eleanor Rigby", Condition: "Hipertensi", Room: "304-A", Status: models.StatusStable,
			MedicalHistory: "Alergi Penicillin.", AssignedDoctor: "Dr. Gregory House", Notes: "pusing ringan"},
		{ID: "PT-2000", Name: "Baru", Condition: "Demam", Room: "TBD", Status: models.StatusCritical},
	}
	want := "ID: PT-1024 | Nama: Eleanor Rigby | Kondisi: Hipertensi | Kamar: 304-A | Status: Stabil | Riwayat: Alergi Penicillin. | Dokter: Dr. Gregory House | Catatan: pusing ringan\n" +
		"ID: PT-2000 | Nama: Baru | Kondisi: Demam | Kamar: TBD | Status: Kritis | Riwayat: Nihil | Dokter: Belum Ada | Catatan: Nihil"
	assert.Equal(t, want, BuildPatientContext(patients, 0))
	assert.Equal(t, strings.SplitN(want, "\n", 2)[0], BuildPatientContext(patients, 1))
	assert.Equal(t, want, BuildPatientContext(patients, 5))
}

func TestComposeMessage(t *testing.T) {
	assert.Equal(t, "apa kabar?", ComposeMessage(nil, "apa kabar?", 0))

	patients := []models.Patient{{ID: "PT-1", Name: "A", Condition: "B", Room: "C", Status: models.StatusStable}}
	got := ComposeMessage(patients, "ringkas", 0)
	assert.Equal(t,
		"[Data Konteks Sistem - Rekam Medis Pasien Saat Ini]\n"+
			"ID: PT-1 | Nama: A | Kondisi: B | Kamar: C | Status: Stabil | Riwayat: Nihil | Dokter: Belum Ada | Catatan: Nihil\n\n"+
			"[Pertanyaan Pengguna]\nringkas",
		got)
}
