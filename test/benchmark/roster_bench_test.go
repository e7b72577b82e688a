package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/hyperjump/aether/internal/ai"
	"github.com/hyperjump/aether/internal/keyword"
	"github.com/hyperjump/aether/internal/models"
	"github.com/hyperjump/aether/internal/records"
	"github.com/hyperjump/aether/internal/storage"
)

var conditions = []string{"Hipertensi", "Pneumonia", "Diabetes melitus", "Demam berdarah", "Fraktur femur", "Gagal jantung"}

func roster(n int) []models.Patient {
	out := make([]models.Patient, n)
	for i := range out {
		out[i] = models.Patient{
			ID:             fmt.Sprintf("PT-%04d", i),
			Name:           fmt.Sprintf("Pasien %d", i),
			Age:            20 + i%60,
			Gender:         models.GenderFemale,
			Condition:      conditions[i%len(conditions)],
			Room:           fmt.Sprintf("R-%03d", i%200),
			AdmissionDate:  "2024-05-01",
			Status:         models.Statuses[i%len(models.Statuses)],
			MedicalHistory: "Riwayat alergi penisilin",
			Notes:          "Kontrol tekanan darah tiap 4 jam",
		}
	}
	return out
}

func BenchmarkPatientIndexSearch(b *testing.B) {
	idx, err := keyword.NewPatientIndex(nil)
	if err != nil {
		b.Fatal(err)
	}
	defer idx.Close()
	if err := idx.Rebuild(roster(1000)); err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	opts := &keyword.SearchOptions{Fuzzy: true}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = idx.Search(ctx, "pneumona", 20, opts)
	}
}

func BenchmarkRecordsFilter(b *testing.B) {
	ctx := context.Background()
	s := records.New(storage.NewMemoryStore(0))
	if err := s.ReplaceAll(ctx, roster(1000)); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Filter("jantung", "")
	}
}

func BenchmarkBuildPatientContext(b *testing.B) {
	patients := roster(500)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ai.BuildPatientContext(patients, 0)
	}
}

func BenchmarkLevenshteinDistance(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = keyword.LevenshteinDistance("hipertensy", "hipertensi")
	}
}
