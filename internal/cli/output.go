// Package cli formats Aether data for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/hyperjump/aether/internal/models"
	"github.com/hyperjump/aether/internal/records"
	"github.com/hyperjump/aether/internal/views"
	"github.com/hyperjump/aether/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat validates a -format flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown format %q (want text or json)", s)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WritePatients writes the roster to w.
func WritePatients(w io.Writer, patients []models.Patient, format OutputFormat) error {
	if format == OutputJSON {
		if patients == nil {
			patients = []models.Patient{}
		}
		return writeJSON(w, patients)
	}
	if len(patients) == 0 {
		_, err := fmt.Fprintln(w, "Tidak ada pasien.")
		return err
	}
	t := &table{headers: []string{"ID", "Nama", "Usia", "Kondisi", "Kamar", "Status", "Dokter"}}
	for _, p := range patients {
		t.add(p.ID, p.Name, strconv.Itoa(p.Age), utils.Truncate(p.Condition, 28), p.Room, statusLabel(p.Status), p.AssignedDoctor)
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n\n%d pasien\n", titleStyle.Render("Rekam Medis Pasien"), t.render(), len(patients))
	return err
}

// WritePatient writes one record with all of its fields.
func WritePatient(w io.Writer, p models.Patient, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, p)
	}
	fmt.Fprintf(w, "%s\n", titleStyle.Render(p.Name+" ("+p.ID+")"))
	fmt.Fprintf(w, "Usia: %d | Jenis Kelamin: %s | Kamar: %s | Status: %s\n", p.Age, p.Gender, p.Room, statusLabel(p.Status))
	fmt.Fprintf(w, "Kondisi: %s\n", p.Condition)
	fmt.Fprintf(w, "Tanggal Masuk: %s | Dokter: %s\n", p.AdmissionDate, p.AssignedDoctor)
	if p.MedicalHistory != "" {
		fmt.Fprintf(w, "\nRiwayat Medis:\n%s\n", p.MedicalHistory)
	}
	if p.Notes != "" {
		fmt.Fprintf(w, "\nCatatan Klinis:\n%s\n", p.Notes)
	}
	return nil
}

// WriteDraft writes the note editor state of one record.
func WriteDraft(w io.Writer, st records.DraftState, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	state := mutedStyle.Render("tersimpan")
	if st.Dirty {
		state = warnStyle.Render("belum disimpan")
	}
	_, err := fmt.Fprintf(w, "%s [%s]\n%s\n", titleStyle.Render("Catatan "+st.ID), state, st.Draft)
	return err
}

// WriteChat writes a conversation, one message per paragraph.
func WriteChat(w io.Writer, messages []models.ChatMessage, format OutputFormat) error {
	if format == OutputJSON {
		if messages == nil {
			messages = []models.ChatMessage{}
		}
		return writeJSON(w, messages)
	}
	for _, m := range messages {
		if err := writeMessage(w, m); err != nil {
			return err
		}
	}
	return nil
}

func writeMessage(w io.Writer, m models.ChatMessage) error {
	who := titleStyle.Render("Asisten")
	if m.Role == models.RoleUser {
		who = userStyle.Render("Anda")
	}
	text := m.Text
	if m.Failed {
		text = warnStyle.Render(text)
	}
	_, err := fmt.Fprintf(w, "%s: %s\n\n", who, text)
	return err
}

// Status summarizes the running installation.
type Status struct {
	Hospital          string       `json:"hospital"`
	DatabasePath      string       `json:"database_path"`
	StorageUsageBytes int64        `json:"storage_usage_bytes"`
	DiskUsageBytes    int64        `json:"disk_usage_bytes,omitempty"`
	QuotaBytes        int64        `json:"quota_bytes,omitempty"`
	Census            views.Census `json:"census"`
	Model             string       `json:"model"`
	APIKeyConfigured  bool         `json:"api_key_configured"`
	ChatMessages      int          `json:"chat_messages"`
}

// WriteStatus writes st to w.
func WriteStatus(w io.Writer, st Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "%s\n", titleStyle.Render(st.Hospital))
	fmt.Fprintf(w, "Database: %s\n", st.DatabasePath)
	if st.QuotaBytes > 0 {
		fmt.Fprintf(w, "Penyimpanan: %d / %d bytes\n", st.StorageUsageBytes, st.QuotaBytes)
	} else {
		fmt.Fprintf(w, "Penyimpanan: %d bytes\n", st.StorageUsageBytes)
	}
	if st.DiskUsageBytes > 0 {
		fmt.Fprintf(w, "Ukuran di disk: %d bytes\n", st.DiskUsageBytes)
	}
	fmt.Fprintf(w, "Pasien: %d\n", st.Census.Total)
	for _, s := range models.Statuses {
		fmt.Fprintf(w, "  %s: %d\n", statusLabel(s), st.Census.ByStatus[s])
	}
	key := "tidak dikonfigurasi"
	if st.APIKeyConfigured {
		key = "dikonfigurasi"
	}
	fmt.Fprintf(w, "Model AI: %s (API key %s)\n", st.Model, key)
	fmt.Fprintf(w, "Pesan obrolan: %d\n", st.ChatMessages)
	return nil
}
