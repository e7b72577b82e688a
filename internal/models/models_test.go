package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusValid(t *testing.T) {
	for _, s := range Statuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Status("Critical").Valid())
	assert.False(t, Status("").Valid())
}

func TestPatientPatch_ApplyOnlyPatchedFields(t *testing.T) {
	base := Patient{
		ID: "PT-1024", Name: "Eleanor Rigby", Age: 72, Gender: GenderFemale,
		Condition: "Hipertensi", Room: "304-A", Status: StatusStable,
		Notes: "pusing ringan", AssignedDoctor: "Dr. Gregory House",
	}
	room := "ICU-01"
	status := StatusCritical
	got := PatientPatch{Room: &room, Status: &status}.Apply(base)

	want := base
	want.Room = "ICU-01"
	want.Status = StatusCritical
	assert.Equal(t, want, got)
	assert.Equal(t, "304-A", base.Room, "base must not be modified")
}

func TestPatientPatch_EmptyStringIsAPatch(t *testing.T) {
	empty := ""
	p := PatientPatch{Notes: &empty}
	assert.False(t, p.Empty())
	got := p.Apply(Patient{ID: "PT-1", Notes: "x"})
	assert.Equal(t, "", got.Notes)
	assert.True(t, PatientPatch{}.Empty())
}

func TestValidate_NewPatientMissingCondition(t *testing.T) {
	in := NewPatient{Name: "Jane"}
	err := Validate(in)
	require.Error(t, err)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"condition"}, ve.Fields)
	assert.Equal(t, "condition is required", err.Error())
}

func TestValidate_NewPatientBadStatusAndDate(t *testing.T) {
	in := NewPatient{Name: "Jane", Condition: "Flu", Status: "Critical", AdmissionDate: "24/10/2023"}
	err := Validate(in)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.ElementsMatch(t, []string{"status", "admissionDate"}, ve.Fields)
}

func TestValidate_PatchNilFieldsPass(t *testing.T) {
	assert.NoError(t, Validate(PatientPatch{}))
	bad := Status("Unknown")
	assert.Error(t, Validate(PatientPatch{Status: &bad}))
}

func TestValidate_Settings(t *testing.T) {
	assert.NoError(t, Validate(DefaultSettings()))
	s := DefaultSettings()
	s.TaxRate = "sebelas"
	assert.Error(t, Validate(s))
}

func TestNewPatient_Normalize(t *testing.T) {
	in := NewPatient{Name: "   ", Condition: " Flu "}
	in.Normalize()
	assert.Equal(t, "", in.Name)
	assert.Equal(t, "Flu", in.Condition)
	assert.Error(t, Validate(in))
}

func TestPatientJSONMatchesBrowserShape(t *testing.T) {
	raw := `{"id":"PT-1024","name":"Eleanor Rigby","age":72,"gender":"F","condition":"Hipertensi",
"room":"304-A","admissionDate":"2023-10-20","status":"Stabil","medicalHistory":"Alergi Penicillin.",
"notes":"pusing ringan","assignedDoctor":"Dr. Gregory House"}`
	var p Patient
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	assert.Equal(t, StatusStable, p.Status)
	assert.Equal(t, "2023-10-20", p.AdmissionDate)
	assert.Equal(t, "Dr. Gregory House", p.AssignedDoctor)
}

func TestInventoryItemLowStock(t *testing.T) {
	assert.True(t, InventoryItem{StockLevel: 50, ReorderPoint: 50}.LowStock())
	assert.True(t, InventoryItem{StockLevel: 30, ReorderPoint: 50}.LowStock())
	assert.False(t, InventoryItem{StockLevel: 1200, ReorderPoint: 200}.LowStock())
}

func TestWelcomeMessage(t *testing.T) {
	m := WelcomeMessage()
	assert.Equal(t, WelcomeMessageID, m.ID)
	assert.Equal(t, RoleModel, m.Role)
	assert.NotEmpty(t, m.Text)
}
