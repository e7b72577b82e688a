// Package models defines the records held by the hospital ERP: patients, chat
// messages, ledger and inventory rows, and user settings.
//
// JSON field names match the blobs the browser client persisted, so existing
// stores parse without migration.
package models

import "strings"

// Status is the clinical status of an admitted patient.
type Status string

const (
	StatusCritical   Status = "Kritis"
	StatusStable     Status = "Stabil"
	StatusRecovering Status = "Pemulihan"
	StatusDischarged Status = "Pulang"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusCritical, StatusStable, StatusRecovering, StatusDischarged}

// Valid reports whether s is one of the fixed statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Gender of a patient.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// Patient is one admitted patient. ID is unique within a store for the
// record's lifetime. Notes holds committed text only; in-progress edits live
// in the draft buffer.
type Patient struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Age            int    `json:"age"`
	Gender         Gender `json:"gender"`
	Condition      string `json:"condition"`
	Room           string `json:"room"`
	AdmissionDate  string `json:"admissionDate"`
	Status         Status `json:"status"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	MedicalHistory string `json:"medicalHistory,omitempty"`
	Notes          string `json:"notes,omitempty"`
	AssignedDoctor string `json:"assignedDoctor,omitempty"`
}

// NewPatient is the registration form input. Name and Condition are required;
// everything else has a default applied by the record store.
type NewPatient struct {
	ID             string `json:"id,omitempty"`
	Name           string `json:"name" validate:"required"`
	Age            int    `json:"age" validate:"gte=0,lte=150"`
	Gender         Gender `json:"gender" validate:"omitempty,oneof=M F"`
	Condition      string `json:"condition" validate:"required"`
	Room           string `json:"room"`
	AdmissionDate  string `json:"admissionDate" validate:"omitempty,datetime=2006-01-02"`
	Status         Status `json:"status" validate:"omitempty,oneof=Kritis Stabil Pemulihan Pulang"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	MedicalHistory string `json:"medicalHistory,omitempty"`
	AssignedDoctor string `json:"assignedDoctor,omitempty"`
}

// Normalize trims surrounding whitespace from the identifying text fields so
// a name of only spaces counts as missing.
func (n *NewPatient) Normalize() {
	n.ID = strings.TrimSpace(n.ID)
	n.Name = strings.TrimSpace(n.Name)
	n.Condition = strings.TrimSpace(n.Condition)
	n.Room = strings.TrimSpace(n.Room)
	n.AdmissionDate = strings.TrimSpace(n.AdmissionDate)
	n.AssignedDoctor = strings.TrimSpace(n.AssignedDoctor)
}

// PatientPatch is a partial update. Nil fields are left untouched. The ID is
// not patchable.
type PatientPatch struct {
	Name           *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Age            *int    `json:"age,omitempty" validate:"omitempty,gte=0,lte=150"`
	Gender         *Gender `json:"gender,omitempty" validate:"omitempty,oneof=M F"`
	Condition      *string `json:"condition,omitempty" validate:"omitempty,min=1"`
	Room           *string `json:"room,omitempty"`
	AdmissionDate  *string `json:"admissionDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Status         *Status `json:"status,omitempty" validate:"omitempty,oneof=Kritis Stabil Pemulihan Pulang"`
	ProfilePicture *string `json:"profilePicture,omitempty"`
	MedicalHistory *string `json:"medicalHistory,omitempty"`
	Notes          *string `json:"notes,omitempty"`
	AssignedDoctor *string `json:"assignedDoctor,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p PatientPatch) Empty() bool {
	return p == PatientPatch{}
}

// Apply returns a copy of base with the patched fields replaced.
func (p PatientPatch) Apply(base Patient) Patient {
	out := base
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Age != nil {
		out.Age = *p.Age
	}
	if p.Gender != nil {
		out.Gender = *p.Gender
	}
	if p.Condition != nil {
		out.Condition = *p.Condition
	}
	if p.Room != nil {
		out.Room = *p.Room
	}
	if p.AdmissionDate != nil {
		out.AdmissionDate = *p.AdmissionDate
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.ProfilePicture != nil {
		out.ProfilePicture = *p.ProfilePicture
	}
	if p.MedicalHistory != nil {
		out.MedicalHistory = *p.MedicalHistory
	}
	if p.Notes != nil {
		out.Notes = *p.Notes
	}
	if p.AssignedDoctor != nil {
		out.AssignedDoctor = *p.AssignedDoctor
	}
	return out
}
