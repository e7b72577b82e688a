package models

// NotificationSettings toggles the notification channels.
type NotificationSettings struct {
	Email     bool `json:"email"`
	System    bool `json:"system"`
	Anomalies bool `json:"anomalies"`
}

// Settings holds the hospital-wide preferences edited on the settings panel.
type Settings struct {
	HospitalName  string               `json:"hospitalName" validate:"required"`
	FiscalYearEnd string               `json:"fiscalYearEnd" validate:"required"`
	Currency      string               `json:"currency" validate:"required"`
	TaxRate       string               `json:"taxRate" validate:"omitempty,numeric"`
	Language      string               `json:"language" validate:"required"`
	Notifications NotificationSettings `json:"notifications"`
}

// DefaultSettings returns the factory settings.
func DefaultSettings() Settings {
	return Settings{
		HospitalName:  "Aether Medis Enterprise",
		FiscalYearEnd: "31 Desember",
		Currency:      "USD ($)",
		TaxRate:       "11",
		Language:      "Bahasa Indonesia",
		Notifications: NotificationSettings{Email: true, System: true, Anomalies: true},
	}
}
