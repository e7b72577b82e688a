package views

import (
	"github.com/hyperjump/aether/internal/models"
	"github.com/hyperjump/aether/internal/seed"
)

// Census counts admitted patients by status.
type Census struct {
	Total    int                   `json:"total"`
	ByStatus map[models.Status]int `json:"byStatus"`
}

// Dashboard is the overview panel.
type Dashboard struct {
	KPIs    []models.KPI          `json:"kpis"`
	Revenue []models.RevenuePoint `json:"revenue"`
	Census  Census                `json:"census"`
}

// BuildDashboard assembles the overview from the current roster.
func BuildDashboard(patients []models.Patient) Dashboard {
	return Dashboard{
		KPIs:    seed.KPIs(),
		Revenue: seed.RevenueSeries(),
		Census:  CensusOf(patients),
	}
}

// CensusOf counts patients per status. Every known status is present, with
// zero when no patient has it.
func CensusOf(patients []models.Patient) Census {
	c := Census{Total: len(patients), ByStatus: make(map[models.Status]int, len(models.Statuses))}
	for _, s := range models.Statuses {
		c.ByStatus[s] = 0
	}
	for _, p := range patients {
		c.ByStatus[p.Status]++
	}
	return c
}
