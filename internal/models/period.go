package models

import "time"

// PeriodPhase is the lifecycle stage of a monthly period. Phases only move
// forward along preparing → validation → active → closing → closed, except
// the explicit owner-only reopen of a closed period.
type PeriodPhase string

const (
	PeriodPhasePreparing  PeriodPhase = "preparing"
	PeriodPhaseValidation PeriodPhase = "validation"
	PeriodPhaseActive     PeriodPhase = "active"
	PeriodPhaseClosing    PeriodPhase = "closing"
	PeriodPhaseClosed     PeriodPhase = "closed"
)

// LegacyPeriodState is the coarser three-state view of the lifecycle used by
// the settings subsystem: SETUP covers preparing and validation, LOCKED
// covers active and closing, CLOSED maps to closed.
type LegacyPeriodState string

const (
	LegacyStateSetup  LegacyPeriodState = "SETUP"
	LegacyStateLocked LegacyPeriodState = "LOCKED"
	LegacyStateClosed LegacyPeriodState = "CLOSED"
)

// MonthlyPeriod is one accounting month of a household. Budget and
// calculation type are snapshotted at creation so retroactive household
// setting changes never alter already-open periods. Immutable once closed.
type MonthlyPeriod struct {
	Base
	HouseholdID uint        `gorm:"not null;uniqueIndex:idx_household_year_month" json:"household_id"`
	Year        int         `gorm:"not null;uniqueIndex:idx_household_year_month" json:"year"`
	Month       int         `gorm:"not null;uniqueIndex:idx_household_year_month" json:"month"`
	Phase       PeriodPhase `gorm:"not null;default:'preparing'" json:"phase"`

	SnapshotBudget          int64           `gorm:"type:bigint;not null" json:"snapshot_budget"`
	SnapshotCalculationType CalculationType `gorm:"not null" json:"snapshot_calculation_type"`

	// ContributionEnabled is false for legacy periods that used pure
	// direct-expense compensation with no proportional split; the calculator
	// short-circuits those to all-zero balances.
	ContributionEnabled bool `gorm:"not null;default:true" json:"contribution_enabled"`

	ClosingReason string     `json:"closing_reason,omitempty"`
	ClosingNotes  string     `json:"closing_notes,omitempty"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`
}

// LegacyState maps the five-phase lifecycle onto the three-state view.
func (p *MonthlyPeriod) LegacyState() LegacyPeriodState {
	switch p.Phase {
	case PeriodPhasePreparing, PeriodPhaseValidation:
		return LegacyStateSetup
	case PeriodPhaseActive, PeriodPhaseClosing:
		return LegacyStateLocked
	default:
		return LegacyStateClosed
	}
}

// Start returns the first instant of the period's month in UTC.
func (p *MonthlyPeriod) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first instant of the following month in UTC. The period
// covers [Start, End).
func (p *MonthlyPeriod) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}
