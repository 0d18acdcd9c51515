package models

import "time"

// MemberRole represents a member's role within a household.
type MemberRole string

const (
	MemberRoleOwner  MemberRole = "owner"
	MemberRoleMember MemberRole = "member"
)

// HouseholdMember links a user to a household with a role. A user has at
// most one membership record per household.
type HouseholdMember struct {
	Base
	HouseholdID uint       `gorm:"not null;uniqueIndex:idx_household_user" json:"household_id"`
	UserID      uint       `gorm:"not null;uniqueIndex:idx_household_user" json:"user_id"`
	Role        MemberRole `gorm:"not null;default:'member'" json:"role"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// MemberIncome records a member's monthly income from a given date onward.
// The row with the latest EffectiveFrom not after the reference date wins.
type MemberIncome struct {
	Base
	HouseholdID   uint      `gorm:"not null;index" json:"household_id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	Amount        int64     `gorm:"type:bigint;not null" json:"amount"`
	EffectiveFrom time.Time `gorm:"not null" json:"effective_from"`
}
