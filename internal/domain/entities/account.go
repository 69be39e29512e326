package entities

import "time"

// PlanTier is the billing tier of an account. Billing itself is managed
// elsewhere; the pipeline only needs the tier to enforce the draft quota.
type PlanTier string

const (
	PlanTierFree PlanTier = "free"
	PlanTierPaid PlanTier = "paid"
)

// Account is the minimum account surface the pipeline needs: plan tier for
// quota enforcement and voice preferences for draft generation.
type Account struct {
	ID             string   `json:"id" gorm:"type:varchar(255);primary_key"`
	Email          string   `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Plan           PlanTier `json:"plan" gorm:"type:varchar(20);not null;default:'free'"`
	TonePreference string   `json:"tone_preference,omitempty" gorm:"type:varchar(50)"`

	CalendarConnected bool      `json:"calendar_connected" gorm:"default:false"`
	CreatedAt         time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Account) TableName() string {
	return "accounts"
}
