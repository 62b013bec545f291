package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Tier string

const (
	TierBeta       Tier = "beta"
	TierPremium    Tier = "premium"
	TierExperiment Tier = "experiment"
)

type SubjectType string

const (
	SubjectUser  SubjectType = "user"
	SubjectGuild SubjectType = "guild"
)

// Entitlement grants a tier to a user or a guild. ExperimentID is only set for
// TierExperiment rows.
type Entitlement struct {
	bun.BaseModel `bun:"table:entitlements,alias:en"`

	ID           int64       `bun:"id,pk,autoincrement"`
	Tier         Tier        `bun:"tier,notnull"`
	SubjectType  SubjectType `bun:"subject_type,notnull"`
	SubjectID    string      `bun:"subject_id,notnull"`
	ExperimentID int         `bun:"experiment_id,notnull,default:0"`
	Note         string      `bun:"note"`
	ExpiresAt    *time.Time  `bun:"expires_at"`
	CreatedAt    time.Time   `bun:"created_at,notnull,default:current_timestamp"`
}
