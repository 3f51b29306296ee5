package journal

import (
	"time"

	"gorm.io/datatypes"
)

type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
)

// SubmissionModel 记录一次下单请求及券商的响应。
type SubmissionModel struct {
	ID             string         `gorm:"column:id;primaryKey"`
	AccountID      string         `gorm:"column:account_id;index"`
	Paper          bool           `gorm:"column:paper"`
	AssetType      string         `gorm:"column:asset_type"`
	Kind           string         `gorm:"column:kind"`
	Outcome        Outcome        `gorm:"column:outcome;index"`
	Status         int            `gorm:"column:status"`
	OrderID        string         `gorm:"column:order_id;index"`
	Error          string         `gorm:"column:error"`
	IdempotencyKey string         `gorm:"column:idempotency_key"`
	Document       datatypes.JSON `gorm:"column:document"`
	SubmittedAt    time.Time      `gorm:"column:submitted_at;index"`
	CreatedAt      time.Time      `gorm:"column:created_at"`
}

func (SubmissionModel) TableName() string {
	return "order_submissions"
}
