package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 交易状态
const (
	TxStatusSubmitted = "submitted"
	TxStatusConfirmed = "confirmed"
	TxStatusFailed    = "failed"
	TxStatusTimeout   = "timeout"
)

// TxRecord 已提交交易的流水
type TxRecord struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TxHash      string          `gorm:"type:varchar(66);not null;uniqueIndex" json:"tx_hash"`
	Network     string          `gorm:"type:varchar(20);not null;index" json:"network"`
	NID         int64           `gorm:"not null" json:"nid"`
	Kind        string          `gorm:"type:varchar(20);not null" json:"kind"` // transfer, setStake, setDelegation, claimIScore
	FromAddress string          `gorm:"type:varchar(42);not null;index" json:"from_address"`
	ToAddress   string          `gorm:"type:varchar(42);not null" json:"to_address"`
	Amount      decimal.Decimal `gorm:"type:decimal(40,18);not null" json:"amount"` // ICX
	StepLimit   string          `gorm:"type:varchar(66)" json:"step_limit"`
	Status      string          `gorm:"type:varchar(20);not null;default:'submitted'" json:"status"`
	BlockHeight uint64          `json:"block_height"`
	Failure     string          `gorm:"type:text" json:"failure,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (TxRecord) TableName() string {
	return "tx_records"
}
