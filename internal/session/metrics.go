package session

import (
	"time"

	"github.com/shopspring/decimal"
)

// DelegationView 单个委托, ICX
type DelegationView struct {
	Address string          `json:"address"`
	Value   decimal.Decimal `json:"value"`
}

// Metrics 账户指标, 金额均为 ICX
type Metrics struct {
	Address        string           `json:"address"`
	Network        string           `json:"network"`
	Balance        decimal.Decimal  `json:"balance"`
	Staked         decimal.Decimal  `json:"staked"`
	Unstaking      decimal.Decimal  `json:"unstaking"`
	TotalDelegated decimal.Decimal  `json:"totalDelegated"`
	VotingPower    decimal.Decimal  `json:"votingPower"`
	Delegations    []DelegationView `json:"delegations"`
	IScore         decimal.Decimal  `json:"iscore"`
	EstimatedICX   decimal.Decimal  `json:"estimatedICX"`
	RefreshedAt    time.Time        `json:"refreshedAt"`
}
