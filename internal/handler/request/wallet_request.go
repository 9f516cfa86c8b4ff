package request

import "encoding/json"

// UnlockRequest 解锁钱包. keystore 需要 keystore+password, ledger 需要 index
type UnlockRequest struct {
	Kind     string          `json:"kind" binding:"required,oneof=keystore ledger iconex"`
	Keystore json.RawMessage `json:"keystore"`
	Password string          `json:"password"`
	Index    int             `json:"index" binding:"min=0"`
}

type SwitchNetworkRequest struct {
	Network string `json:"network" binding:"required"`
}

// TransferRequest Amount 为 ICX 显示单位
type TransferRequest struct {
	To     string `json:"to" binding:"required,icx_eoa"`
	Amount string `json:"amount" binding:"required,icx_amount"`
}

type StakeRequest struct {
	Amount string `json:"amount" binding:"required,icx_amount"`
}

type DelegationItem struct {
	Address string `json:"address" binding:"required,icx_eoa"`
	Amount  string `json:"amount" binding:"required,icx_amount"`
}

// DelegateRequest 覆盖全部委托, 空列表表示取消所有委托
type DelegateRequest struct {
	Delegations []DelegationItem `json:"delegations" binding:"dive"`
}
