package domain

import (
	"github.com/ethereum/go-ethereum/common"
)

const (
	NotifyERC20Transfer = "erc20.transfer"
	NotifyPoolSupply    = "pool.supply"
)

const (
	TransferDirectionFrom = "from"
	TransferDirectionTo   = "to"
)

// Notification is a domain event published for external subscribers after a
// confirmed write or a qualifying on-chain event. Amount is normalized by the
// token's decimals.
type Notification struct {
	Name   string
	Token  common.Address
	Symbol string
	Amount string

	// Transfer-only fields.
	Direction string
	From      *common.Address
	To        *common.Address
}

// NotificationSink receives domain notifications. Publish must not block the
// emitting flow.
type NotificationSink interface {
	Publish(notification Notification)
}
