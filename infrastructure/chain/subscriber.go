package chain

import (
	"context"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// WsSubscriber streams contract logs over a websocket connection. Filter
// subscriptions need the websocket endpoint, the http client cannot carry
// them.
type WsSubscriber struct {
	client *ethclient.Client
}

func NewWsSubscriber(client *ethclient.Client) *WsSubscriber {
	return &WsSubscriber{client: client}
}

func (subscriber *WsSubscriber) SubscribeLogs(ctx context.Context,
	query ethereum.FilterQuery, sink chan<- types.Log) (ethereum.Subscription, error) {
	return subscriber.client.SubscribeFilterLogs(ctx, query, sink)
}
