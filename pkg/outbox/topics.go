package outbox

import (
	"fmt"

	"github.com/ecomarket/ecocoins-backend/pkg/config"
	"github.com/ecomarket/ecocoins-backend/pkg/enums"
)

// TopicResolver maps aggregates to Pub/Sub topic ids.
type TopicResolver struct {
	topics map[enums.OutboxAggregateType]string
}

func NewTopicResolver(cfg config.PubSubConfig) TopicResolver {
	return TopicResolver{topics: map[enums.OutboxAggregateType]string{
		enums.AggregateOrder:  cfg.OrdersTopic,
		enums.AggregateWallet: cfg.WalletTopic,
	}}
}

// TopicFor returns the topic for a stored event.
func (r TopicResolver) TopicFor(aggregate enums.OutboxAggregateType) (string, error) {
	topic, ok := r.topics[aggregate]
	if !ok || topic == "" {
		return "", fmt.Errorf("no topic configured for aggregate %q", aggregate)
	}
	return topic, nil
}

// Topics lists every configured topic id.
func (r TopicResolver) Topics() []string {
	out := make([]string, 0, len(r.topics))
	for _, aggregate := range []enums.OutboxAggregateType{enums.AggregateOrder, enums.AggregateWallet} {
		if topic := r.topics[aggregate]; topic != "" {
			out = append(out, topic)
		}
	}
	return out
}
