// Package events publishes committed ledger transactions to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cosmossdk.io/log"
	"github.com/nats-io/nats.go"

	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

// DefaultSubjectPrefix is used when no prefix is configured.
const DefaultSubjectPrefix = "hypernode.tx"

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subj string, data []byte) error
}

// Envelope is the JSON body of every published message.
type Envelope struct {
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Tx        *types.TxResponse `json:"tx"`
}

// Publisher sends one message per committed transaction on
// "<prefix>.<msg type>".
type Publisher struct {
	conn   Conn
	prefix string
	logger log.Logger
	now    func() time.Time
}

// NewPublisher wraps an established connection.
func NewPublisher(conn Conn, prefix string, logger log.Logger) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Publisher{
		conn:   conn,
		prefix: prefix,
		logger: logger.With("module", "events"),
		now:    time.Now,
	}
}

// Connect dials the NATS server at url with unlimited reconnects.
func Connect(url, name string) (*nats.Conn, error) {
	return nats.Connect(
		url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}

// Subject returns the subject a message type is published on.
func (p *Publisher) Subject(msgType string) string {
	return p.prefix + "." + msgType
}

// Publish implements ledger.EventPublisher.
func (p *Publisher) Publish(ctx context.Context, msgType string, resp *types.TxResponse) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(Envelope{Type: msgType, Timestamp: p.now().UTC(), Tx: resp})
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", msgType, err)
	}
	if err := p.conn.Publish(p.Subject(msgType), data); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", msgType, err)
	}
	p.logger.Debug("published transaction", "subject", p.Subject(msgType), "bytes", len(data))
	return nil
}
