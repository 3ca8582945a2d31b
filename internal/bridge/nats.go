package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/muurk/wrtsync/internal/syncer"
)

// DefaultSubjectPrefix is used when no prefix is configured.
const DefaultSubjectPrefix = "wrtsync"

// NATSBridge publishes updates to a NATS subject and accepts intents from
// another. It implements syncer.Sink.
//
// Subjects are <prefix>.snapshot for outgoing updates and <prefix>.set for
// incoming {key, value} intents.
type NATSBridge struct {
	nc     *nats.Conn
	sub    *nats.Subscription
	ctrl   Controller
	prefix string
	logger *zap.Logger
}

// ClientName returns the NATS connection name for an instance: the
// configured name plus a random suffix so that restarts are
// distinguishable in server monitoring.
func ClientName(name string) string {
	return name + "_" + uuid.NewString()
}

// SnapshotSubject is where updates are published.
func SnapshotSubject(prefix string) string {
	return prefix + ".snapshot"
}

// SetSubject is where intents are received.
func SetSubject(prefix string) string {
	return prefix + ".set"
}

// NewNATSBridge connects to url and subscribes to the intent subject.
func NewNATSBridge(url, name, prefix string, ctrl Controller, logger *zap.Logger) (*NATSBridge, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	nc, err := nats.Connect(url,
		nats.Name(ClientName(name)),
		nats.PingInterval(20*time.Second),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}

	b := &NATSBridge{nc: nc, ctrl: ctrl, prefix: prefix, logger: logger}

	b.sub, err = nc.Subscribe(SetSubject(prefix), b.handleSet)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("nats subscribe %s: %w", SetSubject(prefix), err)
	}

	logger.Info("NATS bridge ready",
		zap.String("url", url),
		zap.String("publish", SnapshotSubject(prefix)),
		zap.String("subscribe", SetSubject(prefix)),
	)
	return b, nil
}

// Publish sends u as JSON on the snapshot subject.
func (b *NATSBridge) Publish(ctx context.Context, u syncer.Update) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return b.nc.Publish(SnapshotSubject(b.prefix), data)
}

// handleSet runs on the NATS delivery goroutine, outside the router's
// gate, so it may call into the controller directly.
func (b *NATSBridge) handleSet(msg *nats.Msg) {
	req, err := parseIntent(msg.Data)
	if err != nil {
		b.logger.Warn("Ignoring malformed intent", zap.String("subject", msg.Subject), zap.Error(err))
		b.respond(msg, Result{Error: err.Error()})
		return
	}

	ran, err := b.ctrl.Intent(context.Background(), req.Key, req.Value)
	if err != nil {
		b.logger.Warn("Intent failed", zap.String("key", req.Key), zap.Error(err))
		b.respond(msg, Result{Error: err.Error()})
		return
	}
	b.respond(msg, Result{Accepted: ran})
}

// respond answers request/reply style publishers; plain publishes have no
// reply subject and are left alone.
func (b *NATSBridge) respond(msg *nats.Msg, res Result) {
	if msg.Reply == "" {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := msg.Respond(data); err != nil {
		b.logger.Debug("Failed to answer intent", zap.Error(err))
	}
}

func parseIntent(data []byte) (IntentRequest, error) {
	var req IntentRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("invalid intent: %w", err)
	}
	if req.Key == "" {
		return req, fmt.Errorf("invalid intent: key is required")
	}
	return req, nil
}

// Close unsubscribes and drains the connection.
func (b *NATSBridge) Close() error {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	return b.nc.Drain()
}
