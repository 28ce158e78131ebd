// Package kafkaconsumer runs the consumer group that retires persisted
// bite signals when catch-report events arrive.
package kafkaconsumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/hooksense/bitecast/internal/core/observability"
	"github.com/hooksense/bitecast/internal/invalidation"
	"github.com/hooksense/bitecast/internal/keys"
	"github.com/hooksense/bitecast/internal/signal"
)

type Consumer struct {
	cfg    Config
	store  signal.Store
	dedupe *eventDedupe
	logger *zerolog.Logger
}

func New(cfg Config, store signal.Store, logger *zerolog.Logger) *Consumer {
	return &Consumer{
		cfg:    cfg,
		store:  store,
		dedupe: newEventDedupe(cfg.DedupeSize),
		logger: logger,
	}
}

// Start joins the consumer group and processes messages until ctx is
// cancelled. Broker-level errors are logged and retried after a short
// backoff; Start only returns on cancellation or setup failure.
func (c *Consumer) Start(ctx context.Context) error {
	if c.store == nil {
		return errors.New("kafkaconsumer: missing signal store")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	handler := &groupHandler{process: c.ProcessOne}

	c.logger.Info().
		Strs("brokers", c.cfg.Brokers).
		Str("topic", c.cfg.Topic).
		Str("group", c.cfg.GroupID).
		Msg("catch-report consumer starting")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("catch-report consumer shutting down")
			return nil
		default:
			if err := group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil {
				observability.IncConsumerError("consume")
				c.logger.Error().Err(err).
					Strs("brokers", c.cfg.Brokers).
					Str("topic", c.cfg.Topic).
					Msg("consumer error")
				time.Sleep(2 * time.Second)
			}
		}
	}
}

// ProcessOne handles a single catch-report message. Malformed or
// invalid payloads are poison: they are counted, logged and skipped so
// the offset still commits. Store failures return an error so the
// message is redelivered.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev invalidation.Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		observability.IncConsumerError("decode")
		c.logger.Error().Err(err).
			Str("topic", msg.Topic).
			Int32("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("catch-report decode failed, skipping")
		return nil
	}
	if err := ev.Validate(); err != nil {
		observability.IncConsumerError("invalid")
		c.logger.Error().Err(err).
			Str("event_id", ev.EventID).
			Int64("offset", msg.Offset).
			Msg("catch-report rejected, skipping")
		return nil
	}

	if !c.dedupe.firstSeen(ev.EventID) {
		c.logger.Debug().Str("event_id", ev.EventID).Msg("duplicate catch-report, skipping")
		return nil
	}

	key := ev.LocationKey
	if key == "" {
		key = keys.Coord(ev.Coord.Lat, ev.Coord.Lon)
	}

	if err := c.store.Delete(ctx, key); err != nil {
		observability.IncConsumerError("store_delete")
		// Allow the redelivery to retry the delete.
		c.dedupe.forget(ev.EventID)
		return fmt.Errorf("delete signal %q: %w", key, err)
	}

	c.logger.Info().
		Str("event_id", ev.EventID).
		Str("op", ev.Op).
		Str("location_key", key).
		Msg("bite signal retired")
	return nil
}
