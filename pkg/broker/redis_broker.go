package broker

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"strings"
	"time"

	"submission-disk/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// StreamBroker is a partitioned, at-least-once publish/subscribe layer on top
// of Redis Streams. Each topic is materialized as one stream per partition;
// the partition is chosen by hashing the message key, so all messages for one
// key stay ordered. Consumers share a consumer group per topic and
// acknowledge only when the handler succeeds. Messages left pending longer
// than minIdle (a handler errored or a consumer died) are reclaimed with
// XAUTOCLAIM, which is what makes delivery at-least-once rather than at-most-once.
type StreamBroker struct {
	client     *redis.Client
	group      string
	partitions int
	block      time.Duration
	minIdle    time.Duration
	consumer   string
	log        *logger.Logger
}

func NewStreamBroker(client *redis.Client, group string, partitions int, block time.Duration, log *logger.Logger) *StreamBroker {
	if partitions < 1 {
		partitions = 1
	}
	host, _ := os.Hostname()
	return &StreamBroker{
		client:     client,
		group:      group,
		partitions: partitions,
		block:      block,
		minIdle:    4 * block,
		consumer:   fmt.Sprintf("%s-%s", host, uuid.NewString()[:8]),
		log:        log,
	}
}

// Publish appends the payload to the partition stream selected by key.
func (b *StreamBroker) Publish(ctx context.Context, topic, key string, payload []byte) error {
	stream := b.stream(topic, b.partition(key))
	return b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"key":     key,
			"payload": payload,
		},
	}).Err()
}

// Subscribe joins the consumer group on every partition of the topic and
// starts one poll loop per partition. The loops stop when ctx is cancelled.
func (b *StreamBroker) Subscribe(ctx context.Context, topic string, handler Handler) error {
	for p := 0; p < b.partitions; p++ {
		stream := b.stream(topic, p)
		err := b.client.XGroupCreateMkStream(ctx, stream, b.group, "0").Err()
		if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
			return fmt.Errorf("create consumer group on %s: %w", stream, err)
		}
		go b.consume(ctx, topic, p, stream, handler)
	}
	return nil
}

func (b *StreamBroker) consume(ctx context.Context, topic string, partition int, stream string, handler Handler) {
	for ctx.Err() == nil {
		b.reclaim(ctx, topic, partition, stream, handler)

		streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    b.group,
			Consumer: b.consumer,
			Streams:  []string{stream, ">"},
			Count:    10,
			Block:    b.block,
		}).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.log.Errorf("read from stream %s failed: %v", stream, err)
			time.Sleep(time.Second)
			continue
		}
		for _, s := range streams {
			b.dispatch(ctx, topic, partition, stream, s.Messages, handler)
		}
	}
}

// reclaim takes over messages another consumer read but never acknowledged.
func (b *StreamBroker) reclaim(ctx context.Context, topic string, partition int, stream string, handler Handler) {
	claimed, _, err := b.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   stream,
		Group:    b.group,
		Consumer: b.consumer,
		MinIdle:  b.minIdle,
		Start:    "0",
		Count:    10,
	}).Result()
	if err != nil {
		if ctx.Err() == nil {
			b.log.Errorf("reclaim on stream %s failed: %v", stream, err)
		}
		return
	}
	if len(claimed) > 0 {
		b.log.Infof("reclaimed %d pending message(s) on %s", len(claimed), stream)
		b.dispatch(ctx, topic, partition, stream, claimed, handler)
	}
}

func (b *StreamBroker) dispatch(ctx context.Context, topic string, partition int, stream string, msgs []redis.XMessage, handler Handler) {
	for _, m := range msgs {
		if !b.handleMessage(ctx, topic, partition, m, handler) {
			continue
		}
		if err := b.client.XAck(ctx, stream, b.group, m.ID).Err(); err != nil && ctx.Err() == nil {
			b.log.Errorf("ack on stream %s (message %s) failed: %v", stream, m.ID, err)
		}
	}
}

// handleMessage runs the handler under a deadline and reports whether the
// message may be acknowledged. A handler error leaves the message pending so
// reclaim redelivers it after minIdle; handlers that want a message dropped
// return nil and own the failure themselves.
func (b *StreamBroker) handleMessage(ctx context.Context, topic string, partition int, m redis.XMessage, handler Handler) bool {
	key, _ := m.Values["key"].(string)
	payload, _ := m.Values["payload"].(string)

	hctx, cancel := context.WithTimeout(ctx, 2*b.block)
	defer cancel()

	err := handler(hctx, Message{
		Topic:     topic,
		Partition: partition,
		ID:        m.ID,
		Key:       key,
		Payload:   []byte(payload),
	})
	if err != nil {
		b.log.Errorf("handler error on topic %s (message %s), leaving pending for redelivery: %v", topic, m.ID, err)
		return false
	}
	return true
}

func (b *StreamBroker) partition(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(b.partitions))
}

func (b *StreamBroker) stream(topic string, partition int) string {
	return fmt.Sprintf("%s.%d", topic, partition)
}
