// Package redisbus reparte los eventos de cambio entre instancias vía Redis pub/sub.
// Cada instancia publica en el canal y reentrega lo recibido a sus suscriptores locales.
package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/shopflow-api/internal/application/events"
	"github.com/jhoicas/shopflow-api/pkg/config"
	"github.com/jhoicas/shopflow-api/pkg/logger"
)

var _ events.Bus = (*Bus)(nil)

// Bus implementación de events.Bus sobre Redis.
type Bus struct {
	client  *redis.Client
	pubsub  *redis.PubSub
	channel string
	local   *events.LocalBus
	log     *logger.Logger
	done    chan struct{}
}

// New conecta, se suscribe al canal y arranca el listener.
func New(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*Bus, error) {
	if log == nil {
		log = logger.Nop()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	pubsub := client.Subscribe(ctx, cfg.Channel)
	// Receive confirma la suscripción antes de aceptar tráfico
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		_ = client.Close()
		return nil, fmt.Errorf("subscribe %s: %w", cfg.Channel, err)
	}

	b := &Bus{
		client:  client,
		pubsub:  pubsub,
		channel: cfg.Channel,
		local:   events.NewLocalBus(),
		log:     log,
		done:    make(chan struct{}),
	}
	go b.listen()
	return b, nil
}

// Publish serializa el evento a JSON y lo publica en el canal.
func (b *Bus) Publish(ctx context.Context, e events.Event) error {
	payload, err := encodeEvent(e)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

// Subscribe suscriptor local; recibe los eventos de todas las instancias.
func (b *Bus) Subscribe(ctx context.Context) (<-chan events.Event, func(), error) {
	return b.local.Subscribe(ctx)
}

// Close detiene el listener y libera la conexión.
func (b *Bus) Close() error {
	err := b.pubsub.Close()
	<-b.done
	_ = b.local.Close()
	if cerr := b.client.Close(); err == nil {
		err = cerr
	}
	return err
}

func (b *Bus) listen() {
	defer close(b.done)
	for msg := range b.pubsub.Channel() {
		e, err := decodeEvent(msg.Payload)
		if err != nil {
			b.log.Warn().Err(err).Str("channel", msg.Channel).Msg("evento inválido descartado")
			continue
		}
		b.local.Deliver(e)
	}
}

func encodeEvent(e events.Event) ([]byte, error) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return payload, nil
}

func decodeEvent(payload string) (events.Event, error) {
	var e events.Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return events.Event{}, fmt.Errorf("decode event: %w", err)
	}
	if e.Type == "" {
		return events.Event{}, fmt.Errorf("decode event: sin tipo")
	}
	return e, nil
}
