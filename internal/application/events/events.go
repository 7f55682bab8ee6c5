// Package events es el canal de cambios que los motores publican después de confirmar.
// Los suscriptores (vistas en vivo) vuelven a leer el snapshot completo al recibir un evento,
// así que un evento solo indica "algo cambió", no transporta el estado.
package events

import (
	"context"
	"sync"
	"time"
)

// Type tipo de evento.
type Type string

const (
	ProductChanged   Type = "product.changed"
	SaleCreated      Type = "sale.created"
	SaleItemReturned Type = "sale.item_returned"
	SalesRepriced    Type = "sales.repriced"
)

// Event notificación de cambio.
type Event struct {
	Type       Type      `json:"type"`
	ProductIDs []string  `json:"product_ids,omitempty"`
	SaleID     string    `json:"sale_id,omitempty"`
	At         time.Time `json:"at"`
}

// AffectsProducts indica si el evento invalida la vista de productos.
func (e Event) AffectsProducts() bool {
	return e.Type == ProductChanged
}

// AffectsSales indica si el evento invalida la vista de ventas.
func (e Event) AffectsSales() bool {
	return e.Type == SaleCreated || e.Type == SaleItemReturned || e.Type == SalesRepriced
}

// Publisher lo usan los motores.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Bus publicación más suscripción.
type Bus interface {
	Publisher
	// Subscribe devuelve un canal de eventos y una función para cancelar la suscripción.
	Subscribe(ctx context.Context) (<-chan Event, func(), error)
	Close() error
}

// Nop descarta todo.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// subscriberBuffer tamaño del buffer por suscriptor; si se llena el evento se descarta para ese
// suscriptor (su próximo snapshot lo pone al día).
const subscriberBuffer = 64

var _ Bus = (*LocalBus)(nil)

// LocalBus bus en proceso. Se usa cuando no hay Redis configurado.
type LocalBus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

// NewLocalBus construye el bus en proceso.
func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[int]chan Event)}
}

// Publish entrega a todos los suscriptores sin bloquear.
func (b *LocalBus) Publish(_ context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	b.Deliver(e)
	return nil
}

// Deliver reparte un evento a los suscriptores locales. Lo usa también el bus Redis al recibir.
func (b *LocalBus) Deliver(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registra un suscriptor. Se cancela al llamar cancel o al terminar ctx.
func (b *LocalBus) Subscribe(ctx context.Context) (<-chan Event, func(), error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, nil, context.Canceled
	}
	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
			b.mu.Unlock()
		})
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, cancel, nil
}

// Close cierra todos los suscriptores.
func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	return nil
}
