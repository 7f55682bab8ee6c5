package http

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/shopflow-api/internal/application/events"
	"github.com/jhoicas/shopflow-api/internal/application/usecase"
	"github.com/jhoicas/shopflow-api/internal/domain/entity"
	"github.com/jhoicas/shopflow-api/pkg/logger"
)

const heartbeatEvery = 25 * time.Second

// LiveHandler consultas en vivo por Server-Sent Events: envía el snapshot completo al conectar
// y de nuevo cada vez que el bus avisa un cambio relevante.
type LiveHandler struct {
	bus      events.Bus
	products *usecase.ProductUseCase
	sales    *usecase.SaleUseCase
	log      *logger.Logger
}

// NewLiveHandler construye el handler.
func NewLiveHandler(bus events.Bus, products *usecase.ProductUseCase, sales *usecase.SaleUseCase, log *logger.Logger) *LiveHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &LiveHandler{bus: bus, products: products, sales: sales, log: log}
}

type snapshotFunc func(ctx context.Context) (any, error)

// Products godoc
// @Summary      Catálogo en vivo (SSE)
// @Tags         live
// @Security     Bearer
// @Produce      text/event-stream
// @Router       /api/live/products [get]
func (h *LiveHandler) Products(c *fiber.Ctx) error {
	actor := actorOf(c)
	return h.stream(c, "products", events.Event.AffectsProducts, func(ctx context.Context) (any, error) {
		return h.products.List(ctx, actor)
	})
}

// Sales godoc
// @Summary      Ventas del rango en vivo (SSE); por defecto hoy
// @Tags         live
// @Security     Bearer
// @Produce      text/event-stream
// @Param        from  query  string  false  "YYYY-MM-DD"
// @Param        to    query  string  false  "YYYY-MM-DD"
// @Router       /api/live/sales [get]
func (h *LiveHandler) Sales(c *fiber.Ctx) error {
	actor := actorOf(c)
	from, to, err := parseRange(c, h.sales.Location())
	if err != nil {
		return respondError(c, err)
	}
	return h.stream(c, "sales", events.Event.AffectsSales, h.salesSnapshot(from, to, actor))
}

// salesSnapshot sin fechas deja el rango en cero: List resuelve "hoy" en cada envío, así un
// stream abierto de un día para otro pasa al día nuevo.
func (h *LiveHandler) salesSnapshot(from, to time.Time, actor entity.Actor) snapshotFunc {
	return func(ctx context.Context) (any, error) {
		return h.sales.List(ctx, from, to, actor)
	}
}

func (h *LiveHandler) stream(c *fiber.Ctx, name string, relevant func(events.Event) bool, snapshot snapshotFunc) error {
	// el stream sobrevive al handler: su contexto termina cuando falla una escritura
	ctx, cancel := context.WithCancel(context.Background())
	ch, unsubscribe, err := h.bus.Subscribe(ctx)
	if err != nil {
		cancel()
		return respondError(c, err)
	}
	userID := GetUserID(c)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer unsubscribe()
		log := h.log.With().Str("stream", name).Str("user_id", userID).Logger()

		send := func() error {
			v, err := snapshot(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("snapshot en vivo")
				return writeSSE(w, "error", map[string]string{"message": err.Error()})
			}
			return writeSSE(w, "snapshot", v)
		}
		if err := send(); err != nil {
			return
		}

		ticker := time.NewTicker(heartbeatEvery)
		defer ticker.Stop()
		for {
			select {
			case e, ok := <-ch:
				if !ok {
					return
				}
				if !relevant(e) {
					continue
				}
				if err := send(); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})
	return nil
}

// writeSSE escribe un evento SSE con data JSON y hace flush.
func writeSSE(w *bufio.Writer, event string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	return w.Flush()
}
