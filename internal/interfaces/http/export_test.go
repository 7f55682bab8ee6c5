package http

import (
	"context"
	"time"

	"github.com/jhoicas/shopflow-api/internal/domain/entity"
)

// WriteSSEForTest expone writeSSE a los tests externos.
var WriteSSEForTest = writeSSE

// LiveSalesSnapshotForTest expone el snapshot del stream de ventas.
func LiveSalesSnapshotForTest(h *LiveHandler, from, to time.Time, actor entity.Actor) func(context.Context) (any, error) {
	return h.salesSnapshot(from, to, actor)
}
