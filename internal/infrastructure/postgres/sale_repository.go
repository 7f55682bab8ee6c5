package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/shopflow-api/internal/domain"
	"github.com/jhoicas/shopflow-api/internal/domain/entity"
	"github.com/jhoicas/shopflow-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

const saleColumns = `id, items, total_amount, created_by, created_by_name, created_by_role, created_at`

// repriceItemsSQL reescribe purchase_price/selling_price de las líneas no devueltas del producto,
// evaluado sobre la fila vigente. Si otra tx marcó una devolución, el UPDATE espera su commit y
// se reevalúa sobre la versión nueva de items.
const repriceItemsSQL = `
	UPDATE sales s
	SET items = (
		SELECT jsonb_agg(
			CASE WHEN e.item->>'product_id' = $2 AND NOT COALESCE((e.item->>'returned')::boolean, false)
				THEN e.item || jsonb_build_object('purchase_price', $3::text, 'selling_price', $4::text)
				ELSE e.item
			END ORDER BY e.ord)
		FROM jsonb_array_elements(s.items) WITH ORDINALITY AS e(item, ord)
	)
	WHERE s.id = $1
	  AND EXISTS (
		SELECT 1 FROM jsonb_array_elements(s.items) AS x(item)
		WHERE x.item->>'product_id' = $2
		  AND NOT COALESCE((x.item->>'returned')::boolean, false)
		  AND ((x.item->>'purchase_price')::numeric <> ($3::text)::numeric
		    OR (x.item->>'selling_price')::numeric <> ($4::text)::numeric)
	  )`

// saleItemRow forma JSONB de una línea de venta.
type saleItemRow struct {
	ProductID      string          `json:"product_id"`
	Name           string          `json:"name"`
	Quantity       int             `json:"quantity"`
	PurchasePrice  decimal.Decimal `json:"purchase_price"`
	SellingPrice   decimal.Decimal `json:"selling_price"`
	Returned       bool            `json:"returned"`
	ReturnedAt     *time.Time      `json:"returned_at,omitempty"`
	ReturnedBy     string          `json:"returned_by,omitempty"`
	ReturnedByRole string          `json:"returned_by_role,omitempty"`
}

// SaleRepo libro de ventas sobre PostgreSQL. Los ítems viven en una columna JSONB.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create inserta la venta; created_at es la hora del servidor de base de datos.
func (r *SaleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	items, err := encodeItems(sale.Items)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO sales (id, items, total_amount, created_by, created_by_name, created_by_role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING created_at`
	err = r.q.QueryRow(ctx, query,
		sale.ID, items, sale.TotalAmount, sale.CreatedBy, sale.CreatedByName, sale.CreatedByRole,
	).Scan(&sale.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	return r.getOne(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
}

// GetForUpdate bloquea la fila de la venta hasta el fin de la tx.
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.getOne(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id)
}

func (r *SaleRepo) UpdateItems(ctx context.Context, saleID string, items []entity.SaleItem) error {
	raw, err := encodeItems(items)
	if err != nil {
		return err
	}
	cmd, err := r.q.Exec(ctx, `UPDATE sales SET items = $2 WHERE id = $1`, saleID, raw)
	if err != nil {
		return fmt.Errorf("update sale items: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrSaleNotFound
	}
	return nil
}

func (r *SaleRepo) ListByDateRange(ctx context.Context, from, to time.Time, createdBy string) ([]*entity.Sale, error) {
	query := `
		SELECT ` + saleColumns + `
		FROM sales
		WHERE created_at BETWEEN $1 AND $2 AND ($3 = '' OR created_by = $3)
		ORDER BY created_at, id`
	return r.getMany(ctx, query, from, to, createdBy)
}

// ListPage paginación keyset por id para el recorrido completo del recálculo.
func (r *SaleRepo) ListPage(ctx context.Context, afterID string, limit int) ([]*entity.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id > $1 ORDER BY id LIMIT $2`
	return r.getMany(ctx, query, afterID, limit)
}

// RepriceBatch envía un UPDATE por venta en un pgx.Batch dentro de una transacción propia
// (o un savepoint si el repo ya está atado a una tx). Todo el lote se confirma o nada.
// El conteo suma las filas afectadas: ventas que dejaron de calificar no cuentan.
func (r *SaleRepo) RepriceBatch(ctx context.Context, update repository.PriceUpdate, saleIDs []string) (int, error) {
	if len(saleIDs) == 0 {
		return 0, nil
	}
	purchase, selling := update.PurchasePrice.String(), update.SellingPrice.String()
	var n int64
	err := pgx.BeginFunc(ctx, r.q, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, id := range saleIDs {
			batch.Queue(repriceItemsSQL, id, update.ProductID, purchase, selling)
		}
		br := tx.SendBatch(ctx, batch)
		n = 0
		for range saleIDs {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return err
			}
			n += tag.RowsAffected()
		}
		return br.Close()
	})
	if err != nil {
		if isConnectionError(err) || isSerializationFailure(err) {
			return 0, transient("reprice batch", err)
		}
		return 0, fmt.Errorf("reprice batch: %w", err)
	}
	return int(n), nil
}

func (r *SaleRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Sale, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get sale: %w", err)
	}
	s, err := pgx.CollectOneRow(rows, scanSale)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	return s, nil
}

func (r *SaleRepo) getMany(ctx context.Context, query string, args ...any) ([]*entity.Sale, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	list, err := pgx.CollectRows(rows, scanSale)
	if err != nil {
		return nil, fmt.Errorf("scan sale: %w", err)
	}
	return list, nil
}

func scanSale(row pgx.CollectableRow) (*entity.Sale, error) {
	var (
		s   entity.Sale
		raw []byte
	)
	if err := row.Scan(&s.ID, &raw, &s.TotalAmount, &s.CreatedBy, &s.CreatedByName, &s.CreatedByRole, &s.CreatedAt); err != nil {
		return nil, err
	}
	items, err := decodeItems(raw)
	if err != nil {
		return nil, fmt.Errorf("sale %s: %w", s.ID, err)
	}
	s.Items = items
	return &s, nil
}

func encodeItems(items []entity.SaleItem) ([]byte, error) {
	rows := make([]saleItemRow, len(items))
	for i, it := range items {
		rows[i] = saleItemRow{
			ProductID:      it.ProductID,
			Name:           it.Name,
			Quantity:       it.Quantity,
			PurchasePrice:  it.PurchasePrice,
			SellingPrice:   it.SellingPrice,
			Returned:       it.Returned,
			ReturnedAt:     it.ReturnedAt,
			ReturnedBy:     it.ReturnedBy,
			ReturnedByRole: it.ReturnedByRole,
		}
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encode sale items: %w", err)
	}
	return raw, nil
}

func decodeItems(raw []byte) ([]entity.SaleItem, error) {
	var rows []saleItemRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode sale items: %w", err)
	}
	items := make([]entity.SaleItem, len(rows))
	for i, row := range rows {
		items[i] = entity.SaleItem{
			ProductID:      row.ProductID,
			Name:           row.Name,
			Quantity:       row.Quantity,
			PurchasePrice:  row.PurchasePrice,
			SellingPrice:   row.SellingPrice,
			Returned:       row.Returned,
			ReturnedAt:     row.ReturnedAt,
			ReturnedBy:     row.ReturnedBy,
			ReturnedByRole: row.ReturnedByRole,
		}
	}
	return items, nil
}
