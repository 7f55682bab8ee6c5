// Package report deriva resúmenes de stock, ventas y utilidad a partir de snapshots del catálogo y
// del libro de ventas. Funciones puras: sin efectos secundarios y tolerantes a entradas vacías.
// Los ítems devueltos no suman a ingresos ni utilidad, pero siguen visibles para auditoría.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/shopflow-api/internal/domain/entity"
)

// DayLabelLayout formato de etiqueta de los buckets diarios ("Jan 2").
const DayLabelLayout = "Jan 2"

// Stock resumen del inventario.
type Stock struct {
	ProductCount      int
	TotalStock        int
	TotalBuyingCost   decimal.Decimal
	TotalSellingValue decimal.Decimal
}

// StockSummary suma cantidades y valorización a precio de compra y de venta.
func StockSummary(products []*entity.Product) Stock {
	s := Stock{TotalBuyingCost: decimal.Zero, TotalSellingValue: decimal.Zero}
	for _, p := range products {
		if p == nil {
			continue
		}
		q := decimal.NewFromInt(int64(p.Quantity))
		s.ProductCount++
		s.TotalStock += p.Quantity
		s.TotalBuyingCost = s.TotalBuyingCost.Add(q.Mul(p.PurchasePrice))
		s.TotalSellingValue = s.TotalSellingValue.Add(q.Mul(p.SellingPrice))
	}
	return s
}

// Filter rango [From, To] sobre CreatedAt (cero = sin límite) y creador opcional.
type Filter struct {
	From      time.Time
	To        time.Time
	CreatedBy string
}

// Match indica si la venta entra en el filtro.
func (f Filter) Match(s *entity.Sale) bool {
	if s == nil {
		return false
	}
	if !f.From.IsZero() && s.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && s.CreatedAt.After(f.To) {
		return false
	}
	return f.CreatedBy == "" || s.CreatedBy == f.CreatedBy
}

// Summary totales de ventas.
type Summary struct {
	SaleCount     int
	ItemsSold     int // unidades no devueltas
	ReturnedItems int // líneas devueltas
	Revenue       decimal.Decimal
	Profit        decimal.Decimal
}

// SalesSummary ingresos y utilidad de los ítems no devueltos de las ventas que pasan el filtro.
func SalesSummary(sales []*entity.Sale, f Filter) Summary {
	sum := Summary{Revenue: decimal.Zero, Profit: decimal.Zero}
	for _, s := range sales {
		if !f.Match(s) {
			continue
		}
		sum.SaleCount++
		for _, it := range s.Items {
			if it.Returned {
				sum.ReturnedItems++
				continue
			}
			sum.ItemsSold += it.Quantity
			sum.Revenue = sum.Revenue.Add(it.LineTotal())
			sum.Profit = sum.Profit.Add(it.Profit())
		}
	}
	return sum
}

// Bucket agregado de un día calendario local.
type Bucket struct {
	Date      string // 2006-01-02
	Label     string
	SaleCount int
	Revenue   decimal.Decimal
	Profit    decimal.Decimal
}

// DailyBuckets agrupa por fecha local de CreatedAt, ordenado por fecha. loc nil = time.Local.
func DailyBuckets(sales []*entity.Sale, loc *time.Location) []Bucket {
	if loc == nil {
		loc = time.Local
	}
	byDate := make(map[string]*Bucket)
	for _, s := range sales {
		if s == nil {
			continue
		}
		day := s.CreatedAt.In(loc)
		key := day.Format(time.DateOnly)
		b, ok := byDate[key]
		if !ok {
			b = &Bucket{Date: key, Label: day.Format(DayLabelLayout), Revenue: decimal.Zero, Profit: decimal.Zero}
			byDate[key] = b
		}
		b.SaleCount++
		for _, it := range s.Items {
			if it.Returned {
				continue
			}
			b.Revenue = b.Revenue.Add(it.LineTotal())
			b.Profit = b.Profit.Add(it.Profit())
		}
	}

	out := make([]Bucket, 0, len(byDate))
	for _, b := range byDate {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// ItemView ítem enriquecido para el historial.
type ItemView struct {
	Index         int
	Item          entity.SaleItem
	LineTotal     decimal.Decimal
	Profit        decimal.Decimal
	StruckThrough bool // devuelto: se muestra tachado
}

// SaleView venta con totales vigentes (sin ítems devueltos).
type SaleView struct {
	Sale          *entity.Sale
	Items         []ItemView
	Revenue       decimal.Decimal
	Profit        decimal.Decimal
	ReturnedItems int
}

// EnrichSale calcula total y utilidad por línea. Las líneas devueltas quedan marcadas y fuera de los totales.
func EnrichSale(s *entity.Sale) SaleView {
	v := SaleView{Sale: s, Revenue: decimal.Zero, Profit: decimal.Zero}
	if s == nil {
		return v
	}
	v.Items = make([]ItemView, 0, len(s.Items))
	for i, it := range s.Items {
		iv := ItemView{Index: i, Item: it, LineTotal: it.LineTotal(), Profit: it.Profit(), StruckThrough: it.Returned}
		v.Items = append(v.Items, iv)
		if it.Returned {
			v.ReturnedItems++
			continue
		}
		v.Revenue = v.Revenue.Add(iv.LineTotal)
		v.Profit = v.Profit.Add(iv.Profit)
	}
	return v
}
