// Package pdf genera el recibo imprimible de una venta (ticket térmico de 58 mm).
//
//	┌──────────────────────────┐
//	│  ShopFlow + fecha + N°   │
//	│  - - - - - - - - - - - - │
//	│  Producto | Cant | Total │
//	│  - - - - - - - - - - - - │
//	│  TOTAL                   │
//	│  Gracias por su compra   │
//	└──────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/linestyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jhoicas/shopflow-api/internal/domain/entity"
)

const (
	ticketWidth   = 58.0 // mm
	ticketMargin  = 2.0
	baseHeight    = 70.0
	heightPerItem = 5.0
	receiptIDLen  = 6
)

var colorGray = &props.Color{Red: 100, Green: 100, Blue: 100}

// ReceiptGenerator genera recibos con Maroto v2.
type ReceiptGenerator struct {
	storeName string
	tagline   string
	printer   *message.Printer
	loc       *time.Location
}

// NewReceiptGenerator construye el generador. lang define separadores de miles y decimales.
func NewReceiptGenerator(storeName string, lang language.Tag, loc *time.Location) *ReceiptGenerator {
	if loc == nil {
		loc = time.Local
	}
	return &ReceiptGenerator{
		storeName: storeName,
		tagline:   "Su tienda de barrio.",
		printer:   message.NewPrinter(lang),
		loc:       loc,
	}
}

// GenerateReceipt genera el PDF del recibo y devuelve sus bytes.
// Las líneas devueltas se imprimen marcadas; el total es el cobrado originalmente.
func (g *ReceiptGenerator) GenerateReceipt(_ context.Context, sale *entity.Sale) ([]byte, error) {
	if sale == nil {
		return nil, fmt.Errorf("pdf: venta nil")
	}
	cfg := config.NewBuilder().
		WithDimensions(ticketWidth, baseHeight+heightPerItem*float64(len(sale.Items))).
		WithLeftMargin(ticketMargin).WithRightMargin(ticketMargin).
		WithTopMargin(ticketMargin).WithBottomMargin(ticketMargin).
		WithDefaultFont(&props.Font{Family: "courier", Size: 7}).
		WithTitle("Recibo "+shortID(sale.ID), true).
		WithAuthor(g.storeName, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(g.headerRows(sale)...)
	m.AddRows(separator())
	m.AddRows(itemsHeaderRow())
	m.AddRows(g.itemRows(sale.Items)...)
	m.AddRows(separator())
	m.AddRows(g.totalRow(sale.TotalAmount))
	m.AddRows(row.New(6).Add(col.New(12).Add(
		text.New("¡Gracias por su compra!", props.Text{Size: 7, Align: align.Center, Top: 2}),
	)))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar recibo: %w", err)
	}
	return doc.GetBytes(), nil
}

func (g *ReceiptGenerator) headerRows(sale *entity.Sale) []core.Row {
	centered := func(s string, size float64, style fontstyle.Type) core.Row {
		return row.New(4).Add(col.New(12).Add(
			text.New(s, props.Text{Size: size, Style: style, Align: align.Center}),
		))
	}
	return []core.Row{
		centered(g.storeName, 10, fontstyle.Bold),
		centered(g.tagline, 6, fontstyle.Normal),
		centered("Fecha: "+sale.CreatedAt.In(g.loc).Format("02/01/2006 15:04"), 6, fontstyle.Normal),
		centered("Recibo N°: "+shortID(sale.ID), 6, fontstyle.Normal),
	}
}

func itemsHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{Style: fontstyle.Bold, Size: 6.5, Align: a}))
	}
	return row.New(4).Add(
		h("Producto", 6, align.Left),
		h("Cant", 2, align.Right),
		h("Total", 4, align.Right),
	)
}

func (g *ReceiptGenerator) itemRows(items []entity.SaleItem) []core.Row {
	rows := make([]core.Row, 0, len(items))
	for _, it := range items {
		name := it.Name
		style := props.Text{Size: 6.5, Align: align.Left}
		if it.Returned {
			name += " (dev.)"
			style.Color = colorGray
		}
		right := style
		right.Align = align.Right
		rows = append(rows, row.New(heightPerItem).Add(
			col.New(6).Add(text.New(name, style)),
			col.New(2).Add(text.New(fmt.Sprintf("%d", it.Quantity), right)),
			col.New(4).Add(text.New(g.money(it.LineTotal()), right)),
		))
	}
	return rows
}

func (g *ReceiptGenerator) totalRow(total decimal.Decimal) core.Row {
	bold := props.Text{Style: fontstyle.Bold, Size: 8, Top: 1}
	right := bold
	right.Align = align.Right
	return row.New(6).Add(
		col.New(6).Add(text.New("TOTAL", bold)),
		col.New(6).Add(text.New(g.money(total), right)),
	)
}

// money formatea con dos decimales y separadores del idioma configurado.
func (g *ReceiptGenerator) money(d decimal.Decimal) string {
	return g.printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

func separator() core.Row {
	return line.NewRow(2, props.Line{Style: linestyle.Dashed, Thickness: 0.2})
}

func shortID(id string) string {
	if len(id) <= receiptIDLen {
		return id
	}
	return id[:receiptIDLen]
}
