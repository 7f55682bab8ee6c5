package usecase

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/shopflow-api/internal/application/dto"
	"github.com/jhoicas/shopflow-api/internal/domain/entity"
	"github.com/jhoicas/shopflow-api/internal/domain/report"
)

// El tendero nunca ve precio de compra ni utilidad: esos campos quedan nil y se omiten del JSON.

func toProductResponse(p *entity.Product, actor entity.Actor) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	out := &dto.ProductResponse{
		ID:           p.ID,
		Name:         p.Name,
		Barcode:      p.Barcode,
		SellingPrice: p.SellingPrice,
		Quantity:     p.Quantity,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if actor.IsAdmin() {
		out.PurchasePrice = decPtr(p.PurchasePrice)
	}
	return out
}

func toProductList(products []*entity.Product, actor entity.Actor) *dto.ProductListResponse {
	items := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		items = append(items, *toProductResponse(p, actor))
	}
	return &dto.ProductListResponse{Items: items, Total: len(items)}
}

// ToSaleResponse proyecta una venta según el rol del actor.
func ToSaleResponse(s *entity.Sale, actor entity.Actor) *dto.SaleResponse {
	if s == nil {
		return nil
	}
	v := report.EnrichSale(s)
	admin := actor.IsAdmin()
	items := make([]dto.SaleItemResponse, 0, len(v.Items))
	for _, iv := range v.Items {
		it := dto.SaleItemResponse{
			Index:          iv.Index,
			ProductID:      iv.Item.ProductID,
			Name:           iv.Item.Name,
			Quantity:       iv.Item.Quantity,
			SellingPrice:   iv.Item.SellingPrice,
			LineTotal:      iv.LineTotal,
			Returned:       iv.Item.Returned,
			ReturnedAt:     iv.Item.ReturnedAt,
			ReturnedBy:     iv.Item.ReturnedBy,
			ReturnedByRole: iv.Item.ReturnedByRole,
		}
		if admin {
			it.PurchasePrice = decPtr(iv.Item.PurchasePrice)
			it.Profit = decPtr(iv.Profit)
		}
		items = append(items, it)
	}
	out := &dto.SaleResponse{
		ID:            s.ID,
		Items:         items,
		TotalAmount:   s.TotalAmount,
		Revenue:       v.Revenue,
		ReturnedItems: v.ReturnedItems,
		CreatedBy:     s.CreatedBy,
		CreatedByName: s.CreatedByName,
		CreatedByRole: s.CreatedByRole,
		CreatedAt:     s.CreatedAt,
	}
	if admin {
		out.Profit = decPtr(v.Profit)
	}
	return out
}

func toSummaryResponse(s report.Summary, actor entity.Actor) dto.SalesSummaryResponse {
	out := dto.SalesSummaryResponse{
		SaleCount:     s.SaleCount,
		ItemsSold:     s.ItemsSold,
		ReturnedItems: s.ReturnedItems,
		Revenue:       s.Revenue.Round(2),
	}
	if actor.IsAdmin() {
		out.Profit = decPtr(s.Profit.Round(2))
	}
	return out
}

func toStockResponse(s report.Stock) *dto.StockSummaryResponse {
	return &dto.StockSummaryResponse{
		ProductCount:      s.ProductCount,
		TotalStock:        s.TotalStock,
		TotalBuyingCost:   s.TotalBuyingCost.Round(2),
		TotalSellingValue: s.TotalSellingValue.Round(2),
	}
}

func decPtr(d decimal.Decimal) *decimal.Decimal { return &d }
