package ingredient

import (
	"strings"
	"time"

	"pantry/domain/category"
	domain "pantry/domain/ingredient"
	"pantry/domain/shared"
	"pantry/domain/unit"
)

func parseDate(field, raw string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, shared.NewInvalidFieldError(field, "日付はYYYY-MM-DD形式で指定してください")
	}
	return t, nil
}

func parseOptionalDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := parseDate(field, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func toPrice(raw *string) (*domain.Price, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	p, err := domain.ParsePrice(*raw)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// toExpiryInfo returns nil when neither date is given.
func toExpiryInfo(bestBefore, useBy *string) (*domain.ExpiryInfo, error) {
	bb, err := parseOptionalDate("bestBefore", bestBefore)
	if err != nil {
		return nil, err
	}
	ub, err := parseOptionalDate("useBy", useBy)
	if err != nil {
		return nil, err
	}
	if bb == nil && ub == nil {
		return nil, nil
	}
	return domain.NewExpiryInfo(bb, ub)
}

func toMemo(raw *string) (*domain.Memo, error) {
	if raw == nil {
		return nil, nil
	}
	return domain.NewMemo(*raw)
}

func toStock(quantity float64, unitID, storageType, detail string, threshold *float64) (domain.Stock, error) {
	q, err := domain.NewQuantity(quantity)
	if err != nil {
		return domain.Stock{}, err
	}
	uid, err := unit.NewID(unitID)
	if err != nil {
		return domain.Stock{}, err
	}
	st, err := domain.ParseStorageType(storageType)
	if err != nil {
		return domain.Stock{}, err
	}
	loc, err := domain.NewStorageLocation(st, detail)
	if err != nil {
		return domain.Stock{}, err
	}
	var th *domain.Quantity
	if threshold != nil {
		v, err := domain.NewThreshold(*threshold)
		if err != nil {
			return domain.Stock{}, err
		}
		th = &v
	}
	return domain.NewStock(q, uid, loc, th)
}

// mergeStock overlays the stock fields set in req on the current stock.
func mergeStock(current domain.Stock, req UpdateIngredientRequest) (domain.Stock, bool, error) {
	if req.ClearThreshold && req.Threshold != nil {
		return current, false, shared.NewInvalidFieldError("threshold", "しきい値の指定と削除は同時にできません")
	}
	if req.Quantity == nil && req.UnitID == nil && req.StorageType == nil && req.StorageDetail == nil &&
		req.Threshold == nil && !req.ClearThreshold {
		return current, false, nil
	}
	quantity := current.Quantity().Value()
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	unitID := current.UnitID().Value()
	if req.UnitID != nil {
		unitID = *req.UnitID
	}
	storageType := string(current.Location().Type())
	if req.StorageType != nil {
		storageType = *req.StorageType
	}
	detail := current.Location().Detail()
	if req.StorageDetail != nil {
		detail = *req.StorageDetail
	}
	var threshold *float64
	if th := current.Threshold(); th != nil {
		v := th.Value()
		threshold = &v
	}
	switch {
	case req.ClearThreshold:
		threshold = nil
	case req.Threshold != nil:
		threshold = req.Threshold
	}
	stock, err := toStock(quantity, unitID, storageType, detail, threshold)
	return stock, true, err
}

func parseCategoryID(raw string) (category.ID, error) {
	return category.NewID(raw)
}

func toResponse(i *domain.Ingredient, now time.Time, soonDays int) *IngredientResponse {
	stock := i.Stock()
	resp := &IngredientResponse{
		ID:         i.ID().Value(),
		UserID:     i.UserID().Value(),
		Name:       i.Name().Value(),
		CategoryID: i.CategoryID().Value(),
		Stock: StockResponse{
			Quantity:      stock.Quantity().Value(),
			UnitID:        stock.UnitID().Value(),
			StorageType:   string(stock.Location().Type()),
			StorageDetail: stock.Location().Detail(),
			IsLowStock:    stock.IsLowStock(),
			IsOutOfStock:  stock.IsOutOfStock(),
		},
		PurchaseDate: i.PurchaseDate().Format(time.DateOnly),
		Version:      i.Version(),
		CreatedAt:    i.CreatedAt(),
		UpdatedAt:    i.UpdatedAt(),
	}
	if th := stock.Threshold(); th != nil {
		v := th.Value()
		resp.Stock.Threshold = &v
	}
	if p := i.Price(); p != nil {
		v := p.String()
		resp.Price = &v
	}
	if m := i.Memo(); m != nil {
		v := m.Value()
		resp.Memo = &v
	}
	if e := i.ExpiryInfo(); e != nil {
		er := &ExpiryResponse{
			DaysUntilExpiry: e.DaysUntilExpiry(now),
			IsExpired:       e.IsExpired(now),
			IsExpiringSoon:  e.IsExpiringSoon(now, soonDays),
		}
		if bb := e.BestBefore(); bb != nil {
			v := bb.Format(time.DateOnly)
			er.BestBefore = &v
		}
		if ub := e.UseBy(); ub != nil {
			v := ub.Format(time.DateOnly)
			er.UseBy = &v
		}
		resp.Expiry = er
	}
	return resp
}

func toResponses(items []*domain.Ingredient, now time.Time, soonDays int) []*IngredientResponse {
	out := make([]*IngredientResponse, len(items))
	for idx, i := range items {
		out[idx] = toResponse(i, now, soonDays)
	}
	return out
}
