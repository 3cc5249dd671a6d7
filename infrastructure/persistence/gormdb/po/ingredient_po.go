package po

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"pantry/domain/category"
	"pantry/domain/ingredient"
	"pantry/domain/shared"
	"pantry/domain/unit"
)

// IngredientPO Ingredient persistence object
// DedupKey is set while the ingredient is live and NULL once deleted; its
// unique index backs the "no duplicate ingredient" rule.
type IngredientPO struct {
	ID              string  `gorm:"primaryKey;size:64"`
	UserID          string  `gorm:"size:64;index;not null"`
	Name            string  `gorm:"size:50;not null"`
	CategoryID      string  `gorm:"size:64;index;not null"`
	Quantity        float64 `gorm:"not null"`
	UnitID          string  `gorm:"size:64;not null"`
	StorageType     string  `gorm:"size:20;not null"`
	StorageDetail   string  `gorm:"size:50;not null;default:''"`
	Threshold       *float64
	Price           decimal.NullDecimal `gorm:"type:decimal(10,2)"`
	BestBefore      *time.Time
	UseBy           *time.Time
	EffectiveExpiry *time.Time `gorm:"index"`
	Memo            *string    `gorm:"size:200"`
	PurchaseDate    time.Time  `gorm:"not null"`
	DeletedAt       *time.Time `gorm:"index"`
	DedupKey        *string    `gorm:"size:64;uniqueIndex"`
	Version         int        `gorm:"not null;default:0"`
	CreatedAt       time.Time  `gorm:"autoCreateTime:false;not null"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime:false;not null"`
}

func (IngredientPO) TableName() string {
	return "ingredients"
}

// DedupKey hashes the fields that make two ingredients "the same". Each field
// is length-prefixed so no field value can spill into its neighbour.
func DedupKey(userID shared.UserID, name ingredient.Name, expiry *ingredient.ExpiryInfo, loc ingredient.StorageLocation) string {
	parts := []string{userID.Value(), name.Value(), string(loc.Type()), loc.Detail(), "", ""}
	if expiry != nil {
		if bb := expiry.BestBefore(); bb != nil {
			parts[4] = bb.Format(time.DateOnly)
		}
		if ub := expiry.UseBy(); ub != nil {
			parts[5] = ub.Format(time.DateOnly)
		}
	}
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(strconv.Itoa(len(p))))
		h.Write([]byte{':'})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func FromIngredientDomain(i *ingredient.Ingredient) *IngredientPO {
	stock := i.Stock()
	p := &IngredientPO{
		ID:            i.ID().Value(),
		UserID:        i.UserID().Value(),
		Name:          i.Name().Value(),
		CategoryID:    i.CategoryID().Value(),
		Quantity:      stock.Quantity().Value(),
		UnitID:        stock.UnitID().Value(),
		StorageType:   string(stock.Location().Type()),
		StorageDetail: stock.Location().Detail(),
		PurchaseDate:  i.PurchaseDate().UTC(),
		DeletedAt:     utcPtr(i.DeletedAt()),
		Version:       i.Version(),
		CreatedAt:     i.CreatedAt().UTC(),
		UpdatedAt:     i.UpdatedAt().UTC(),
	}
	if th := stock.Threshold(); th != nil {
		v := th.Value()
		p.Threshold = &v
	}
	if price := i.Price(); price != nil {
		p.Price = decimal.NewNullDecimal(price.Value())
	}
	if e := i.ExpiryInfo(); e != nil {
		p.BestBefore = e.BestBefore()
		p.UseBy = e.UseBy()
		effective := e.EffectiveDate()
		p.EffectiveExpiry = &effective
	}
	if m := i.Memo(); m != nil {
		v := m.Value()
		p.Memo = &v
	}
	if !i.IsDeleted() {
		key := DedupKey(i.UserID(), i.Name(), i.ExpiryInfo(), stock.Location())
		p.DedupKey = &key
	}
	return p
}

// UpdateColumns lists every mutable column with its new value. Version is
// written by the repository.
func (p *IngredientPO) UpdateColumns() map[string]any {
	return map[string]any{
		"name":             p.Name,
		"category_id":      p.CategoryID,
		"quantity":         p.Quantity,
		"unit_id":          p.UnitID,
		"storage_type":     p.StorageType,
		"storage_detail":   p.StorageDetail,
		"threshold":        p.Threshold,
		"price":            p.Price,
		"best_before":      p.BestBefore,
		"use_by":           p.UseBy,
		"effective_expiry": p.EffectiveExpiry,
		"memo":             p.Memo,
		"deleted_at":       p.DeletedAt,
		"dedup_key":        p.DedupKey,
		"updated_at":       p.UpdatedAt,
	}
}

// ToDomain fails only when stored data no longer passes validation.
func (p *IngredientPO) ToDomain() (*ingredient.Ingredient, error) {
	id, err := ingredient.NewID(p.ID)
	if err != nil {
		return nil, err
	}
	userID, err := shared.NewUserID(p.UserID)
	if err != nil {
		return nil, err
	}
	name, err := ingredient.NewName(p.Name)
	if err != nil {
		return nil, err
	}
	categoryID, err := category.NewID(p.CategoryID)
	if err != nil {
		return nil, err
	}
	unitID, err := unit.NewID(p.UnitID)
	if err != nil {
		return nil, err
	}
	qty, err := ingredient.NewQuantity(p.Quantity)
	if err != nil {
		return nil, err
	}
	loc, err := ingredient.NewStorageLocation(ingredient.StorageType(p.StorageType), p.StorageDetail)
	if err != nil {
		return nil, err
	}
	var threshold *ingredient.Quantity
	if p.Threshold != nil {
		th, err := ingredient.NewThreshold(*p.Threshold)
		if err != nil {
			return nil, err
		}
		threshold = &th
	}
	stock, err := ingredient.NewStock(qty, unitID, loc, threshold)
	if err != nil {
		return nil, err
	}

	dto := ingredient.ReconstructionDTO{
		ID:           id,
		UserID:       userID,
		Name:         name,
		CategoryID:   categoryID,
		Stock:        stock,
		PurchaseDate: p.PurchaseDate.UTC(),
		DeletedAt:    utcPtr(p.DeletedAt),
		Version:      p.Version,
		CreatedAt:    p.CreatedAt.UTC(),
		UpdatedAt:    p.UpdatedAt.UTC(),
	}
	if p.Price.Valid {
		price, err := ingredient.NewPrice(p.Price.Decimal)
		if err != nil {
			return nil, err
		}
		dto.Price = &price
	}
	if p.BestBefore != nil || p.UseBy != nil {
		info, err := ingredient.NewExpiryInfo(utcPtr(p.BestBefore), utcPtr(p.UseBy))
		if err != nil {
			return nil, err
		}
		dto.ExpiryInfo = info
	}
	if p.Memo != nil {
		memo, err := ingredient.NewMemo(*p.Memo)
		if err != nil {
			return nil, err
		}
		dto.Memo = memo
	}
	return ingredient.RebuildFromDTO(dto), nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
