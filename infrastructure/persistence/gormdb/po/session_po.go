package po

import (
	"time"

	"gorm.io/datatypes"

	"pantry/domain/ingredient"
	"pantry/domain/shared"
	"pantry/domain/shopping"
)

// CheckedItemPO is one element of the checked_items JSON column.
type CheckedItemPO struct {
	IngredientID   string    `json:"ingredientId"`
	IngredientName string    `json:"ingredientName"`
	StockStatus    string    `json:"stockStatus"`
	ExpiryStatus   *string   `json:"expiryStatus,omitempty"`
	CheckedAt      time.Time `json:"checkedAt"`
}

// SessionPO ShoppingSession persistence object
// ActiveUserID equals UserID while ACTIVE and is NULL afterwards; its unique
// index allows at most one ACTIVE session per user.
type SessionPO struct {
	ID           string    `gorm:"primaryKey;size:64"`
	UserID       string    `gorm:"size:64;index;not null"`
	ActiveUserID *string   `gorm:"size:64;uniqueIndex"`
	Status       string    `gorm:"size:20;index;not null"`
	StartedAt    time.Time `gorm:"index;not null"`
	CompletedAt  *time.Time
	DeviceType   *string `gorm:"size:20"`
	Latitude     *float64
	Longitude    *float64
	LocationName *string                            `gorm:"size:100"`
	CheckedItems datatypes.JSONSlice[CheckedItemPO] `gorm:"type:json;not null"`
	Version      int                                `gorm:"not null;default:0"`
	UpdatedAt    time.Time                          `gorm:"autoUpdateTime:false;not null"`
}

func (SessionPO) TableName() string {
	return "shopping_sessions"
}

func FromSessionDomain(s *shopping.Session) *SessionPO {
	p := &SessionPO{
		ID:           s.ID().Value(),
		UserID:       s.UserID().Value(),
		Status:       string(s.Status()),
		StartedAt:    s.StartedAt().UTC(),
		CompletedAt:  utcPtr(s.CompletedAt()),
		CheckedItems: datatypes.JSONSlice[CheckedItemPO]{},
		Version:      s.Version(),
		UpdatedAt:    time.Now().UTC(),
	}
	if s.IsActive() {
		uid := s.UserID().Value()
		p.ActiveUserID = &uid
	}
	if d := s.DeviceType(); d != nil {
		v := string(*d)
		p.DeviceType = &v
	}
	if l := s.Location(); l != nil {
		lat, lng, name := l.Latitude(), l.Longitude(), l.Name()
		p.Latitude, p.Longitude = &lat, &lng
		if name != "" {
			p.LocationName = &name
		}
	}
	for _, item := range s.CheckedItems() {
		ip := CheckedItemPO{
			IngredientID:   item.IngredientID().Value(),
			IngredientName: item.IngredientName(),
			StockStatus:    string(item.StockStatus()),
			CheckedAt:      item.CheckedAt().UTC(),
		}
		if es := item.ExpiryStatus(); es != nil {
			v := string(*es)
			ip.ExpiryStatus = &v
		}
		p.CheckedItems = append(p.CheckedItems, ip)
	}
	return p
}

func (p *SessionPO) UpdateColumns() map[string]any {
	return map[string]any{
		"active_user_id": p.ActiveUserID,
		"status":         p.Status,
		"completed_at":   p.CompletedAt,
		"checked_items":  p.CheckedItems,
		"updated_at":     p.UpdatedAt,
	}
}

func (p *SessionPO) ToDomain() (*shopping.Session, error) {
	id, err := shopping.NewSessionID(p.ID)
	if err != nil {
		return nil, err
	}
	userID, err := shared.NewUserID(p.UserID)
	if err != nil {
		return nil, err
	}
	status, err := shopping.ParseStatus(p.Status)
	if err != nil {
		return nil, err
	}

	dto := shopping.ReconstructionDTO{
		ID:          id,
		UserID:      userID,
		Status:      status,
		StartedAt:   p.StartedAt.UTC(),
		CompletedAt: utcPtr(p.CompletedAt),
		Version:     p.Version,
	}
	if p.DeviceType != nil {
		d, err := shopping.ParseDeviceType(*p.DeviceType)
		if err != nil {
			return nil, err
		}
		dto.DeviceType = &d
	}
	if p.Latitude != nil && p.Longitude != nil {
		name := ""
		if p.LocationName != nil {
			name = *p.LocationName
		}
		loc, err := shopping.NewLocation(*p.Latitude, *p.Longitude, name)
		if err != nil {
			return nil, err
		}
		dto.Location = &loc
	}
	for _, ip := range p.CheckedItems {
		ingredientID, err := ingredient.NewID(ip.IngredientID)
		if err != nil {
			return nil, err
		}
		item := shopping.CheckedItemDTO{
			IngredientID:   ingredientID,
			IngredientName: ip.IngredientName,
			StockStatus:    shopping.StockStatus(ip.StockStatus),
			CheckedAt:      ip.CheckedAt.UTC(),
		}
		if ip.ExpiryStatus != nil {
			es := shopping.ExpiryStatus(*ip.ExpiryStatus)
			item.ExpiryStatus = &es
		}
		dto.CheckedItems = append(dto.CheckedItems, shopping.RebuildCheckedItem(item))
	}
	return shopping.RebuildFromDTO(dto), nil
}
