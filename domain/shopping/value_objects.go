package shopping

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"pantry/domain/ingredient"
	"pantry/domain/shared"
)

const (
	SessionIDPrefix = "ses_"

	maxLocationNameLength = 100
)

// SessionID identifies a shopping session, e.g. "ses_cjld2cjxh0000qzrmn831i7rn".
type SessionID struct {
	shared.PrefixedCuidID
}

func NewSessionID(raw string) (SessionID, error) {
	id, err := shared.NewPrefixedCuidID("sessionId", "セッションID", SessionIDPrefix, raw)
	if err != nil {
		return SessionID{}, err
	}
	return SessionID{id}, nil
}

func GenerateSessionID() SessionID {
	return SessionID{shared.GeneratePrefixedCuidID(SessionIDPrefix)}
}

func (id SessionID) Equals(other any) bool { return shared.EqualValue(id, other) }

// Status of a session. COMPLETED and ABANDONED are terminal.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusAbandoned Status = "ABANDONED"
)

func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToUpper(strings.TrimSpace(raw))); s {
	case StatusActive, StatusCompleted, StatusAbandoned:
		return s, nil
	default:
		return "", shared.NewInvalidFieldError("status", "ステータスはACTIVE, COMPLETED, ABANDONEDのいずれかである必要があります")
	}
}

func (s Status) IsTerminal() bool { return s == StatusCompleted || s == StatusAbandoned }

// DeviceType the session was started from.
type DeviceType string

const (
	DeviceMobile  DeviceType = "MOBILE"
	DeviceTablet  DeviceType = "TABLET"
	DeviceDesktop DeviceType = "DESKTOP"
)

func ParseDeviceType(raw string) (DeviceType, error) {
	switch d := DeviceType(strings.ToUpper(strings.TrimSpace(raw))); d {
	case DeviceMobile, DeviceTablet, DeviceDesktop:
		return d, nil
	default:
		return "", shared.NewInvalidFieldError("deviceType", "デバイスタイプはMOBILE, TABLET, DESKTOPのいずれかである必要があります")
	}
}

// ============================================================================
// Location
// ============================================================================

// Location is where the user is shopping; the name ("駅前スーパー") is optional.
type Location struct {
	latitude  float64
	longitude float64
	name      string
}

func NewLocation(latitude, longitude float64, name string) (Location, error) {
	if !(latitude >= -90 && latitude <= 90) {
		return Location{}, shared.NewInvalidFieldError("latitude", "緯度は-90から90の範囲で指定してください: "+formatCoordinate(latitude))
	}
	if !(longitude >= -180 && longitude <= 180) {
		return Location{}, shared.NewInvalidFieldError("longitude", "経度は-180から180の範囲で指定してください: "+formatCoordinate(longitude))
	}
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > maxLocationNameLength {
		return Location{}, shared.NewInvalidFieldError("locationName", fmt.Sprintf("場所の名前は%d文字以内で入力してください", maxLocationNameLength))
	}
	return Location{latitude: latitude, longitude: longitude, name: name}, nil
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (l Location) Latitude() float64     { return l.latitude }
func (l Location) Longitude() float64    { return l.longitude }
func (l Location) Name() string          { return l.name }
func (l Location) Equals(other any) bool { return shared.EqualValue(l, other) }

func (l Location) String() string {
	s := formatCoordinate(l.latitude) + "," + formatCoordinate(l.longitude)
	if l.name != "" {
		s += " " + l.name
	}
	return s
}

// ============================================================================
// Snapshots taken when an item is checked
// ============================================================================

type StockStatus string

const (
	StockInStock    StockStatus = "IN_STOCK"
	StockLowStock   StockStatus = "LOW_STOCK"
	StockOutOfStock StockStatus = "OUT_OF_STOCK"
)

// StockStatusOf classifies a stock.
func StockStatusOf(s ingredient.Stock) StockStatus {
	switch {
	case s.IsOutOfStock():
		return StockOutOfStock
	case s.IsLowStock():
		return StockLowStock
	default:
		return StockInStock
	}
}

type ExpiryStatus string

const (
	ExpiryFresh        ExpiryStatus = "FRESH"
	ExpiryNearExpiry   ExpiryStatus = "NEAR_EXPIRY"
	ExpiryExpiringSoon ExpiryStatus = "EXPIRING_SOON"
	ExpiryCritical     ExpiryStatus = "CRITICAL"
	ExpiryExpired      ExpiryStatus = "EXPIRED"
)

// ExpiryStatusFromDays maps days until expiry to a status:
// <0 expired, <=1 critical, <=3 expiring soon, <=7 near expiry, otherwise fresh.
func ExpiryStatusFromDays(days int) ExpiryStatus {
	switch {
	case days < 0:
		return ExpiryExpired
	case days <= 1:
		return ExpiryCritical
	case days <= 3:
		return ExpiryExpiringSoon
	case days <= 7:
		return ExpiryNearExpiry
	default:
		return ExpiryFresh
	}
}

// ExpiryStatusOf returns nil when the ingredient has no expiry dates.
func ExpiryStatusOf(info *ingredient.ExpiryInfo, now time.Time) *ExpiryStatus {
	if info == nil {
		return nil
	}
	s := ExpiryStatusFromDays(info.DaysUntilExpiry(now))
	return &s
}

// CheckedItem is the snapshot of one ingredient as the user saw it in the store.
type CheckedItem struct {
	ingredientID   ingredient.ID
	ingredientName string
	stockStatus    StockStatus
	expiryStatus   *ExpiryStatus
	checkedAt      time.Time
}

func (c CheckedItem) IngredientID() ingredient.ID { return c.ingredientID }
func (c CheckedItem) IngredientName() string      { return c.ingredientName }
func (c CheckedItem) StockStatus() StockStatus    { return c.stockStatus }
func (c CheckedItem) CheckedAt() time.Time        { return c.checkedAt }

func (c CheckedItem) ExpiryStatus() *ExpiryStatus {
	if c.expiryStatus == nil {
		return nil
	}
	s := *c.expiryStatus
	return &s
}

// CheckedItemDTO rebuilds a CheckedItem from storage.
type CheckedItemDTO struct {
	IngredientID   ingredient.ID
	IngredientName string
	StockStatus    StockStatus
	ExpiryStatus   *ExpiryStatus
	CheckedAt      time.Time
}

func RebuildCheckedItem(dto CheckedItemDTO) CheckedItem {
	return CheckedItem{
		ingredientID:   dto.IngredientID,
		ingredientName: dto.IngredientName,
		stockStatus:    dto.StockStatus,
		expiryStatus:   dto.ExpiryStatus,
		checkedAt:      dto.CheckedAt,
	}
}
