package ingredient

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"pantry/domain/shared"
	"pantry/domain/unit"

	"github.com/shopspring/decimal"
)

const (
	IDPrefix = "ing_"

	maxNameLength   = 50
	maxDetailLength = 50
	maxMemoLength   = 200
	maxQuantity     = 9999999.99
)

var maxPrice = decimal.RequireFromString("9999999.99")

// ============================================================================
// ID / Name
// ============================================================================

type ID struct {
	shared.PrefixedCuidID
}

func NewID(raw string) (ID, error) {
	id, err := shared.NewPrefixedCuidID("ingredientId", "食材ID", IDPrefix, raw)
	if err != nil {
		return ID{}, err
	}
	return ID{id}, nil
}

func GenerateID() ID {
	return ID{shared.GeneratePrefixedCuidID(IDPrefix)}
}

func (id ID) Equals(other any) bool { return shared.EqualValue(id, other) }

type Name struct {
	shared.Name
}

func NewName(raw string) (Name, error) {
	n, err := shared.NewName("name", "食材名", raw, maxNameLength)
	if err != nil {
		return Name{}, err
	}
	return Name{n}, nil
}

func (n Name) Equals(other any) bool { return shared.EqualValue(n, other) }

// ============================================================================
// Quantity
// ============================================================================

// Quantity is an amount in the ingredient's unit; fractional values are allowed.
type Quantity struct {
	value float64
}

func NewQuantity(v float64) (Quantity, error) {
	return newQuantity("quantity", "数量", v)
}

func newQuantity(field, label string, v float64) (Quantity, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Quantity{}, shared.NewInvalidFieldError(field, label+"は有効な数値である必要があります")
	}
	if v < 0 {
		return Quantity{}, shared.NewInvalidFieldError(field, label+"は0以上である必要があります")
	}
	if v > maxQuantity {
		return Quantity{}, shared.NewInvalidFieldError(field, fmt.Sprintf("%sは%.2f以下である必要があります", label, maxQuantity))
	}
	return Quantity{value: v}, nil
}

func (q Quantity) Value() float64        { return q.value }
func (q Quantity) String() string        { return decimal.NewFromFloat(q.value).String() }
func (q Quantity) Equals(other any) bool { return shared.EqualValue(q, other) }
func (q Quantity) IsZero() bool          { return q.value == 0 }

// ============================================================================
// Price
// ============================================================================

// Price is a non-negative amount with at most two decimal places.
type Price struct {
	value decimal.Decimal
}

func NewPrice(v decimal.Decimal) (Price, error) {
	if v.IsNegative() {
		return Price{}, shared.NewInvalidFieldError("price", "価格は0以上である必要があります")
	}
	if v.GreaterThan(maxPrice) {
		return Price{}, shared.NewInvalidFieldError("price", "価格は"+maxPrice.StringFixed(2)+"以下である必要があります")
	}
	if !v.Equal(v.Round(2)) {
		return Price{}, shared.NewInvalidFieldError("price", "価格は小数点以下2桁までで入力してください")
	}
	return Price{value: v}, nil
}

// ParsePrice accepts the textual form used by the API ("198", "198.50").
func ParsePrice(raw string) (Price, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return Price{}, shared.NewInvalidFieldError("price", "価格は数値である必要があります")
	}
	return NewPrice(v)
}

func (p Price) Value() decimal.Decimal { return p.value }
func (p Price) String() string         { return p.value.StringFixed(2) }

func (p Price) Equals(other any) bool {
	switch o := other.(type) {
	case Price:
		return p.value.Equal(o.value)
	case *Price:
		return o != nil && p.value.Equal(o.value)
	default:
		return false
	}
}

// ============================================================================
// StorageLocation
// ============================================================================

type StorageType string

const (
	StorageRefrigerated    StorageType = "REFRIGERATED"
	StorageFrozen          StorageType = "FROZEN"
	StorageRoomTemperature StorageType = "ROOM_TEMPERATURE"
)

func ParseStorageType(raw string) (StorageType, error) {
	switch t := StorageType(strings.ToUpper(strings.TrimSpace(raw))); t {
	case StorageRefrigerated, StorageFrozen, StorageRoomTemperature:
		return t, nil
	case "":
		return "", shared.NewRequiredFieldError("storageType", "保存場所")
	default:
		return "", shared.NewInvalidFieldError("storageType", "保存場所はREFRIGERATED, FROZEN, ROOM_TEMPERATUREのいずれかである必要があります")
	}
}

// StorageLocation is where the ingredient is kept, with an optional free
// text detail ("野菜室", "ドアポケット").
type StorageLocation struct {
	storageType StorageType
	detail      string
}

func NewStorageLocation(storageType StorageType, detail string) (StorageLocation, error) {
	t, err := ParseStorageType(string(storageType))
	if err != nil {
		return StorageLocation{}, err
	}
	detail = strings.TrimSpace(detail)
	if utf8.RuneCountInString(detail) > maxDetailLength {
		return StorageLocation{}, shared.NewInvalidFieldError("storageDetail", fmt.Sprintf("保存場所の詳細は%d文字以内で入力してください", maxDetailLength))
	}
	return StorageLocation{storageType: t, detail: detail}, nil
}

func (l StorageLocation) Type() StorageType     { return l.storageType }
func (l StorageLocation) Detail() string        { return l.detail }
func (l StorageLocation) Equals(other any) bool { return shared.EqualValue(l, other) }

func (l StorageLocation) String() string {
	if l.detail == "" {
		return string(l.storageType)
	}
	return string(l.storageType) + "(" + l.detail + ")"
}

// ============================================================================
// ExpiryInfo
// ============================================================================

// ExpiryInfo holds a best-before date, a use-by date or both. Only the
// calendar date matters; times are normalized to midnight UTC.
type ExpiryInfo struct {
	bestBefore *time.Time
	useBy      *time.Time
}

func NewExpiryInfo(bestBefore, useBy *time.Time) (*ExpiryInfo, error) {
	if bestBefore == nil && useBy == nil {
		return nil, shared.NewRequiredFieldError("expiryInfo", "賞味期限または消費期限")
	}
	info := &ExpiryInfo{bestBefore: dateOnly(bestBefore), useBy: dateOnly(useBy)}
	if info.bestBefore != nil && info.useBy != nil && info.useBy.After(*info.bestBefore) {
		return nil, shared.NewInvalidFieldError("useBy", "消費期限は賞味期限以前の日付である必要があります")
	}
	return info, nil
}

func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func (e *ExpiryInfo) BestBefore() *time.Time { return copyTime(e.bestBefore) }
func (e *ExpiryInfo) UseBy() *time.Time      { return copyTime(e.useBy) }

// EffectiveDate is the use-by date when present, otherwise the best-before date.
func (e *ExpiryInfo) EffectiveDate() time.Time {
	if e.useBy != nil {
		return *e.useBy
	}
	return *e.bestBefore
}

// DaysUntilExpiry counts calendar days from now to the effective date.
// Negative once the date has passed.
func (e *ExpiryInfo) DaysUntilExpiry(now time.Time) int {
	today := *dateOnly(&now)
	return int(e.EffectiveDate().Sub(today).Hours() / 24)
}

func (e *ExpiryInfo) IsExpired(now time.Time) bool {
	return e.DaysUntilExpiry(now) < 0
}

// IsExpiringSoon reports whether the effective date is today or within days.
func (e *ExpiryInfo) IsExpiringSoon(now time.Time, days int) bool {
	d := e.DaysUntilExpiry(now)
	return d >= 0 && d <= days
}

func (e *ExpiryInfo) Equals(other any) bool {
	switch o := other.(type) {
	case *ExpiryInfo:
		return o != nil && e != nil && sameDate(e.bestBefore, o.bestBefore) && sameDate(e.useBy, o.useBy)
	case ExpiryInfo:
		return e != nil && sameDate(e.bestBefore, o.bestBefore) && sameDate(e.useBy, o.useBy)
	default:
		return false
	}
}

func (e *ExpiryInfo) String() string {
	var parts []string
	if e.bestBefore != nil {
		parts = append(parts, "bestBefore="+e.bestBefore.Format(time.DateOnly))
	}
	if e.useBy != nil {
		parts = append(parts, "useBy="+e.useBy.Format(time.DateOnly))
	}
	return strings.Join(parts, ",")
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// SameExpiry compares two optional expiry infos; two absent values are equal.
func SameExpiry(a, b *ExpiryInfo) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equals(b)
}

// ============================================================================
// Memo
// ============================================================================

type Memo struct {
	value string
}

// NewMemo returns nil for blank input.
func NewMemo(raw string) (*Memo, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > maxMemoLength {
		return nil, shared.NewInvalidFieldError("memo", fmt.Sprintf("メモは%d文字以内で入力してください", maxMemoLength))
	}
	return &Memo{value: trimmed}, nil
}

func (m Memo) Value() string         { return m.value }
func (m Memo) String() string        { return m.value }
func (m Memo) Equals(other any) bool { return shared.EqualValue(m, other) }

// ============================================================================
// Stock
// ============================================================================

// Stock is how much is on hand, in which unit, where, and the optional
// quantity at or below which the ingredient counts as running low.
type Stock struct {
	quantity  Quantity
	unitID    unit.ID
	location  StorageLocation
	threshold *Quantity
}

func NewStock(quantity Quantity, unitID unit.ID, location StorageLocation, threshold *Quantity) (Stock, error) {
	if unitID.IsZero() {
		return Stock{}, shared.NewRequiredFieldError("unitId", "単位")
	}
	if location.Type() == "" {
		return Stock{}, shared.NewRequiredFieldError("storageLocation", "保存場所")
	}
	var th *Quantity
	if threshold != nil {
		c := *threshold
		th = &c
	}
	return Stock{quantity: quantity, unitID: unitID, location: location, threshold: th}, nil
}

// NewThreshold validates a low-stock threshold.
func NewThreshold(v float64) (Quantity, error) {
	return newQuantity("threshold", "在庫閾値", v)
}

func (s Stock) Quantity() Quantity        { return s.quantity }
func (s Stock) UnitID() unit.ID           { return s.unitID }
func (s Stock) Location() StorageLocation { return s.location }

func (s Stock) Threshold() *Quantity {
	if s.threshold == nil {
		return nil
	}
	c := *s.threshold
	return &c
}

func (s Stock) IsOutOfStock() bool {
	return s.quantity.IsZero()
}

// IsLowStock is true when a threshold is set and the quantity is positive but
// at or below it.
func (s Stock) IsLowStock() bool {
	return s.threshold != nil && !s.IsOutOfStock() && s.quantity.Value() <= s.threshold.Value()
}

// Consume returns the stock left after using amount.
func (s Stock) Consume(amount Quantity) (Stock, error) {
	if amount.IsZero() {
		return Stock{}, shared.NewInvalidFieldError("amount", "消費量は0より大きい必要があります")
	}
	if amount.Value() > s.quantity.Value() {
		return Stock{}, shared.NewBusinessRuleError(entityName,
			fmt.Sprintf("在庫が不足しています: 在庫%s, 消費量%s", s.quantity, amount))
	}
	left, err := NewQuantity(decimal.NewFromFloat(s.quantity.Value()).Sub(decimal.NewFromFloat(amount.Value())).InexactFloat64())
	if err != nil {
		return Stock{}, err
	}
	s.quantity = left
	return s, nil
}

func (s Stock) Equals(other any) bool {
	var o Stock
	switch v := other.(type) {
	case Stock:
		o = v
	case *Stock:
		if v == nil {
			return false
		}
		o = *v
	default:
		return false
	}
	sameThreshold := (s.threshold == nil && o.threshold == nil) ||
		(s.threshold != nil && o.threshold != nil && *s.threshold == *o.threshold)
	return s.quantity == o.quantity && s.unitID == o.unitID && s.location == o.location && sameThreshold
}

func (s Stock) String() string {
	return fmt.Sprintf("%s %s @%s", s.quantity, s.unitID, s.location)
}
