package shared

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lucsky/cuid"
)

// ValueObject is implemented by every immutable, self-validating value.
// Equals must return false for nil, a nil pointer or a value of another type.
type ValueObject interface {
	Equals(other any) bool
	String() string
}

// EqualValue compares v against other when other is a V or a non-nil *V.
func EqualValue[V comparable](v V, other any) bool {
	switch o := other.(type) {
	case V:
		return v == o
	case *V:
		return o != nil && v == *o
	default:
		return false
	}
}

var cuidPattern = regexp.MustCompile(`^c[0-9a-z]{24}$`)

// IsCuid reports whether s has the shape of a generated CUID.
func IsCuid(s string) bool {
	return cuidPattern.MatchString(s)
}

// ============================================================================
// Name
// ============================================================================

// Name is a trimmed, required, length-limited text value.
type Name struct {
	value string
}

// NewName trims raw and checks it is non-empty and at most maxLen characters.
func NewName(field, label, raw string, maxLen int) (Name, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Name{}, NewRequiredFieldError(field, label)
	}
	if utf8.RuneCountInString(trimmed) > maxLen {
		return Name{}, NewInvalidFieldError(field, fmt.Sprintf("%sは%d文字以内で入力してください", label, maxLen))
	}
	return Name{value: trimmed}, nil
}

func (n Name) Value() string         { return n.value }
func (n Name) String() string        { return n.value }
func (n Name) Equals(other any) bool { return EqualValue(n, other) }
func (n Name) IsZero() bool          { return n.value == "" }

// ============================================================================
// Identity values
// ============================================================================

// CuidID is a bare CUID identifier.
type CuidID struct {
	value string
}

// NewCuidID validates raw as a CUID.
func NewCuidID(field, label, raw string) (CuidID, error) {
	if raw == "" {
		return CuidID{}, NewRequiredFieldError(field, label)
	}
	if !IsCuid(raw) {
		return CuidID{}, NewInvalidFieldError(field, label+"はCUID v2形式である必要があります")
	}
	return CuidID{value: raw}, nil
}

// GenerateCuidID returns a fresh identifier.
func GenerateCuidID() CuidID {
	return CuidID{value: cuid.New()}
}

func (id CuidID) Value() string         { return id.value }
func (id CuidID) String() string        { return id.value }
func (id CuidID) Equals(other any) bool { return EqualValue(id, other) }

// PrefixedCuidID is a literal prefix followed by a CUID, e.g. "ing_c...".
type PrefixedCuidID struct {
	prefix string
	value  string
}

// NewPrefixedCuidID validates that raw starts with prefix and the rest is a CUID.
func NewPrefixedCuidID(field, label, prefix, raw string) (PrefixedCuidID, error) {
	if raw == "" {
		return PrefixedCuidID{}, NewRequiredFieldError(field, label)
	}
	if !strings.HasPrefix(raw, prefix) {
		return PrefixedCuidID{}, NewInvalidFieldError(field, label+"は"+prefix+"で始まる必要があります")
	}
	if !IsCuid(strings.TrimPrefix(raw, prefix)) {
		return PrefixedCuidID{}, NewInvalidFieldError(field, label+"はCUID v2形式である必要があります")
	}
	return PrefixedCuidID{prefix: prefix, value: raw}, nil
}

// GeneratePrefixedCuidID returns a fresh identifier with the given prefix.
func GeneratePrefixedCuidID(prefix string) PrefixedCuidID {
	return PrefixedCuidID{prefix: prefix, value: prefix + cuid.New()}
}

func (id PrefixedCuidID) Value() string         { return id.value }
func (id PrefixedCuidID) String() string        { return id.value }
func (id PrefixedCuidID) Prefix() string        { return id.prefix }
func (id PrefixedCuidID) Equals(other any) bool { return EqualValue(id, other) }
func (id PrefixedCuidID) IsZero() bool          { return id.value == "" }

// CoreID returns the CUID part without the prefix.
func (id PrefixedCuidID) CoreID() string {
	return strings.TrimPrefix(id.value, id.prefix)
}

// UUIDID is an RFC 4122 version 4 identifier.
type UUIDID struct {
	value string
}

// NewUUIDID validates raw as a v4 UUID.
func NewUUIDID(field, label, raw string) (UUIDID, error) {
	if raw == "" {
		return UUIDID{}, NewRequiredFieldError(field, label)
	}
	parsed, err := uuid.Parse(raw)
	if err != nil || parsed.Version() != 4 || parsed.Variant() != uuid.RFC4122 || len(raw) != 36 {
		return UUIDID{}, NewInvalidFieldError(field, label+"はUUID v4形式である必要があります")
	}
	return UUIDID{value: strings.ToLower(raw)}, nil
}

// GenerateUUIDID returns a fresh v4 UUID.
func GenerateUUIDID() UUIDID {
	return UUIDID{value: uuid.NewString()}
}

func (id UUIDID) Value() string         { return id.value }
func (id UUIDID) String() string        { return id.value }
func (id UUIDID) Equals(other any) bool { return EqualValue(id, other) }

// ============================================================================
// Concrete shared identifiers
// ============================================================================

const UserIDPrefix = "usr_"

// UserID identifies the owner of ingredients and sessions.
type UserID struct {
	PrefixedCuidID
}

func NewUserID(raw string) (UserID, error) {
	id, err := NewPrefixedCuidID("userId", "ユーザーID", UserIDPrefix, raw)
	if err != nil {
		return UserID{}, err
	}
	return UserID{id}, nil
}

func GenerateUserID() UserID {
	return UserID{GeneratePrefixedCuidID(UserIDPrefix)}
}

func (id UserID) Equals(other any) bool { return EqualValue(id, other) }

// EventID identifies a single domain event.
type EventID struct {
	UUIDID
}

func NewEventID(raw string) (EventID, error) {
	id, err := NewUUIDID("eventId", "イベントID", raw)
	if err != nil {
		return EventID{}, err
	}
	return EventID{id}, nil
}

func GenerateEventID() EventID {
	return EventID{GenerateUUIDID()}
}

func (id EventID) Equals(other any) bool { return EqualValue(id, other) }

// ============================================================================
// DisplayOrder / Description
// ============================================================================

// DisplayOrder is a non-negative integer used to sort reference data.
type DisplayOrder struct {
	value int
}

// NewDisplayOrder rejects non-integral and negative values.
func NewDisplayOrder(raw float64) (DisplayOrder, error) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) || raw != math.Trunc(raw) {
		return DisplayOrder{}, NewInvalidFieldError("displayOrder", "表示順は整数である必要があります")
	}
	if raw < 0 {
		return DisplayOrder{}, NewInvalidFieldError("displayOrder", "表示順は0以上の整数である必要があります")
	}
	return DisplayOrder{value: int(raw)}, nil
}

func DefaultDisplayOrder() DisplayOrder { return DisplayOrder{} }

func (d DisplayOrder) Value() int            { return d.value }
func (d DisplayOrder) String() string        { return fmt.Sprintf("%d", d.value) }
func (d DisplayOrder) Equals(other any) bool { return EqualValue(d, other) }

const maxDescriptionLength = 100

// Description is optional free text; a blank input means "no description".
type Description struct {
	value string
}

// NewDescription returns nil for blank input.
func NewDescription(raw string) (*Description, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > maxDescriptionLength {
		return nil, NewInvalidFieldError("description", fmt.Sprintf("説明は%d文字以内で入力してください", maxDescriptionLength))
	}
	return &Description{value: trimmed}, nil
}

func (d Description) Value() string         { return d.value }
func (d Description) String() string        { return d.value }
func (d Description) Equals(other any) bool { return EqualValue(d, other) }
