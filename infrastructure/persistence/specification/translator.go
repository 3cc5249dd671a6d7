/*
Package specification pushes domain specifications down to SQL.

Translation narrows: the returned expression is implied by the
specification, so every matching row is selected but a few extra rows may
come back. Repositories re-check the specification in memory after the
query. Parts without a translation (for example PredicateSpecification) are
dropped from an And and make an Or or Not untranslatable.
*/
package specification

import (
	"time"

	"gorm.io/gorm/clause"

	"pantry/domain/ingredient"
	"pantry/domain/shared"
	"pantry/domain/shopping"
)

// Leaf translates one concrete specification type.
type Leaf[T any] func(spec shared.Specification[T]) (clause.Expression, bool)

// Translate walks And/Or/Not and hands every other node to leaf. It returns
// false when nothing could be pushed down.
func Translate[T any](spec shared.Specification[T], leaf Leaf[T]) (expr clause.Expression, exact bool, ok bool) {
	if spec == nil {
		return nil, true, false
	}
	switch s := spec.(type) {
	case shared.Composable[T]:
		return Translate(s.Unwrap(), leaf)
	case shared.AndSpecification[T]:
		l, lExact, lok := Translate(s.Left, leaf)
		r, rExact, rok := Translate(s.Right, leaf)
		switch {
		case lok && rok:
			return clause.And(l, r), lExact && rExact, true
		case lok:
			return l, false, true
		case rok:
			return r, false, true
		default:
			return nil, false, false
		}
	case shared.OrSpecification[T]:
		l, lExact, lok := Translate(s.Left, leaf)
		r, rExact, rok := Translate(s.Right, leaf)
		if !lok || !rok {
			return nil, false, false
		}
		return clause.Or(l, r), lExact && rExact, true
	case shared.NotSpecification[T]:
		inner, innerExact, innerOK := Translate(s.Spec, leaf)
		if !innerOK || !innerExact {
			return nil, false, false
		}
		return clause.Not(inner), true, true
	}

	e, ok := leaf(spec)
	return e, ok, ok
}

// ============================================================================
// Ingredient
// ============================================================================

// Ingredient translates specifications over the ingredients table.
func Ingredient(spec shared.Specification[*ingredient.Ingredient]) (clause.Expression, bool) {
	expr, _, ok := Translate(spec, ingredientLeaf)
	return expr, ok
}

func ingredientLeaf(spec shared.Specification[*ingredient.Ingredient]) (clause.Expression, bool) {
	switch s := spec.(type) {
	case ingredient.ByUserSpecification:
		return clause.Eq{Column: clause.Column{Name: "user_id"}, Value: s.UserID.Value()}, true
	case ingredient.ByCategorySpecification:
		return clause.Eq{Column: clause.Column{Name: "category_id"}, Value: s.CategoryID.Value()}, true
	case ingredient.ByStorageTypeSpecification:
		return clause.Eq{Column: clause.Column{Name: "storage_type"}, Value: string(s.StorageType)}, true
	case ingredient.NotDeletedSpecification:
		return clause.Expr{SQL: "deleted_at IS NULL"}, true
	case ingredient.OutOfStockSpecification:
		return clause.Expr{SQL: "quantity = 0"}, true
	case ingredient.LowStockSpecification:
		return clause.Expr{SQL: "threshold IS NOT NULL AND quantity > 0 AND quantity <= threshold"}, true
	case ingredient.ExpiredSpecification:
		return clause.Expr{SQL: "effective_expiry < ?", Vars: []any{startOfDay(s.Now)}}, true
	case ingredient.ExpiringSoonSpecification:
		today := startOfDay(s.Now)
		return clause.Expr{
			SQL:  "effective_expiry >= ? AND effective_expiry <= ?",
			Vars: []any{today, today.AddDate(0, 0, s.Days)},
		}, true
	}
	return nil, false
}

// ============================================================================
// Shopping session
// ============================================================================

// Session translates specifications over the shopping_sessions table.
func Session(spec shared.Specification[*shopping.Session]) (clause.Expression, bool) {
	expr, _, ok := Translate(spec, sessionLeaf)
	return expr, ok
}

func sessionLeaf(spec shared.Specification[*shopping.Session]) (clause.Expression, bool) {
	switch s := spec.(type) {
	case shopping.ByUserSpecification:
		return clause.Eq{Column: clause.Column{Name: "user_id"}, Value: s.UserID.Value()}, true
	case shopping.ByStatusSpecification:
		return clause.Eq{Column: clause.Column{Name: "status"}, Value: string(s.Status)}, true
	case shopping.StartedBeforeSpecification:
		return clause.Lt{Column: clause.Column{Name: "started_at"}, Value: s.Time.UTC()}, true
	}
	return nil, false
}

func startOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
