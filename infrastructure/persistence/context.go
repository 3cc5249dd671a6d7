// Package persistence carries the active gorm transaction through a context
// so repositories join the unit of work that opened it.
package persistence

import (
	"context"

	"gorm.io/gorm"
)

type txCtxKey struct{}

// ContextWithTx binds tx to ctx. Repositories called with the returned
// context run their statements inside tx.
func ContextWithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txCtxKey{}, tx)
}

// TxFromContext returns the bound transaction, or nil outside a unit of work.
func TxFromContext(ctx context.Context) *gorm.DB {
	tx, _ := ctx.Value(txCtxKey{}).(*gorm.DB)
	return tx
}

// DB picks the bound transaction when there is one and falls back to db.
func DB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx := TxFromContext(ctx); tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
