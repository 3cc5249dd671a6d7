package ingredient

import "time"

// CreateIngredientRequest is the input of CreateIngredient.
// Dates use the YYYY-MM-DD form; Price is a decimal string ("198.00").
type CreateIngredientRequest struct {
	Name          string   `json:"name" binding:"required"`
	CategoryID    string   `json:"category_id" binding:"required"`
	Quantity      float64  `json:"quantity" binding:"min=0"`
	UnitID        string   `json:"unit_id" binding:"required"`
	StorageType   string   `json:"storage_type" binding:"required"`
	StorageDetail string   `json:"storage_detail"`
	Threshold     *float64 `json:"threshold"`
	Price         *string  `json:"price"`
	BestBefore    *string  `json:"best_before"`
	UseBy         *string  `json:"use_by"`
	Memo          *string  `json:"memo"`
	PurchaseDate  *string  `json:"purchase_date"`
}

// UpdateIngredientRequest changes only the fields that are set. Stock fields
// are applied together. ClearThreshold removes the low-stock threshold and
// cannot be combined with Threshold.
type UpdateIngredientRequest struct {
	Name           *string  `json:"name"`
	CategoryID     *string  `json:"category_id"`
	Memo           *string  `json:"memo"`
	Quantity       *float64 `json:"quantity"`
	UnitID         *string  `json:"unit_id"`
	StorageType    *string  `json:"storage_type"`
	StorageDetail  *string  `json:"storage_detail"`
	Threshold      *float64 `json:"threshold"`
	ClearThreshold bool     `json:"clear_threshold"`
}

// UpdatePriceRequest clears the price when Price is nil.
type UpdatePriceRequest struct {
	Price *string `json:"price"`
}

// UpdateExpiryRequest clears the expiry info when both dates are nil.
type UpdateExpiryRequest struct {
	BestBefore *string `json:"best_before"`
	UseBy      *string `json:"use_by"`
}

type ConsumeRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// ListQuery filters ListIngredients. Zero values mean "no filter".
type ListQuery struct {
	CategoryID         string
	StorageType        string
	Expired            bool
	ExpiringWithinDays *int
	LowStock           bool
	OutOfStock         bool
}

type StockResponse struct {
	Quantity      float64  `json:"quantity"`
	UnitID        string   `json:"unit_id"`
	StorageType   string   `json:"storage_type"`
	StorageDetail string   `json:"storage_detail,omitempty"`
	Threshold     *float64 `json:"threshold,omitempty"`
	IsLowStock    bool     `json:"is_low_stock"`
	IsOutOfStock  bool     `json:"is_out_of_stock"`
}

type ExpiryResponse struct {
	BestBefore      *string `json:"best_before,omitempty"`
	UseBy           *string `json:"use_by,omitempty"`
	DaysUntilExpiry int     `json:"days_until_expiry"`
	IsExpired       bool    `json:"is_expired"`
	IsExpiringSoon  bool    `json:"is_expiring_soon"`
}

type IngredientResponse struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	Name         string          `json:"name"`
	CategoryID   string          `json:"category_id"`
	Stock        StockResponse   `json:"stock"`
	Price        *string         `json:"price,omitempty"`
	Expiry       *ExpiryResponse `json:"expiry,omitempty"`
	Memo         *string         `json:"memo,omitempty"`
	PurchaseDate string          `json:"purchase_date"`
	Version      int             `json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
