package shopping

import "time"

// StartSessionRequest Latitude and Longitude must be given together.
type StartSessionRequest struct {
	DeviceType   *string  `json:"device_type"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	LocationName string   `json:"location_name"`
}

type CheckIngredientRequest struct {
	IngredientID string `json:"ingredient_id" binding:"required"`
}

type AbandonSessionRequest struct {
	Reason string `json:"reason"`
}

type LocationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
}

type CheckedItemResponse struct {
	IngredientID   string    `json:"ingredient_id"`
	IngredientName string    `json:"ingredient_name"`
	StockStatus    string    `json:"stock_status"`
	ExpiryStatus   *string   `json:"expiry_status,omitempty"`
	CheckedAt      time.Time `json:"checked_at"`
}

type SessionResponse struct {
	ID           string                `json:"id"`
	UserID       string                `json:"user_id"`
	Status       string                `json:"status"`
	StartedAt    time.Time             `json:"started_at"`
	CompletedAt  *time.Time            `json:"completed_at,omitempty"`
	DurationMs   int64                 `json:"duration_ms"`
	DeviceType   *string               `json:"device_type,omitempty"`
	Location     *LocationResponse     `json:"location,omitempty"`
	CheckedItems []CheckedItemResponse `json:"checked_items"`
	Version      int                   `json:"version"`
}
