package shopping

import (
	domain "pantry/domain/shopping"
	"pantry/domain/shared"
)

func toCreateParams(userID shared.UserID, req StartSessionRequest) (domain.CreateParams, error) {
	p := domain.CreateParams{UserID: userID}
	if req.DeviceType != nil && *req.DeviceType != "" {
		d, err := domain.ParseDeviceType(*req.DeviceType)
		if err != nil {
			return domain.CreateParams{}, err
		}
		p.DeviceType = &d
	}
	switch {
	case req.Latitude != nil && req.Longitude != nil:
		loc, err := domain.NewLocation(*req.Latitude, *req.Longitude, req.LocationName)
		if err != nil {
			return domain.CreateParams{}, err
		}
		p.Location = &loc
	case req.Latitude != nil || req.Longitude != nil:
		return domain.CreateParams{}, shared.NewInvalidFieldError("location", "緯度と経度は両方指定してください")
	}
	return p, nil
}

func toResponse(s *domain.Session) *SessionResponse {
	resp := &SessionResponse{
		ID:           s.ID().Value(),
		UserID:       s.UserID().Value(),
		Status:       string(s.Status()),
		StartedAt:    s.StartedAt(),
		CompletedAt:  s.CompletedAt(),
		DurationMs:   s.Duration().Milliseconds(),
		CheckedItems: make([]CheckedItemResponse, 0, s.CheckedItemsCount()),
		Version:      s.Version(),
	}
	if d := s.DeviceType(); d != nil {
		v := string(*d)
		resp.DeviceType = &v
	}
	if l := s.Location(); l != nil {
		resp.Location = &LocationResponse{Latitude: l.Latitude(), Longitude: l.Longitude(), Name: l.Name()}
	}
	for _, item := range s.CheckedItems() {
		ir := CheckedItemResponse{
			IngredientID:   item.IngredientID().Value(),
			IngredientName: item.IngredientName(),
			StockStatus:    string(item.StockStatus()),
			CheckedAt:      item.CheckedAt(),
		}
		if es := item.ExpiryStatus(); es != nil {
			v := string(*es)
			ir.ExpiryStatus = &v
		}
		resp.CheckedItems = append(resp.CheckedItems, ir)
	}
	return resp
}

func toResponses(sessions []*domain.Session) []*SessionResponse {
	out := make([]*SessionResponse, len(sessions))
	for i, s := range sessions {
		out[i] = toResponse(s)
	}
	return out
}
