package service

import (
	"strings"

	"github.com/Freeeeeet/bookit/internal/model"
)

var defaultPromoCodes = map[string]model.Discount{
	"SAVE10": {Type: model.DiscountPercentage, Value: 10},
	"FLAT50": {Type: model.DiscountFlat, Value: 50},
}

// PromoService проверка промокодов по статической таблице
type PromoService struct {
	codes map[string]model.Discount
}

func NewPromoService() *PromoService {
	return &PromoService{codes: defaultPromoCodes}
}

// Validate возвращает скидку для кода или ErrPromoNotFound
func (s *PromoService) Validate(code string) (model.Discount, error) {
	discount, ok := s.codes[strings.TrimSpace(code)]
	if !ok {
		return model.Discount{}, ErrPromoNotFound
	}
	return discount, nil
}
