package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
)

// Static — каталог в памяти процесса для локального запуска и тестов.
type Static struct {
	mu          sync.RWMutex
	restaurants map[int64]domain.Restaurant
}

// NewStatic создаёт каталог из списка ресторанов.
func NewStatic(restaurants ...domain.Restaurant) *Static {
	s := &Static{restaurants: make(map[int64]domain.Restaurant, len(restaurants))}
	for _, r := range restaurants {
		s.Put(r)
	}
	return s
}

// Put добавляет или заменяет ресторан.
func (s *Static) Put(r domain.Restaurant) {
	menu := make([]domain.MenuItem, len(r.Menu))
	for i, item := range r.Menu {
		item.RestaurantID = r.ID
		menu[i] = item
	}
	r.Menu = menu

	s.mu.Lock()
	s.restaurants[r.ID] = r
	s.mu.Unlock()
}

// Restaurant возвращает ресторан по id.
func (s *Static) Restaurant(_ context.Context, id int64) (domain.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.restaurants[id]
	if !ok {
		return domain.Restaurant{}, fmt.Errorf("%w: %d", domain.ErrRestaurantNotFound, id)
	}
	return r, nil
}

// MenuItem возвращает позицию меню ресторана.
func (s *Static) MenuItem(ctx context.Context, restaurantID int64, itemID domain.ItemID) (domain.MenuItem, error) {
	r, err := s.Restaurant(ctx, restaurantID)
	if err != nil {
		return domain.MenuItem{}, err
	}
	item, ok := r.FindItem(itemID)
	if !ok {
		return domain.MenuItem{}, fmt.Errorf("%w: %d in restaurant %d", domain.ErrMenuItemNotFound, itemID, restaurantID)
	}
	return item, nil
}

// Demo возвращает небольшой каталог для локального запуска.
func Demo() *Static {
	return NewStatic(
		domain.Restaurant{
			ID: 1, Name: "Spice Route", Cuisine: "Indian", Location: "MG Road", Rating: 4.5,
			Menu: []domain.MenuItem{
				{ID: 101, Name: "Butter Chicken", PriceMinor: 32000, Description: "Creamy tomato gravy"},
				{ID: 102, Name: "Garlic Naan", PriceMinor: 6000},
				{ID: 103, Name: "Mango Lassi", PriceMinor: 9950, Description: "Sweet yoghurt drink"},
			},
		},
		domain.Restaurant{
			ID: 2, Name: "Napoli Corner", Cuisine: "Italian", Location: "Park Street", Rating: 4.2,
			Menu: []domain.MenuItem{
				{ID: 201, Name: "Margherita", PriceMinor: 25000},
				{ID: 202, Name: "Tiramisu", PriceMinor: 18000},
			},
		},
	)
}

var _ domain.MenuCatalog = (*Static)(nil)
