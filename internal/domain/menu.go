package domain

// ItemID — идентификатор позиции меню в каталоге ресторанов.
type ItemID int64

// MenuItem описывает позицию меню, из которой строится строка корзины.
type MenuItem struct {
	ID           ItemID
	RestaurantID int64
	Name         string
	// PriceMinor — цена за единицу в минимальных денежных единицах.
	PriceMinor  int64
	Description string
}

// Restaurant — карточка ресторана вместе с меню.
type Restaurant struct {
	ID       int64
	Name     string
	Cuisine  string
	Location string
	Rating   float64
	Menu     []MenuItem
}

// FindItem ищет позицию меню по идентификатору.
func (r Restaurant) FindItem(id ItemID) (MenuItem, bool) {
	for _, item := range r.Menu {
		if item.ID == id {
			return item, true
		}
	}
	return MenuItem{}, false
}
