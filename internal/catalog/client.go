// Package catalog предоставляет карточки ресторанов и позиций меню.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
	"github.com/vladislavdragonenkov/foodhub/internal/version"
)

const (
	defaultHTTPTimeout = 5 * time.Second
	maxErrorBody       = 4 << 10
)

type menuItemDTO struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       json.RawMessage `json:"price"`
	Description string          `json:"description"`
}

type restaurantDTO struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	Cuisine   string        `json:"cuisine"`
	Location  string        `json:"location"`
	Rating    float64       `json:"rating"`
	MenuItems []menuItemDTO `json:"MenuItems"`
}

// HTTPClient читает каталог из сервиса ресторанов (GET /api/restaurants/{id}).
type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	logger  *log.Entry
}

// NewHTTPClient создаёт клиент каталога. httpClient может быть nil.
func NewHTTPClient(baseURL string, httpClient *http.Client, logger *log.Entry) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid catalog base url %q", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if logger == nil {
		logger = log.WithField("component", "catalog-client")
	}
	return &HTTPClient{baseURL: u, http: httpClient, logger: logger}, nil
}

// Restaurant загружает карточку ресторана вместе с меню.
func (c *HTTPClient) Restaurant(ctx context.Context, id int64) (domain.Restaurant, error) {
	u := c.baseURL.JoinPath("api", "restaurants", strconv.FormatInt(id, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.Restaurant{}, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Restaurant{}, fmt.Errorf("fetch restaurant %d: %w", id, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.Restaurant{}, fmt.Errorf("%w: %d", domain.ErrRestaurantNotFound, id)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return domain.Restaurant{}, fmt.Errorf("fetch restaurant %d: status %d: %s", id, resp.StatusCode, body)
	}

	var dto restaurantDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return domain.Restaurant{}, fmt.Errorf("decode restaurant %d: %w", id, err)
	}
	return c.toDomain(dto), nil
}

// MenuItem ищет позицию в меню ресторана.
func (c *HTTPClient) MenuItem(ctx context.Context, restaurantID int64, itemID domain.ItemID) (domain.MenuItem, error) {
	restaurant, err := c.Restaurant(ctx, restaurantID)
	if err != nil {
		return domain.MenuItem{}, err
	}
	item, ok := restaurant.FindItem(itemID)
	if !ok {
		return domain.MenuItem{}, fmt.Errorf("%w: %d in restaurant %d", domain.ErrMenuItemNotFound, itemID, restaurantID)
	}
	if item.PriceMinor < 0 {
		return domain.MenuItem{}, fmt.Errorf("%w: item %d", domain.ErrInvalidPrice, itemID)
	}
	return item, nil
}

// toDomain переводит ответ каталога в доменную модель. Позиции с некорректной ценой
// остаются в меню с PriceMinor = -1, чтобы их нельзя было добавить в корзину.
func (c *HTTPClient) toDomain(dto restaurantDTO) domain.Restaurant {
	restaurant := domain.Restaurant{
		ID:       dto.ID,
		Name:     dto.Name,
		Cuisine:  dto.Cuisine,
		Location: dto.Location,
		Rating:   dto.Rating,
		Menu:     make([]domain.MenuItem, 0, len(dto.MenuItems)),
	}

	for _, item := range dto.MenuItems {
		price, err := ParsePriceMinor(string(item.Price))
		if err != nil {
			c.logger.WithError(err).WithFields(log.Fields{
				"restaurant_id": dto.ID,
				"menu_item_id":  item.ID,
			}).Warn("menu item has invalid price")
			price = -1
		}
		restaurant.Menu = append(restaurant.Menu, domain.MenuItem{
			ID:           domain.ItemID(item.ID),
			RestaurantID: dto.ID,
			Name:         item.Name,
			PriceMinor:   price,
			Description:  item.Description,
		})
	}
	return restaurant
}

// IsNotFound сообщает, что ресторан или позиция меню не найдены.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrRestaurantNotFound) || errors.Is(err, domain.ErrMenuItemNotFound)
}

var _ domain.MenuCatalog = (*HTTPClient)(nil)
