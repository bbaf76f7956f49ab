package domain

// Identity описывает аутентифицированного пользователя, от имени которого оформляется заказ.
type Identity struct {
	UserID string
	Name   string
	// Token пробрасывается во внешний сервис заказов как есть, может быть пустым.
	Token string
}
