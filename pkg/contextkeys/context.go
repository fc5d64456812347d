package contextkeys

// Используем кастомный тип, чтобы избежать коллизий
type contextKey string

const (
	// UserIDKey - ключ, по которому middleware кладет ID
	// аутентифицированного пользователя в gin.Context
	UserIDKey = contextKey("userID")

	// RoleKey - ключ роли аутентифицированного пользователя
	RoleKey = contextKey("role")

	// UserKey - ключ, по которому middleware кладет запись
	// пользователя, найденную по субъекту токена
	UserKey = contextKey("user")
)
