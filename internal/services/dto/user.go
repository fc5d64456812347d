package dto

// UpdateUserRequest - обновление профиля. Все поля опциональны,
// непереданные остаются без изменений.
type UpdateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=100"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Mobile   *string `json:"mobile" validate:"omitempty,mobile"`
	Password *string `json:"password" validate:"omitempty,min=8"`
}
