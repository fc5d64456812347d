package validator

import (
	"log"
	"regexp"

	"github.com/go-playground/validator/v10"

	"binkeyit_backend/internal/models"
)

// E.164 с необязательным плюсом, 7-15 цифр
var mobileRe = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// registerCustomRules регистрирует кастомные правила валидации.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// Ошибка регистрации правила - ошибка времени запуска,
			// приложение не должно стартовать
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("mobile", validateMobile)
	mustRegister("is-user-role", validateUserRole)
	mustRegister("is-user-status", validateUserStatus)
}

func validateMobile(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // пустые проверяет 'required'
	}
	return mobileRe.MatchString(value)
}

func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.UserRole(value).Valid()
}

func validateUserStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.UserStatus(value).Valid()
}
