package email

import "context"

// Provider определяет интерфейс для отправки email
type Provider interface {
	// Send отправляет готовое сообщение
	Send(ctx context.Context, msg *Message) error

	// SendVerification отправляет письмо верификации со ссылкой
	SendVerification(ctx context.Context, to, name, verifyURL string) error

	// SendPasswordResetOTP отправляет одноразовый код сброса пароля
	SendPasswordResetOTP(ctx context.Context, to, name, otp string) error
}

// TemplateRenderer определяет интерфейс для рендеринга шаблонов
type TemplateRenderer interface {
	// Render рендерит шаблон с данными
	Render(templateName string, data TemplateData) (string, error)

	// AddTemplate добавляет шаблон в рендерер
	AddTemplate(name string, template string) error

	// LoadTemplates загружает шаблоны из директории
	LoadTemplates(dirPath string) error
}
