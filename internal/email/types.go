package email

// Message представляет email сообщение
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// TemplateData представляет данные для шаблонов писем
type TemplateData map[string]interface{}
