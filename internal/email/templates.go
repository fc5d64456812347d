package email

import (
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Имена встроенных шаблонов
const (
	TemplateVerification     = "verification"
	TemplatePasswordResetOTP = "password_reset_otp"
)

// TemplateManager реализует TemplateRenderer для управления шаблонами email
type TemplateManager struct {
	templates map[string]*template.Template
	mutex     sync.RWMutex
}

// NewTemplateManager создает менеджер со встроенными шаблонами.
// Шаблоны из директории (LoadTemplates) перекрывают встроенные.
func NewTemplateManager() (*TemplateManager, error) {
	tm := &TemplateManager{
		templates: make(map[string]*template.Template),
	}
	for name, body := range builtinTemplates {
		if err := tm.AddTemplate(name, body); err != nil {
			return nil, fmt.Errorf("failed to register builtin template %s: %w", name, err)
		}
	}
	return tm, nil
}

// Render рендерит шаблон с данными
func (tm *TemplateManager) Render(templateName string, data TemplateData) (string, error) {
	tm.mutex.RLock()
	tpl, exists := tm.templates[templateName]
	tm.mutex.RUnlock()

	if !exists {
		return "", fmt.Errorf("template not found: %s", templateName)
	}

	var buf strings.Builder
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// AddTemplate добавляет шаблон в менеджер
func (tm *TemplateManager) AddTemplate(name string, templateStr string) error {
	tpl, err := template.New(name).Parse(templateStr)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	tm.mutex.Lock()
	tm.templates[name] = tpl
	tm.mutex.Unlock()

	return nil
}

// LoadTemplates загружает шаблоны из директории
func (tm *TemplateManager) LoadTemplates(dirPath string) error {
	return filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read template file %s: %w", path, err)
		}

		templateName := strings.TrimSuffix(filepath.Base(path), ".html")
		if err := tm.AddTemplate(templateName, string(content)); err != nil {
			return fmt.Errorf("failed to add template %s: %w", templateName, err)
		}

		return nil
	})
}

var builtinTemplates = map[string]string{
	TemplateVerification: `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <p>Dear {{.Name}},</p>
  <p>Thank you for registering at Binkeyit.</p>
  <p>
    <a href="{{.VerifyURL}}"
       style="display:inline-block;padding:12px 24px;background:#071263;color:#fff;text-decoration:none;border-radius:4px;">
      Verify Email
    </a>
  </p>
  <p>If you did not create an account, you can ignore this message.</p>
</body>
</html>`,

	TemplatePasswordResetOTP: `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <p>Dear {{.Name}},</p>
  <p>You requested a password reset. Use the following OTP code:</p>
  <p style="font-size:28px;font-weight:bold;letter-spacing:4px;background:#ffeb3b;padding:16px;text-align:center;">
    {{.OTP}}
  </p>
  <p>This code is valid for 15 minutes. Enter it on the Binkeyit website to continue.</p>
</body>
</html>`,
}
