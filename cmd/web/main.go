// @title           Binkeyit API
// @version         1.0
// @description     API интернет-магазина Binkeyit: учетные записи покупателей.
// @contact.name    Binkeyit
// @contact.email   support@binkeyit.com
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:8000
// @BasePath        /

package main

import (
	"github.com/joho/godotenv"

	"binkeyit_backend/internal/app"
)

func main() {
	// .env опционален, в проде переменные приходят из окружения
	_ = godotenv.Load()

	app.Run()
}
