package main

import (
	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/granrifa/rifa-api/cmd/app"
)

// @contact.name   Soporte Gran Rifa
// @contact.email  soporte@granrifa.mx
//
// @license.name  MIT
//
// @securityDefinitions.apikey SessionAuth
// @in header
// @name Authorization
// @description Session token issued by /auth/login (also accepted via the auth_session cookie)
func main() {
	if err := app.Start(); err != nil {
		panic(err)
	}
}
