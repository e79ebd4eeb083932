package bootstrap

import "github.com/gin-gonic/gin"

// SetGinMode maps the APP_ENV value onto gin's global mode. Anything
// other than production keeps the default debug mode.
func SetGinMode(env string) {
	switch env {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}
}
