package httpx

import (
	"github.com/gin-gonic/gin"

	"github.com/you/verifybot/internal/http/handlers"
)

// BuildRouter assembles the web verification surface
func BuildRouter(vh *handlers.VerifyHandlers, templateGlob string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if templateGlob != "" {
		r.LoadHTMLGlob(templateGlob)
	}

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	r.GET("/verify/:userId/:token", vh.ShowPage)

	api := r.Group("/api")
	api.GET("/status/:userId/:token", vh.Status)
	api.POST("/recaptcha/verify", vh.VerifyRecaptcha)
	api.POST("/sms/send", vh.SendSMS)
	api.POST("/sms/verify", vh.VerifySMS)
	api.POST("/verify/complete", vh.Complete)

	return r
}
