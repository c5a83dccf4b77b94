package route

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gingallery/controller"
	"gingallery/middlewares"
)

// Register wires every endpoint. The gallery routes are public; only the
// account "me" endpoint sits behind the JWT middleware.
func Register(router *gin.Engine, images *controller.ImageController, users *controller.UserController, jwtSecret string) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/images", images.ListImages)
	router.POST("/images/upload", images.UploadImage)
	router.GET("/images/:id", images.GetImage)
	router.GET("/images/:id/asset", images.GetImageAsset)
	router.PUT("/images/:id", images.UpdateImage)
	router.DELETE("/images/:id", images.DeleteImage)

	router.GET("/tags", images.GetTags)
	router.GET("/gallery/stats", images.GetStats)
	router.GET("/gallery/sync", images.SyncGallery)

	auth := router.Group("/auth")
	auth.POST("/register", users.Register)
	auth.POST("/login", users.Login)
	auth.GET("/me", middlewares.JWT(jwtSecret), users.Me)
}
