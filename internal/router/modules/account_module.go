package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-account-service/internal/interface/http"
)

// AccountModule wires the account lifecycle routes.
// Public: POST /user/register, GET /user/activate/:token, POST /user/login
// Protected: GET /user/logout, GET /user/current, PATCH /user/update/:id, GET /user/search
type AccountModule struct {
	Handler *handlers.AccountHandler
	Auth    gin.HandlerFunc
}

func NewAccountModule(h *handlers.AccountHandler, auth gin.HandlerFunc) *AccountModule {
	return &AccountModule{Handler: h, Auth: auth}
}

func (m *AccountModule) Name() string { return "account" }

func (m *AccountModule) Register(rg *gin.RouterGroup) {
	user := rg.Group("/user")
	user.POST("/register", m.Handler.Register)
	user.GET("/activate/:token", m.Handler.Activate)
	user.POST("/login", m.Handler.Login)

	auth := user.Group("/")
	auth.Use(m.Auth)
	{
		auth.GET("/logout", m.Handler.Logout)
		auth.GET("/current", m.Handler.Current)
		auth.PATCH("/update/:id", m.Handler.Update)
		auth.GET("/search", m.Handler.Search)
	}
}
