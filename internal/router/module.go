package router

import "github.com/gin-gonic/gin"

// Module is a feature module mounted under the registry's base path.
// Name must be unique within a registry.
type Module interface {
	Name() string
	Register(rg *gin.RouterGroup)
}
