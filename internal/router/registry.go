package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

type Registry struct {
	Engine      *gin.Engine
	API         *gin.RouterGroup
	middlewares []gin.HandlerFunc
	modules     []Module
}

// NewRegistry mounts every module under basePath, e.g. "/api".
func NewRegistry(engine *gin.Engine, basePath string) *Registry {
	api := engine.Group(basePath)
	return &Registry{Engine: engine, API: api}
}

func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

// Add queues mod for registration. Adding two modules with the same name panics.
func (r *Registry) Add(mod Module) {
	for _, m := range r.modules {
		if m.Name() == mod.Name() {
			panic(fmt.Sprintf("router: module %q added twice", mod.Name()))
		}
	}
	r.modules = append(r.modules, mod)
}

// Modules lists the names of the added modules in registration order.
func (r *Registry) Modules() []string {
	names := make([]string, 0, len(r.modules))
	for _, m := range r.modules {
		names = append(names, m.Name())
	}
	return names
}

func (r *Registry) RegisterAll() {
	if len(r.middlewares) > 0 {
		r.API.Use(r.middlewares...)
	}
	for _, m := range r.modules {
		m.Register(r.API)
	}
}
