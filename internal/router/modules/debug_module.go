package modules

import (
	"expvar"

	"github.com/gin-gonic/gin"
)

type DebugModule struct {
	vars map[string]func() any
}

// NewDebugModule publishes vars through expvar. Names already published are left as they are.
func NewDebugModule(vars map[string]func() any) *DebugModule {
	for name, fn := range vars {
		if expvar.Get(name) == nil {
			expvar.Publish(name, expvar.Func(fn))
		}
	}
	return &DebugModule{vars: vars}
}

func (m *DebugModule) Name() string { return "debug" }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	rg.GET("/debug/vars", gin.WrapH(expvar.Handler()))
}
