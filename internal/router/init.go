package router

import (
	"path"
	"path/filepath"

	"github.com/oksasatya/go-account-service/internal/container"
	handlers "github.com/oksasatya/go-account-service/internal/interface/http"
	"github.com/oksasatya/go-account-service/internal/interface/middleware"
	"github.com/oksasatya/go-account-service/internal/router/modules"
)

// InitModules builds the HTTP modules from c and adds them to the registry.
// This function should be called once during application startup.
func InitModules(r *Registry, c *container.Container) {
	cfg := c.Config

	accountHandler := handlers.NewAccountHandler(c.Service, c.Logger, cfg.MaxUploadBytes)
	auth := middleware.Auth(c.Service, c.Logger)
	r.Add(modules.NewAccountModule(accountHandler, auth))

	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(map[string]func() any{
			"mail_queue_pending":  func() any { return pendingMail(c) },
			"mail_dead_lettered": func() any { return deadLetteredMail(c) },
		}))
	}

	if cfg.AvatarBackend != "gcs" {
		urlPath := path.Join(cfg.StaticPrefix, cfg.AvatarPrefix)
		r.Engine.Static(urlPath, filepath.Join(cfg.UploadDir, filepath.FromSlash(cfg.AvatarPrefix)))
	}
}

func pendingMail(c *container.Container) int {
	if c.Infra.Mail == nil {
		return 0
	}
	return c.Infra.Mail.Pending()
}

func deadLetteredMail(c *container.Container) int64 {
	if c.Infra.Mail == nil {
		return 0
	}
	return c.Infra.Mail.DeadLettered()
}
