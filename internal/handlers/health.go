package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type healthResponse struct {
	Status       string            `json:"status"`
	Backend      string            `json:"backend"`
	Dependencies map[string]string `json:"dependencies"`
	Environment  string            `json:"environment"`
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	deps := make(map[string]string, len(h.deps))
	for _, dep := range h.deps {
		if dep.Ping == nil {
			deps[dep.Name] = "disabled"
			continue
		}
		if err := dep.Ping(ctx); err != nil {
			deps[dep.Name] = "error"
			h.log.Error().Err(err).Str("dependency", dep.Name).Msg("health ping failed")
			continue
		}
		deps[dep.Name] = "ok"
	}

	c.JSON(http.StatusOK, healthResponse{
		Status:       "ok",
		Backend:      h.backend,
		Dependencies: deps,
		Environment:  h.cfg.Environment,
	})
}
