// Package web provides API routes for the web server.
package web

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/archive"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/PancyStudios/PancyModGo/pkg/modlog"
	"github.com/PancyStudios/PancyModGo/pkg/punishment"
	"github.com/PancyStudios/PancyModGo/pkg/sysinfo"
	"github.com/gin-gonic/gin"
)

// Remover lifts a punishment. *moderation.Engine implements it.
type Remover interface {
	Remove(ctx context.Context, req moderation.RemoveRequest) (*punishment.Punishment, error)
}

// ModlogArchive lists archived moderation log events.
type ModlogArchive interface {
	ListForGuild(ctx context.Context, guildID string, limit int64) ([]modlog.Event, error)
}

// API holds what the routes read and mutate. Archive may be nil.
type API struct {
	Punishments punishment.Repository
	Remover     Remover
	Archive     ModlogArchive
	// Token guards mutating routes. Empty disables them.
	Token string

	DBStatus   func() (string, bool)
	BotReady   func() bool
	GuildCount func() int
}

// SetupAPIRoutes sets up the API routes
func SetupAPIRoutes(s *Server, api *API) {
	r := s.Group("/api")
	{
		r.GET("/health", healthHandler)
		r.GET("/status", api.statusHandler)

		guilds := r.Group("/guilds/:guild")
		guilds.GET("/punishments/:id", api.getPunishment)
		guilds.GET("/users/:user/punishments", api.listUserPunishments)
		guilds.GET("/modlog", api.listModlog)
		guilds.DELETE("/punishments/:id", api.requireToken(), api.removePunishment)
	}
}

// healthHandler returns a simple health check response
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "PancyMod Go is running",
	})
}

// statusHandler returns the bot, database and host status
func (api *API) statusHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	dbStatus, dbOnline := "", false
	if api.DBStatus != nil {
		dbStatus, dbOnline = api.DBStatus()
	}
	botOnline := api.BotReady != nil && api.BotReady()
	guilds := 0
	if api.GuildCount != nil {
		guilds = api.GuildCount()
	}
	system, _ := sysinfo.Collect(ctx)

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"database": gin.H{
			"status":   dbStatus,
			"isOnline": dbOnline,
		},
		"bot": gin.H{
			"isOnline": botOnline,
			"guilds":   guilds,
		},
		"system": system,
	})
}

func apiError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":   http.StatusText(status),
		"message": msg,
		"status":  status,
	})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		apiError(c, http.StatusBadRequest, "El id de la sanción no es válido.")
		return 0, false
	}
	return id, true
}

func (api *API) getPunishment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, err := api.Punishments.GetByID(c.Request.Context(), c.Param("guild"), id)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "No se pudo leer la sanción.")
		return
	}
	if p == nil {
		apiError(c, http.StatusNotFound, "La sanción no existe.")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (api *API) listUserPunishments(c *gin.Context) {
	var filter *punishment.Type
	if raw := c.Query("type"); raw != "" {
		t, err := punishment.ParseType(raw)
		if err != nil {
			apiError(c, http.StatusBadRequest, "Tipo de sanción no válido.")
			return
		}
		filter = &t
	}

	records, err := api.Punishments.ListForUser(c.Request.Context(), c.Param("guild"), c.Param("user"), filter)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "No se pudo leer el historial.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"punishments": records, "count": len(records)})
}

func (api *API) listModlog(c *gin.Context) {
	if api.Archive == nil {
		apiError(c, http.StatusServiceUnavailable, "El archivo de moderación está deshabilitado.")
		return
	}
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)

	events, err := api.Archive.ListForGuild(c.Request.Context(), c.Param("guild"), limit)
	if errors.Is(err, archive.ErrNotConnected) {
		apiError(c, http.StatusServiceUnavailable, "El archivo de moderación no está conectado.")
		return
	}
	if err != nil {
		apiError(c, http.StatusInternalServerError, "No se pudo leer el archivo de moderación.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

// requireToken checks the bearer token of mutating routes.
func (api *API) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if api.Token == "" {
			apiError(c, http.StatusForbidden, "La API de escritura está deshabilitada.")
			return
		}
		given := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(given), []byte(api.Token)) != 1 {
			apiError(c, http.StatusUnauthorized, "Token inválido.")
			return
		}
		c.Next()
	}
}

type removeBody struct {
	Reason string `json:"reason"`
}

func (api *API) removePunishment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var body removeBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			apiError(c, http.StatusBadRequest, "Cuerpo JSON no válido.")
			return
		}
	}

	removed, err := api.Remover.Remove(c.Request.Context(), moderation.RemoveRequest{
		GuildID:      c.Param("guild"),
		PunishmentID: id,
		Reason:       body.Reason,
	})

	var enf *punishment.EnforcementError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, removed)
	case errors.Is(err, punishment.ErrNotFound):
		apiError(c, http.StatusNotFound, "La sanción no existe.")
	case errors.Is(err, punishment.ErrNotActive):
		apiError(c, http.StatusConflict, "La sanción no está activa.")
	case errors.As(err, &enf):
		apiError(c, http.StatusBadGateway, "Discord rechazó la acción.")
	default:
		apiError(c, http.StatusInternalServerError, "No se pudo quitar la sanción.")
	}
}
