// Admin HTTP handlers.
//
// This file exposes the operator endpoints that are not about appointments:
// service status and dashboard numbers, runtime settings, the bot switch and
// customer sessions.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-booking-backend/internal/http/middleware"
)

//
// DTOs
//

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Status     string    `json:"status"      example:"online"`
	BotEnabled bool      `json:"bot_enabled" example:"true"`
	Time       time.Time `json:"time"`
}

// ToggleBotResponse reports the new bot switch value.
type ToggleBotResponse struct {
	BotEnabled bool `json:"bot_enabled" example:"false"`
}

//
// Handlers
//

// Status godoc
// @ID          getStatus
// @Summary     Service status
// @Tags        Admin
// @Produce     json
// @Success     200  {object}  handlers.StatusResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /status [get]
func (h *Handlers) Status(c *gin.Context) {
	enabled, err := h.d.Settings.BotEnabled(c.Request.Context())
	if err != nil {
		failErr(c, err, "")
		return
	}
	ok(c, http.StatusOK, StatusResponse{Status: "online", BotEnabled: enabled, Time: h.d.Clock.Now().UTC()})
}

// Stats godoc
// @ID          getStats
// @Summary     Dashboard numbers
// @Description Bot switch, business name, confirmed appointments overall and today, and turns logged today.
// @Tags        Admin
// @Produce     json
// @Success     200  {object}  services.Stats
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /stats [get]
func (h *Handlers) Stats(c *gin.Context) {
	st, err := h.d.Stats.Dashboard(c.Request.Context())
	if err != nil {
		failErr(c, err, "")
		return
	}
	ok(c, http.StatusOK, st)
}

// GetConfig godoc
// @ID          getConfig
// @Summary     Runtime settings
// @Description All settings with defaults applied. Secrets are masked.
// @Tags        Admin
// @Produce     json
// @Success     200  {object}  map[string]string
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /config [get]
func (h *Handlers) GetConfig(c *gin.Context) {
	kv, err := h.d.Settings.Public(c.Request.Context())
	if err != nil {
		failErr(c, err, "")
		return
	}
	ok(c, http.StatusOK, kv)
}

// UpdateConfig godoc
// @ID          updateConfig
// @Summary     Update runtime settings
// @Description Partial update: only the given keys change. Unknown keys or invalid values reject the whole request.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Param       body  body      map[string]string  true  "Settings to change"
// @Success     200   {object}  map[string]string
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /config [put]
func (h *Handlers) UpdateConfig(c *gin.Context) {
	var kv map[string]string
	if err := c.ShouldBindJSON(&kv); err != nil || len(kv) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body must be a non-empty JSON object of strings")
		return
	}
	out, err := h.d.Settings.Update(c.Request.Context(), kv)
	if err != nil {
		failErr(c, err, "")
		return
	}
	ok(c, http.StatusOK, out)
}

// ToggleBot godoc
// @ID          toggleBot
// @Summary     Switch the assistant on or off
// @Tags        Admin
// @Produce     json
// @Success     200  {object}  handlers.ToggleBotResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /bot/toggle [post]
func (h *Handlers) ToggleBot(c *gin.Context) {
	enabled, err := h.d.Settings.ToggleBot(c.Request.Context())
	if err != nil {
		failErr(c, err, "")
		return
	}
	middleware.LoggerFrom(c).Info().Bool("bot_enabled", enabled).Msg("bot toggled")
	ok(c, http.StatusOK, ToggleBotResponse{BotEnabled: enabled})
}

// GetSession godoc
// @ID          getSession
// @Summary     Customer session
// @Description Collected fields and recent turns. An idle session is reset on access.
// @Tags        Sessions
// @Produce     json
// @Param       customer  path      string  true  "Customer phone"
// @Success     200       {object}  services.Session
// @Failure     400       {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500       {object}  handlers.ErrorResponse  "Internal error"
// @Router      /sessions/{customer} [get]
func (h *Handlers) GetSession(c *gin.Context) {
	sess, err := h.d.Sessions.Load(c.Request.Context(), strings.TrimSpace(c.Param("customer")))
	if err != nil {
		failErr(c, err, "")
		return
	}
	ok(c, http.StatusOK, sess)
}

// ResetSession godoc
// @ID          resetSession
// @Summary     Reset a customer session
// @Description Clears collected fields and starts a fresh history window. Logged turns are kept.
// @Tags        Sessions
// @Param       customer  path  string  true  "Customer phone"
// @Success     204  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /sessions/{customer} [delete]
func (h *Handlers) ResetSession(c *gin.Context) {
	customer := strings.TrimSpace(c.Param("customer"))
	if customer == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "customer is required")
		return
	}
	if err := h.d.Sessions.Reset(c.Request.Context(), customer); err != nil {
		failErr(c, err, "")
		return
	}
	noContent(c)
}
