package handlers

import (
	"errors"
	"net/http"

	"cosynight_bridge/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK          = "ok"
	statusZonesSet    = "zones_set"
	statusDurationSet = "duration_set"
	statusStopped     = "stopped"

	errListBlankets    = "failed to list blankets"
	errGetStatus       = "failed to load status"
	errCommandFailed   = "command failed"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// commandStatusCode maps a command error to an HTTP status: validation
// and missing-snapshot problems are the caller's fault, anything else is
// an upstream failure.
func commandStatusCode(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidIntensity),
		errors.Is(err, service.ErrInvalidDuration),
		errors.Is(err, service.ErrNoSnapshot):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// Respond with a status and include the device's snapshot if available
// (best-effort; right after a command it may still show pre-command
// values until the next poll lands).
func (h *Handler) respondWithStatusAndSnapshot(c *gin.Context, deviceID, status string, extra gin.H) {
	ctx := c.Request.Context()
	resp := gin.H{"status": status}
	for k, v := range extra {
		resp[k] = v
	}
	st, err := h.services.Monitoring.GetStatus(ctx, deviceID)
	if err == nil {
		resp["state"] = st
	}
	c.JSON(http.StatusOK, resp)
}

// Request DTO for setting zone intensities.
type zonesRequest struct {
	BodySetting *int `json:"body_setting" binding:"required"` // 0..9
	FeetSetting *int `json:"feet_setting" binding:"required"` // 0..9
}

// SetZonesRequest is an exported model for Swagger docs of the setZones payload.
type SetZonesRequest struct {
	// Body zone intensity, 0-9 (0 = off)
	BodySetting int `json:"body_setting" example:"3"`
	// Feet zone intensity, 0-9 (0 = off)
	FeetSetting int `json:"feet_setting" example:"5"`
}

// Request DTO for setting the timer duration.
type durationRequest struct {
	Hours *float64 `json:"hours" binding:"required"` // 0.5..12 in 0.5 steps
}

// SetDurationRequest is an exported model for Swagger docs of the setDuration payload.
type SetDurationRequest struct {
	// Timer duration in hours, 0.5-12 in 0.5 steps
	Hours float64 `json:"hours" example:"1.5"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      List blankets
// @Description  Latest snapshot of every known blanket.
// @Tags         blankets
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, blankets"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/blankets [get]
// @Security     BearerAuth
func (h *Handler) listBlankets(c *gin.Context) {
	ctx := c.Request.Context()
	statuses, err := h.services.Monitoring.ListStatuses(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListBlankets, "blankets_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    len(statuses),
		"blankets": statuses,
	})
}

// @Summary      Get blanket status
// @Description  Zones, remaining time and staleness of one blanket.
// @Tags         blankets
// @Produce      json
// @Param        id   path      string  true  "Device ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/blankets/{id}/status [get]
// @Security     BearerAuth
func (h *Handler) getBlanketStatus(c *gin.Context) {
	ctx := c.Request.Context()
	deviceID := c.Param("id")

	st, err := h.services.Monitoring.GetStatus(ctx, deviceID)
	if err != nil {
		if errors.Is(err, service.ErrUnknownDevice) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errGetStatus, "blanket_get_status_failed", err, "device", deviceID)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Set zone intensities
// @Description  Sets both heating zones (0-9) using the stored duration preference.
// @Tags         blankets
// @Accept       json
// @Produce      json
// @Param        id    path   string          true  "Device ID"
// @Param        body  body   SetZonesRequest  true  "Zones payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/blankets/{id}/zones [put]
// @Security     BearerAuth
func (h *Handler) setZones(c *gin.Context) {
	var req zonesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	ctx := c.Request.Context()
	deviceID := c.Param("id")

	if err := h.services.Blanket.SetZones(ctx, deviceID, *req.BodySetting, *req.FeetSetting); err != nil {
		if h.log != nil {
			h.log.Errorw("blanket_set_zones_failed", "err", err, "device", deviceID)
		}
		c.JSON(commandStatusCode(err), gin.H{"error": err.Error()})
		return
	}
	h.respondWithStatusAndSnapshot(c, deviceID, statusZonesSet, gin.H{
		"body_setting": *req.BodySetting,
		"feet_setting": *req.FeetSetting,
	})
}

// @Summary      Set timer duration
// @Description  Stores the duration preference and applies it with the current zone settings.
// @Tags         blankets
// @Accept       json
// @Produce      json
// @Param        id    path   string             true  "Device ID"
// @Param        body  body   SetDurationRequest  true  "Duration payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/blankets/{id}/duration [put]
// @Security     BearerAuth
func (h *Handler) setDuration(c *gin.Context) {
	var req durationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	ctx := c.Request.Context()
	deviceID := c.Param("id")

	if err := h.services.Blanket.SetDuration(ctx, deviceID, *req.Hours); err != nil {
		if h.log != nil {
			h.log.Errorw("blanket_set_duration_failed", "err", err, "device", deviceID)
		}
		c.JSON(commandStatusCode(err), gin.H{"error": err.Error()})
		return
	}
	h.respondWithStatusAndSnapshot(c, deviceID, statusDurationSet, gin.H{"hours": *req.Hours})
}

// @Summary      Stop blanket
// @Description  Turns both zones off.
// @Tags         blankets
// @Produce      json
// @Param        id   path      string  true  "Device ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/blankets/{id}/stop [post]
// @Security     BearerAuth
func (h *Handler) stopBlanket(c *gin.Context) {
	ctx := c.Request.Context()
	deviceID := c.Param("id")

	if err := h.services.Blanket.Stop(ctx, deviceID); err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errCommandFailed, "blanket_stop_failed", err, "device", deviceID)
		return
	}
	h.respondWithStatusAndSnapshot(c, deviceID, statusStopped, gin.H{})
}
