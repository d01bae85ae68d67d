package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	cf "neohub_controller"

	"github.com/gin-gonic/gin"
)

// CommandRequest is the body of POST /api/v1/system. id may be a JSON
// number or string; it is forwarded as written.
type CommandRequest struct {
	Cmd string          `json:"cmd" binding:"required" example:"GET_LIVE_DATA"`
	ID  json.RawMessage `json:"id,omitempty" swaggertype:"string" example:"0"`
}

// commandValue renders the raw id the way the hub expects it inside the
// command literal: strings unquoted, numbers and lists verbatim.
func commandValue(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err == nil {
			return str
		}
	}
	return s
}

// @Summary      Send a hub command
// @Tags         hub
// @Accept       json
// @Produce      json
// @Param        body  body      CommandRequest  true  "command"
// @Success      200   {object}  map[string]string  "response"
// @Failure      400   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Failure      504   {object}  map[string]string
// @Router       /api/v1/system [post]
// @Security     BearerAuth
func (h *Handler) postSystem(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	h.sendCommand(c, cf.Command{Name: req.Cmd, Value: commandValue(req.ID)})
}

// @Summary      Send a hub command (path form)
// @Tags         hub
// @Produce      json
// @Param        cmd  path  string  true  "command name"  example(GET_LIVE_DATA)
// @Param        id   path  string  true  "command value"  example(0)
// @Success      200  {object}  map[string]string  "response"
// @Router       /api/v1/system/{cmd}/{id} [get]
// @Security     BearerAuth
func (h *Handler) getSystem(c *gin.Context) {
	h.sendCommand(c, cf.Command{Name: c.Param("cmd"), Value: c.Param("id")})
}

func (h *Handler) sendCommand(c *gin.Context, cmd cf.Command) {
	reply, err := h.services.Hub.Send(c.Request.Context(), cmd)
	if err != nil {
		h.logAndJSONError(c, "system_command_failed", err, "cmd", cmd.Name)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": reply})
}
