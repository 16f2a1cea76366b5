package http

import (
	"net/http"

	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/app/orch"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
	"github.com/gin-gonic/gin"
)

type handlers struct {
	orch *orch.Orchestrator
}

type sessionRequest struct {
	Title string `json:"title"`
}

type createRoomRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

type endRoomRequest struct {
	RecordingURL string `json:"recordingUrl"`
}

type toggleRequest struct {
	Value *bool `json:"value" binding:"required"`
}

func (h *handlers) register(api *gin.RouterGroup) {
	api.PUT("/sessions/:sessionId", h.putSession)
	api.GET("/sessions/:sessionId", h.sessionSnapshot)

	api.GET("/rooms", h.listRooms)
	api.POST("/rooms", h.createRoom)
	api.GET("/rooms/:roomId", h.roomSnapshot)
	api.DELETE("/rooms/:roomId", h.endRoom)
	api.PUT("/rooms/join/:sessionId", h.join)

	api.PATCH("/sessions/:sessionId/leave", h.leave)
	api.PATCH("/sessions/:sessionId/mic", h.toggle(orch.ToggleMic))
	api.PATCH("/sessions/:sessionId/camera", h.toggle(orch.ToggleCamera))
	api.PATCH("/sessions/:sessionId/presenting", h.toggle(orch.TogglePresenting))

	api.PATCH("/sessions/:sessionId/attendees/:attendeeId/kick", h.kick)
	api.PATCH("/sessions/:sessionId/attendees/:attendeeId/approve", h.approve)
	api.PUT("/sessions/:sessionId/attendees/:attendeeId/cohost", h.cohost(true))
	api.DELETE("/sessions/:sessionId/attendees/:attendeeId/cohost", h.cohost(false))

	api.POST("/sessions/:sessionId/recording", h.startRecording)
	api.DELETE("/sessions/:sessionId/recording", h.stopRecording)
	api.PATCH("/sessions/:sessionId/recording/consent", h.consentRecording)

	api.PATCH("/sessions/:sessionId/close", h.setClosed(true))
	api.PATCH("/sessions/:sessionId/reopen", h.setClosed(false))
}

// PUT /api/sessions/:sessionId seeds the session document; the caller becomes its host.
func (h *handlers) putSession(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	var req sessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, domain.ErrBadPayload)
			return
		}
	}
	s, err := h.orch.PutSession(c.Request.Context(), domain.SessionID(c.Param("sessionId")), uid, req.Title)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handlers) sessionSnapshot(c *gin.Context) {
	snap, err := h.orch.SessionSnapshot(domain.SessionID(c.Param("sessionId")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GET /api/rooms lists live rooms.
func (h *handlers) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.orch.ListRooms()})
}

// POST /api/rooms opens (or returns) the live room of a session.
func (h *handlers) createRoom(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.ErrBadPayload)
		return
	}
	snap, created, err := h.orch.CreateRoom(c.Request.Context(), domain.SessionID(req.SessionID), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, snap)
}

func (h *handlers) roomSnapshot(c *gin.Context) {
	snap, err := h.orch.RoomSnapshot(domain.RoomID(c.Param("roomId")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// DELETE /api/rooms/:roomId ends the room; host only.
func (h *handlers) endRoom(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	var req endRoomRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, domain.ErrBadPayload)
			return
		}
	}
	if err := h.orch.EndRoom(domain.RoomID(c.Param("roomId")), uid, req.RecordingURL); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) join(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	prefs := domain.DefaultPreferences()
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&prefs); err != nil {
			writeError(c, domain.ErrBadPayload)
			return
		}
	}
	snap, err := h.orch.JoinSession(domain.SessionID(c.Param("sessionId")), uid, prefs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) leave(c *gin.Context) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	changed, err := h.orch.LeaveSession(domain.SessionID(c.Param("sessionId")), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

func (h *handlers) toggle(which orch.MediaToggle) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := caller(c)
		if !ok {
			return
		}
		var req toggleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, domain.ErrBadPayload)
			return
		}
		a, err := h.orch.SetMedia(domain.SessionID(c.Param("sessionId")), uid, which, *req.Value)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, a)
	}
}

func (h *handlers) kick(c *gin.Context) {
	h.hostAction(c, func(sid domain.SessionID, uid, target domain.UserID) error {
		return h.orch.Kick(sid, uid, target)
	})
}

func (h *handlers) approve(c *gin.Context) {
	h.hostAction(c, func(sid domain.SessionID, uid, target domain.UserID) error {
		return h.orch.Approve(sid, uid, target)
	})
}

func (h *handlers) cohost(on bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.hostAction(c, func(sid domain.SessionID, uid, target domain.UserID) error {
			return h.orch.SetCoHost(sid, uid, target, on)
		})
	}
}

// hostAction runs a caller-on-target transition and answers with the new snapshot.
func (h *handlers) hostAction(c *gin.Context, fn func(sid domain.SessionID, uid, target domain.UserID) error) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	sid := domain.SessionID(c.Param("sessionId"))
	if err := fn(sid, uid, domain.UserID(c.Param("attendeeId"))); err != nil {
		writeError(c, err)
		return
	}
	h.respondSnapshot(c, sid)
}

func (h *handlers) startRecording(c *gin.Context) {
	h.sessionAction(c, h.orch.StartRecording)
}

func (h *handlers) stopRecording(c *gin.Context) {
	h.sessionAction(c, h.orch.StopRecording)
}

func (h *handlers) consentRecording(c *gin.Context) {
	h.sessionAction(c, h.orch.ConsentRecording)
}

func (h *handlers) setClosed(closed bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.sessionAction(c, func(sid domain.SessionID, uid domain.UserID) error {
			return h.orch.SetSessionClosed(sid, uid, closed)
		})
	}
}

func (h *handlers) sessionAction(c *gin.Context, fn func(sid domain.SessionID, uid domain.UserID) error) {
	uid, ok := caller(c)
	if !ok {
		return
	}
	sid := domain.SessionID(c.Param("sessionId"))
	if err := fn(sid, uid); err != nil {
		writeError(c, err)
		return
	}
	h.respondSnapshot(c, sid)
}

func (h *handlers) respondSnapshot(c *gin.Context, sid domain.SessionID) {
	snap, err := h.orch.SessionSnapshot(sid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
