package session

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"comicsort/internal/auth"
	"comicsort/internal/catalog"
	"comicsort/internal/drive"
)

type Handler struct {
	Sessions *Manager
}

func NewHandler(m *Manager) *Handler {
	return &Handler{Sessions: m}
}

// RegisterRoutes expects rg to sit behind auth.AuthMiddleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.view)
	rg.POST("/series", h.setSeries)
	rg.POST("/catalog/fetch", h.refetch)
	rg.POST("/filters", h.addFilter)
	rg.DELETE("/filters", h.resetFilters)
	rg.POST("/catalog/approve", h.approveCatalog)
	rg.POST("/files/search", h.search)
	rg.POST("/files/remove", h.removeEntry)
	rg.POST("/files/truncate", h.truncate)
	rg.POST("/files/approve", h.approveFiles)
	rg.GET("/preview", h.preview)
	rg.POST("/finalize", h.finalize)
}

func (h *Handler) current(c *gin.Context) *Session {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	s, ok := h.Sessions.Get(claims.SessionID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		return nil
	}
	return s
}

func (h *Handler) view(c *gin.Context) {
	s := h.current(c)
	if s == nil {
		return
	}
	c.JSON(http.StatusOK, s.View())
}

type seriesReq struct {
	SeriesID string `json:"series_id"`
}

func (h *Handler) setSeries(c *gin.Context) {
	s := h.current(c)
	if s == nil {
		return
	}
	var req seriesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	v, err := s.SetSeries(c.Request.Context(), req.SeriesID)
	respond(c, v, err)
}

func (h *Handler) refetch(c *gin.Context) {
	s := h.current(c)
	if s == nil {
		return
	}
	v, err := s.Refetch(c.Request.Context())
	respond(c, v, err)
}

type filterReq struct {
	Pattern string `json:"pattern"`
}

func (h *Handler) addFilter(c *gin.Context) {
	s := h.current(c)
	if s == nil {
		return
	}
	var req filterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	v, err := s.AddFilter(req.Pattern)
	respond(c, v, err)
}

func (h *Handler) resetFilters(c *gin.Context) {
	s := h.current(c)
	if s == nil {
		return
	}
	v, err := s.ResetFilters()
	respond(c, v, err)
}

func (h *Handler) approveCatalog(c *gin.Context) {
	s := h.current(c)
	if s == nil {
		return
	}
	v, err := s.ApproveCatalog()
	respond(c, v, err)
}

type searchReq struct {
	Query string `json:"query"`
}

func (h *Handler) search(c *gin.Context) {
	s := h.current(c)
	if s == nil {
		return
	}
	var req searchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	v, err := s.Search(c.Request.Context(), req.Query)
	respond(c, v, err)
}

type removeReq struct {
	FileName string `json:"file_name"`
}

func (h *Handler) removeEntry(c *gin.Context) {
	s := h.current(c)
	if s == nil {
		return
	}
	var req removeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	v, err := s.RemoveEntry(req.FileName)
	respond(c, v, err)
}

type truncateReq struct {
	Index *int `json:"index"`
}

func (h *Handler) truncate(c *gin.Context) {
	s := h.current(c)
	if s == nil {
		return
	}
	var req truncateReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Index == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index required"})
		return
	}
	v, err := s.TruncateAfter(*req.Index)
	respond(c, v, err)
}

func (h *Handler) approveFiles(c *gin.Context) {
	s := h.current(c)
	if s == nil {
		return
	}
	v, err := s.ApproveFiles()
	respond(c, v, err)
}

func (h *Handler) preview(c *gin.Context) {
	s := h.current(c)
	if s == nil {
		return
	}
	rows, err := s.Preview()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

type finalizeReq struct {
	Publisher string `json:"publisher"`
}

func (h *Handler) finalize(c *gin.Context) {
	s := h.current(c)
	if s == nil {
		return
	}
	var req finalizeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res, err := s.Finalize(c.Request.Context(), req.Publisher)
	var moveErr *drive.MoveError
	if errors.As(err, &moveErr) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  moveErr.Error(),
			"moved":  res.Moved,
			"failed": moveErr.FileID,
		})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func respond(c *gin.Context, v View, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrMissingInput), errors.Is(err, catalog.ErrInvalidPattern):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
