package auth

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// Sessions is the part of the session manager auth needs.
type Sessions interface {
	Start(accessToken string) string
	End(id string) bool
	Exists(id string) bool
}

type Handler struct {
	Sessions Sessions
	Tokens   TokenService
	// PasswordHash is a bcrypt hash of the operator password. Empty means
	// no password is asked for.
	PasswordHash string
}

func NewHandler(sessions Sessions, tokens TokenService, passwordHash string) *Handler {
	if passwordHash == "" {
		log.Println("[auth] no operator password configured; any caller can open a session")
	}
	return &Handler{Sessions: sessions, Tokens: tokens, PasswordHash: passwordHash}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/session", h.start)
	rg.POST("/logout", AuthMiddleware(h.Tokens, h.Sessions), h.logout)
}

type startReq struct {
	Password    string `json:"password"`
	AccessToken string `json:"access_token"` // Microsoft Graph bearer token
}

func (h *Handler) start(c *gin.Context) {
	var req startReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	accessToken := strings.TrimSpace(req.AccessToken)
	if accessToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "access_token required"})
		return
	}

	if h.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(h.PasswordHash), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
	}

	id := h.Sessions.Start(accessToken)
	token, exp, err := h.Tokens.Sign(id)
	if err != nil {
		h.Sessions.End(id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_id": id,
		"token":      token,
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) logout(c *gin.Context) {
	claims := MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	h.Sessions.End(claims.SessionID)
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}
