package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"packstore/internal/auth"
	"packstore/internal/users"
	"packstore/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const oauthStateCookie = "oauth_state"

func (h *Handler) Register(c *gin.Context) {
	traceId := traceOf(c)

	var nu users.NewUser
	if err := c.ShouldBindJSON(&nu); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if !h.validRequest(c, traceId, nu) {
		return
	}

	user, err := h.u.InsertUser(c.Request.Context(), nu)
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			slog.Error("email already registered", slog.String(logkey.TraceID, traceId))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
			return
		}
		slog.Error("error in inserting the user", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "User creation failed"})
		return
	}

	token, err := h.keys.GenerateToken(user.ID, user.Role)
	if err != nil {
		slog.Error("error in generating token", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "User creation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (h *Handler) Login(c *gin.Context) {
	traceId := traceOf(c)

	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if !h.validRequest(c, traceId, req) {
		return
	}

	user, err := h.u.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		slog.Error("login failed", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := h.keys.GenerateToken(user.ID, user.Role)
	if err != nil {
		slog.Error("error in generating token", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (h *Handler) Me(c *gin.Context) {
	traceId := traceOf(c)

	claims, ok := currentClaims(c)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, err := h.u.GetByID(c.Request.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			// Provider-only session, no local row behind it.
			c.JSON(http.StatusOK, gin.H{"user": gin.H{"email": claims.Subject, "role": claims.Role}})
			return
		}
		slog.Error("error in retrieving user", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GoogleLogin starts the OAuth handshake with a random state cookie.
func (h *Handler) GoogleLogin(c *gin.Context) {
	if h.oauth == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Google sign-in is not configured"})
		return
	}

	state := uuid.NewString()
	c.SetCookie(oauthStateCookie, state, 600, "/", "", false, true)
	c.Redirect(http.StatusTemporaryRedirect, h.oauth.AuthCodeURL(state))
}

// GoogleCallback exchanges the code, fetches the profile, and upserts the
// local user. A database failure during the upsert degrades to a
// provider-only session instead of failing the sign-in.
func (h *Handler) GoogleCallback(c *gin.Context) {
	traceId := traceOf(c)

	if h.oauth == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Google sign-in is not configured"})
		return
	}

	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		slog.Error("oauth state mismatch", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid OAuth state"})
		return
	}

	code := c.Query("code")
	if code == "" {
		slog.Error("oauth code missing", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing OAuth code"})
		return
	}

	token, err := h.oauth.Exchange(c.Request.Context(), code)
	if err != nil {
		slog.Error("oauth code exchange failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "OAuth exchange failed"})
		return
	}

	client := h.oauth.Client(c.Request.Context(), token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		slog.Error("fetching oauth profile failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch profile"})
		return
	}
	defer resp.Body.Close()

	var profile struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil || profile.Email == "" {
		slog.Error("decoding oauth profile failed", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch profile"})
		return
	}

	subject := profile.Email
	role := auth.RoleUser

	user, err := h.u.UpsertOAuthUser(c.Request.Context(), profile.Email, profile.Name, profile.Picture)
	if err != nil {
		// Session still works off the provider identity; the row is
		// created on a later visit.
		slog.Error("oauth upsert failed, issuing provider-only session",
			slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	} else {
		subject = user.ID
		role = user.Role
	}

	sessionToken, err := h.keys.GenerateToken(subject, role)
	if err != nil {
		slog.Error("error in generating token", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": sessionToken, "user": gin.H{
		"email":  profile.Email,
		"name":   profile.Name,
		"avatar": profile.Picture,
		"role":   role,
	}})
}
