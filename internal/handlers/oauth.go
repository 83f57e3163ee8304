package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yukikurage/project-management-api/internal/auth"
	"github.com/yukikurage/project-management-api/internal/constants"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/services"
	"github.com/yukikurage/project-management-api/internal/utils"
)

// OAuthHandler runs the social login redirects. The in-flight provider session and
// the state value are kept in the gin session between the two legs.
type OAuthHandler struct {
	strategies  *auth.OAuthStrategies
	authService *services.AuthService
	cookies     CookieSettings
	redirectURL string
}

func NewOAuthHandler(strategies *auth.OAuthStrategies, authService *services.AuthService, cookies CookieSettings, redirectURL string) *OAuthHandler {
	return &OAuthHandler{
		strategies:  strategies,
		authService: authService,
		cookies:     cookies,
		redirectURL: redirectURL,
	}
}

// Begin redirects to the provider's consent page.
func (h *OAuthHandler) Begin(provider string) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := utils.RandomHex(16)
		if err != nil {
			apierrors.InternalError(c, "Failed to start login")
			return
		}

		authURL, providerSession, err := h.strategies.Begin(provider, state)
		if err != nil {
			if errors.Is(err, auth.ErrUnknownProvider) {
				apierrors.NotFound(c, "Login provider is not configured")
				return
			}
			respondError(c, err)
			return
		}

		session := sessions.Default(c)
		session.Set(constants.OAuthStateSessionKey, state)
		session.Set(constants.OAuthProviderSessionKey, providerSession)
		if err := session.Save(); err != nil {
			apierrors.InternalError(c, "Failed to save session")
			return
		}

		c.Redirect(http.StatusTemporaryRedirect, authURL)
	}
}

// Callback completes the flow, signs the user in and redirects to the client.
func (h *OAuthHandler) Callback(c *gin.Context) {
	provider := c.Param("provider")

	session := sessions.Default(c)
	state, _ := session.Get(constants.OAuthStateSessionKey).(string)
	providerSession, _ := session.Get(constants.OAuthProviderSessionKey).(string)
	session.Delete(constants.OAuthStateSessionKey)
	session.Delete(constants.OAuthProviderSessionKey)
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	if state == "" || providerSession == "" || c.Query("state") != state {
		apierrors.Unauthorized(c, "Login session is missing or does not match")
		return
	}

	profile, err := h.strategies.Complete(provider, providerSession, c.Request.URL.Query())
	if err != nil {
		if errors.Is(err, auth.ErrUnknownProvider) {
			apierrors.NotFound(c, "Login provider is not configured")
			return
		}
		zerolog.Ctx(c.Request.Context()).Warn().Err(err).Str("provider", provider).Msg("oauth callback failed")
		apierrors.Unauthorized(c, "Login with the provider failed")
		return
	}

	user, tokens, err := h.authService.OAuthLogin(provider, profile)
	if err != nil {
		respondError(c, err)
		return
	}

	setAuthCookies(c, h.cookies, tokens)
	if h.redirectURL == "" {
		respond(c, http.StatusOK, authResponse(user, tokens), "User logged in successfully")
		return
	}
	c.Redirect(http.StatusFound, h.redirectURL)
}
