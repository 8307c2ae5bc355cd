// Package api provides the thin request facade: it decodes HTTP
// params, calls the selected recommendation engine, and maps results and
// errors back to JSON. Authorization and rate limiting are external
// collaborators, injected as middleware ahead of these handlers.
package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/Flyns157/API-recommendation/apperr"
	"github.com/Flyns157/API-recommendation/recommend"
	"github.com/Flyns157/API-recommendation/security"
)

const accessTokenTTL = time.Hour

// recommendScope is the scope required to call any /recommend endpoint.
const recommendScope = "recommend:read"

// EngineSet is the set of recommenders the facade dispatches to, keyed by
// the `engine` path segment (JA, MC, EM).
type EngineSet struct {
	JA recommend.Engine
	MC recommend.Engine
	EM recommend.Engine
}

func (s EngineSet) lookup(name string) (recommend.Engine, error) {
	switch strings.ToUpper(name) {
	case "JA":
		return s.JA, nil
	case "MC":
		return s.MC, nil
	case "EM":
		return s.EM, nil
	default:
		return nil, apperr.New(apperr.KindInvalidParam, "unknown engine "+name)
	}
}

// HealthStatus is returned by GET /health.
type HealthStatus string

const (
	StatusHealthy     HealthStatus = "healthy"
	StatusMaintenance HealthStatus = "maintenance"
	StatusDebug       HealthStatus = "debug"
)

// Facade wires engines, JWT validation and a maintenance-mode flag into
// Echo route handlers.
type Facade struct {
	Engines EngineSet
	JWT     *security.JWTService
	NoAuth  bool
	Status  HealthStatus
}

// Register attaches every handler to the given group.
func (f *Facade) Register(g *echo.Group) {
	g.GET("/health", f.handleHealth)
	g.POST("/token", f.handleToken)

	protected := g.Group("", f.authMiddleware())
	protected.GET("/me", f.handleMe)

	recommends := protected.Group("", f.requireRecommendScope())
	recommends.GET("/recommend/:engine/users", f.recommendHandler(recommend.KindUsers))
	recommends.GET("/recommend/:engine/posts", f.recommendHandler(recommend.KindPosts))
	recommends.GET("/recommend/:engine/threads", f.recommendHandler(recommend.KindThreads))
}

func (f *Facade) handleHealth(c echo.Context) error {
	status := f.Status
	if status == "" {
		status = StatusHealthy
	}
	return c.JSON(http.StatusOK, map[string]string{"status": string(status)})
}

// handleToken issues a JWT for a user id. Credential verification is
// delegated to an upstream auth collaborator and out of scope here; a
// production deployment would front this with a real credential check
// before minting a token.
func (f *Facade) handleToken(c echo.Context) error {
	userID := c.FormValue("user_id")
	if userID == "" {
		userID = c.QueryParam("user_id")
	}
	if userID == "" {
		return writeError(c, apperr.New(apperr.KindInvalidParam, "user_id is required"))
	}
	token, err := f.JWT.GenerateTokenWithClaims(userID, accessTokenTTL, map[string]interface{}{
		"scope": recommendScope,
	})
	if err != nil {
		return writeError(c, apperr.Wrap(apperr.KindStoreFault, "token generation failed", err))
	}
	return c.JSON(http.StatusOK, map[string]string{"access_token": token, "token_type": "bearer"})
}

func (f *Facade) handleMe(c echo.Context) error {
	user, ok := GetUser(c)
	if !ok {
		return writeError(c, apperr.New(apperr.KindUnauthorized, "no authenticated user"))
	}
	return c.JSON(http.StatusOK, user)
}

// recommendHandler builds the GET /recommend/{engine}/{kind} handler: it
// validates params before any store access, dispatches to the selected
// engine, and maps the result/error to the response shape.
func (f *Facade) recommendHandler(kind recommend.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		engine, err := f.Engines.lookup(c.Param("engine"))
		if err != nil {
			return writeError(c, err)
		}

		userID := c.QueryParam("user_id")
		if userID == "" {
			return writeError(c, apperr.New(apperr.KindInvalidParam, "user_id is required"))
		}

		params, err := parseParams(c)
		if err != nil {
			return writeError(c, err)
		}

		ids, err := engine.Recommend(c.Request().Context(), kind, userID, params)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, map[string][]string{"recommended_" + string(kind): ids})
	}
}

func parseParams(c echo.Context) (recommend.Params, error) {
	var params recommend.Params

	if raw := c.QueryParam("weights"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			w, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return params, apperr.New(apperr.KindInvalidParam, "non-numeric weight")
			}
			params.Weights = append(params.Weights, w)
		}
	}

	params.Limit = recommend.DefaultLimit
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return params, apperr.New(apperr.KindInvalidParam, "limit out of range")
		}
		params.Limit = limit
	}

	if raw := c.QueryParam("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			return params, apperr.New(apperr.KindInvalidParam, "skip out of range")
		}
		params.Skip = skip
	}

	if raw := c.QueryParam("seed"); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return params, apperr.New(apperr.KindInvalidParam, "non-numeric seed")
		}
		params.Seed = seed
	}

	return params, nil
}

func writeError(c echo.Context, err error) error {
	status := apperr.HTTPStatus(err)
	return c.JSON(status, map[string]string{"error": err.Error()})
}

// authMiddleware validates the bearer token unless NoAuth is set, in which
// case it is a pure pass-through — NO_AUTH is a facade decorator, not a
// global flag read deep in request handling.
func (f *Facade) authMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if f.NoAuth {
				return next(c)
			}
			header := c.Request().Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				return writeError(c, apperr.New(apperr.KindUnauthorized, "missing bearer token"))
			}
			token, err := f.JWT.ValidateToken(strings.TrimPrefix(header, prefix))
			if err != nil {
				return writeError(c, apperr.New(apperr.KindUnauthorized, "invalid token"))
			}
			claims, _ := token.AsMap(c.Request().Context())
			scopes := extractScopesFromClaims(claims)
			SetClaims(c, claims)
			SetScopes(c, scopes)
			SetUser(c, userFromToken(token, scopes))
			return next(c)
		}
	}
}

// requireRecommendScope gates the recommend routes behind recommendScope,
// mirroring authMiddleware's NoAuth bypass so the two flags stay
// consistent: with NoAuth set there is no token to have carried a scope
// claim in the first place.
func (f *Facade) requireRecommendScope() echo.MiddlewareFunc {
	gate := RequireScope(recommendScope)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		gated := gate(next)
		return func(c echo.Context) error {
			if f.NoAuth {
				return next(c)
			}
			return gated(c)
		}
	}
}

func userFromToken(token jwt.Token, scopes []string) *AuthUser {
	return &AuthUser{ID: token.Subject(), Scopes: scopes}
}
