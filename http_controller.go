package session

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// ActionClear asks the endpoint to tear a session down instead of
// creating one.
const ActionClear = "clear"

// SessionRequest is the JSON/form payload accepted by the session
// endpoint. Missing fields are not rejected here; the protocol owns that
// taxonomy so the endpoint stays a thin transport shim.
type SessionRequest struct {
	IDToken   string `json:"idToken" form:"idToken"`
	CSRFToken string `json:"csrfToken" form:"csrfToken"`
	Action    string `json:"action,omitempty" form:"action"`
}

// Validate runs shape validation rules.
func (r SessionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Action, validation.In("", ActionClear)),
	)
}

// SessionControllerRoutes configures endpoint paths.
type SessionControllerRoutes struct {
	Session string
	CSRF    string
}

// SessionController exposes the session protocol over HTTP.
type SessionController struct {
	Debug    bool
	Logger   Logger
	Protocol *Protocol
	CSRF     *CSRFManager
	Routes   *SessionControllerRoutes
}

// SessionControllerOption customizes the controller.
type SessionControllerOption func(*SessionController) *SessionController

// WithControllerProtocol wires the protocol implementation.
func WithControllerProtocol(p *Protocol) SessionControllerOption {
	return func(c *SessionController) *SessionController {
		c.Protocol = p
		return c
	}
}

// WithControllerCSRF wires the CSRF manager used by the bootstrap route.
func WithControllerCSRF(m *CSRFManager) SessionControllerOption {
	return func(c *SessionController) *SessionController {
		c.CSRF = m
		return c
	}
}

// WithControllerLogger overrides the default logger.
func WithControllerLogger(logger Logger) SessionControllerOption {
	return func(c *SessionController) *SessionController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithControllerRoutes overrides the default route paths.
func WithControllerRoutes(routes *SessionControllerRoutes) SessionControllerOption {
	return func(c *SessionController) *SessionController {
		if routes != nil {
			c.Routes = routes
		}
		return c
	}
}

// WithControllerDebug enables request payload dumps.
func WithControllerDebug(debug bool) SessionControllerOption {
	return func(c *SessionController) *SessionController {
		c.Debug = debug
		return c
	}
}

// NewSessionController builds the controller. A missing Protocol is a
// programmer error.
func NewSessionController(opts ...SessionControllerOption) *SessionController {
	c := &SessionController{
		Logger: defLogger{},
		Routes: &SessionControllerRoutes{
			Session: "/api/session",
			CSRF:    "/api/session/csrf",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Protocol == nil {
		panic("Missing Protocol in session controller...")
	}

	if c.CSRF == nil {
		c.CSRF = c.Protocol.csrf
	}

	return c
}

// RegisterSessionRoutes mounts the session endpoint and the CSRF
// bootstrap route.
func RegisterSessionRoutes[T any](app router.Router[T], opts ...SessionControllerOption) {
	controller := NewSessionController(opts...)

	app.Post(controller.Routes.Session, controller.HandleSession).
		SetName("session.post")

	app.Get(controller.Routes.CSRF, controller.HandleCSRF).
		SetName("session.csrf.get")
}

// HandleSession dispatches create/clear based on the action field and
// JSON-encodes the SessionResult with the protocol's status mapping.
func (c *SessionController) HandleSession(ctx router.Context) error {
	payload := new(SessionRequest)

	if err := ctx.Bind(payload); err != nil {
		c.Logger.Error("session payload bind failed", "error", err)
		return c.respond(ctx, SessionResult{
			Success: false,
			Error:   TextCodeInvalidToken,
			Message: "malformed session request",
		})
	}

	if err := payload.Validate(); err != nil {
		c.Logger.Error("session payload validation failed", "error", err)
		return c.respond(ctx, SessionResult{
			Success: false,
			Error:   TextCodeInvalidToken,
			Message: err.Error(),
		})
	}

	if c.Debug {
		c.Logger.Debug("session request: %s", print.MaybePrettyJSON(payload))
	}

	jar := NewRouterCookieJar(ctx)

	var result SessionResult
	if payload.Action == ActionClear {
		result = c.Protocol.ClearSession(ctx.Context(), jar)
	} else {
		result = c.Protocol.CreateSession(ctx.Context(), jar, payload.IDToken, payload.CSRFToken)
	}

	return c.respond(ctx, result)
}

// HandleCSRF ensures a CSRF token exists and returns it so clients can
// echo it back on session-mutating requests (double-submit pattern).
func (c *SessionController) HandleCSRF(ctx router.Context) error {
	jar := NewRouterCookieJar(ctx)

	token, err := c.CSRF.Ensure(jar)
	if err != nil {
		c.Logger.Error("CSRF ensure failed", "error", err)
		return ctx.JSON(router.StatusInternalServerError, SessionResult{
			Success: false,
			Error:   TextCodeInternalError,
			Message: "unable to issue CSRF token",
		})
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"csrfToken": token,
	})
}

func (c *SessionController) respond(ctx router.Context, result SessionResult) error {
	status := router.StatusOK
	if !result.Success {
		status = StatusForTextCode(result.Error)
	}
	return ctx.JSON(status, result)
}
