package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/app-context/internal/adapters/http/dto"
	"github.com/jsamuelsen/app-context/internal/app/appctx"
	"github.com/jsamuelsen/app-context/internal/domain"
)

// ContextHandler exposes the request's context engine. Every handler works
// on the engine the AppContext middleware attached to the request.
type ContextHandler struct{}

// NewContextHandler creates a ContextHandler.
func NewContextHandler() *ContextHandler {
	return &ContextHandler{}
}

// Register mounts the handlers on rg:
//
//	GET    /context          the whole mapping
//	GET    /context/*path    one dotted path, 404 when absent
//	PUT    /context/*path    set a value, body {"value": ...}
//	DELETE /context/*path    remove a value, 404 when absent
//	POST   /context/rebuild  rebuild, ?fresh=true drops the provider cache
func (h *ContextHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/context", h.All)
	rg.GET("/context/*path", h.Get)
	rg.PUT("/context/*path", h.Set)
	rg.DELETE("/context/*path", h.Unset)
	rg.POST("/context/rebuild", h.Rebuild)
}

// All handles GET /api/v1/context.
func (h *ContextHandler) All(c *gin.Context) {
	engine, ok := engineFrom(c)
	if !ok {
		return
	}

	m, err := engine.All(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ContextResponse{Context: m})
}

// Get handles GET /api/v1/context/*path. The path may use dots or
// slashes: /context/app.name and /context/app/name are the same lookup.
func (h *ContextHandler) Get(c *gin.Context) {
	engine, ok := engineFrom(c)
	if !ok {
		return
	}

	path, ok := contextPath(c)
	if !ok {
		return
	}

	if path == "" {
		h.All(c)
		return
	}

	ctx := c.Request.Context()

	found, err := engine.Has(ctx, path)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	if !found {
		dto.HandleError(c, domain.NewNotFoundError("context path", path))
		return
	}

	v, err := engine.Get(ctx, path, nil)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ValueResponse{Path: path, Value: v})
}

// Set handles PUT /api/v1/context/*path. The value overrides provider
// output for the rest of the request, rebuilds included.
func (h *ContextHandler) Set(c *gin.Context) {
	engine, ok := engineFrom(c)
	if !ok {
		return
	}

	path, ok := contextPath(c)
	if !ok {
		return
	}

	if path == "" {
		dto.HandleError(c, domain.NewValidationError("path", "is required"))
		return
	}

	var req dto.SetValueRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		respondBindError(c, err)
		return
	}

	value, err := req.Decode()
	if err != nil {
		dto.HandleError(c, domain.NewValidationError("value", err.Error()))
		return
	}

	engine.Set(path, value)

	m, err := engine.All(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ContextResponse{Context: m})
}

// Unset handles DELETE /api/v1/context/*path. An override set earlier in
// the request is dropped; provider output at the path comes back on the
// next rebuild.
func (h *ContextHandler) Unset(c *gin.Context) {
	engine, ok := engineFrom(c)
	if !ok {
		return
	}

	path, ok := contextPath(c)
	if !ok {
		return
	}

	if path == "" {
		dto.HandleError(c, domain.NewValidationError("path", "is required"))
		return
	}

	ctx := c.Request.Context()

	found, err := engine.Has(ctx, path)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	if !found {
		dto.HandleError(c, domain.NewNotFoundError("context path", path))
		return
	}

	m, err := engine.Unset(path).All(ctx)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ContextResponse{Context: m})
}

// Rebuild handles POST /api/v1/context/rebuild.
func (h *ContextHandler) Rebuild(c *gin.Context) {
	engine, ok := engineFrom(c)
	if !ok {
		return
	}

	fresh := false
	if raw := c.Query("fresh"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			dto.HandleError(c, domain.NewValidationError("fresh", "must be a boolean"))
			return
		}

		fresh = v
	}

	ctx := c.Request.Context()

	rebuild := engine.Rebuild
	if fresh {
		rebuild = engine.RebuildFromScratch
	}

	if err := rebuild(ctx); err != nil {
		dto.HandleError(c, err)
		return
	}

	m, err := engine.All(ctx)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ContextResponse{Context: m})
}

func engineFrom(c *gin.Context) (*appctx.Engine, bool) {
	engine := appctx.FromContext(c.Request.Context())
	if engine == nil {
		dto.HandleError(c, domain.NewUnavailableError("context engine", "not attached to request"))
		return nil, false
	}

	return engine, true
}

func contextPath(c *gin.Context) (string, bool) {
	p := dto.NewContextPath(c.Param("path"))
	if p.Path == "" {
		return "", true
	}

	if err := dto.Validate(p); err != nil {
		respondBindError(c, err)
		return "", false
	}

	return p.Path, true
}

func respondBindError(c *gin.Context, err error) {
	if dto.IsValidationError(err) {
		dto.RespondValidation(c, err)
		return
	}

	if errors.Is(err, dto.ErrBinding) {
		dto.HandleError(c, domain.NewValidationError("body", "malformed JSON"))
		return
	}

	dto.HandleError(c, err)
}
