package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/flowkit/cache"
	"github.com/kbukum/flowkit/component"
	"github.com/kbukum/flowkit/engine"
	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/flow"
	"github.com/kbukum/flowkit/preview"
	"github.com/kbukum/flowkit/version"
)

// API binds the engine, its cache and the preview hub to HTTP routes.
type API struct {
	Engine      *engine.Engine
	Hub         *preview.Hub
	Components  *component.Registry
	ServiceName string
}

// RunRequest is the body of POST /v1/runs.
type RunRequest struct {
	flow.Graph
	Overrides map[string]string `json:"overrides,omitempty"`
}

// NodeRunRequest is the body of POST /v1/nodes/:id/run. Upstream maps
// node ids (and pulse keys) to their outputs.
type NodeRunRequest struct {
	flow.Graph
	Upstream map[string]string `json:"upstream,omitempty"`
}

// InvalidateRequest is the optional body of DELETE /v1/cache/:id.
type InvalidateRequest struct {
	Edges []flow.Edge `json:"edges"`
}

// ExecutorInfo describes a registered node type.
type ExecutorInfo struct {
	Type  flow.NodeType `json:"type"`
	Cache string        `json:"cache"`
}

// Register installs every route on r.
func (a *API) Register(r gin.IRouter) {
	v1 := r.Group("/v1")
	v1.POST("/runs", a.run)
	v1.POST("/nodes/:id/run", a.runNode)
	v1.GET("/executors", a.executors)
	v1.GET("/cache/stats", a.cacheStats)
	v1.DELETE("/cache", a.clearCache)
	v1.DELETE("/cache/:id", a.invalidate)
	v1.GET("/preview/:node", a.preview)

	r.GET("/health", a.health)
	r.GET("/version", a.version)
}

func (a *API) run(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, errors.InvalidInput("body", err.Error()))
		return
	}
	if err := req.Graph.Validate(); err != nil {
		RespondWithError(c, err)
		return
	}
	res, err := a.Engine.Run(c.Request.Context(), &req.Graph, engine.RunOptions{Overrides: req.Overrides})
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, res)
}

func (a *API) runNode(c *gin.Context) {
	var req NodeRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, errors.InvalidInput("body", err.Error()))
		return
	}
	if err := req.Graph.Validate(); err != nil {
		RespondWithError(c, err)
		return
	}
	res, err := a.Engine.RunNode(c.Request.Context(), &req.Graph, c.Param("id"), req.Upstream)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, res)
}

func (a *API) executors(c *gin.Context) {
	reg := a.Engine.Registry()
	types := reg.Types()
	out := make([]ExecutorInfo, 0, len(types))
	for _, t := range types {
		out = append(out, ExecutorInfo{Type: t, Cache: reg.CachePolicy(t).String()})
	}
	RespondOK(c, out)
}

func (a *API) cacheStats(c *gin.Context) {
	cm := a.Engine.Cache()
	if cm == nil {
		RespondOK(c, cache.Stats{})
		return
	}
	RespondOK(c, cm.Stats())
}

func (a *API) clearCache(c *gin.Context) {
	if cm := a.Engine.Cache(); cm != nil {
		cm.Clear()
	}
	RespondNoContent(c)
}

func (a *API) invalidate(c *gin.Context) {
	id := c.Param("id")
	cm := a.Engine.Cache()
	if cm == nil {
		RespondOK(c, gin.H{"invalidated": []string{}})
		return
	}

	downstream, _ := strconv.ParseBool(c.Query("downstream"))
	if !downstream {
		removed := []string{}
		if cm.InvalidateNode(id) {
			removed = append(removed, id)
		}
		RespondOK(c, gin.H{"invalidated": removed})
		return
	}

	var req InvalidateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondWithError(c, errors.InvalidInput("body", err.Error()))
			return
		}
	}
	removed := cm.InvalidateDownstream(id, req.Edges)
	if removed == nil {
		removed = []string{}
	}
	RespondOK(c, gin.H{"invalidated": removed})
}

func (a *API) preview(c *gin.Context) {
	if a.Hub == nil {
		RespondWithError(c, errors.New(errors.ErrCodeInternal, "preview is disabled", http.StatusServiceUnavailable))
		return
	}
	preview.ServeSSE(a.Hub, c.Writer, c.Request, c.Param("node"))
}

func (a *API) health(c *gin.Context) {
	var healths []component.Health
	if a.Components != nil {
		healths = a.Components.HealthAll(c.Request.Context())
	}
	status := component.Overall(healths)
	code := http.StatusOK
	if status == component.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":     status,
		"service":    a.ServiceName,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"components": healths,
	})
}

func (a *API) version(c *gin.Context) {
	c.JSON(http.StatusOK, version.Get())
}
