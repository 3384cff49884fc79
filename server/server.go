// Package server exposes the engine's read side over HTTP for dashboards
// that cannot embed the Go engine directly. Amounts leave this API as
// display strings; no caller ever sees a float amount.
package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sam-thetutor/streamr"
	"github.com/sam-thetutor/streamr/accrual"
	"github.com/sam-thetutor/streamr/logger"
	"github.com/sam-thetutor/streamr/types"
)

type Server struct {
	engine *streamr.Streamr
	log    logger.Logger
	router *gin.Engine
}

func New(engine *streamr.Streamr, log logger.Logger, exposeMetrics bool) *Server {
	if log == nil {
		log = logger.NoopLogger{}
	}
	gin.SetMode(gin.ReleaseMode)
	s := &Server{engine: engine, log: log, router: gin.New()}
	s.router.Use(gin.Recovery())

	api := s.router.Group("/api")
	api.GET("/streams/:id", s.getStream)
	api.GET("/subscriptions/:id", s.getSubscription)
	api.GET("/users/:address/streams", s.getUserStreams)
	api.GET("/users/:address/subscriptions", s.getUserSubscriptions)

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if exposeMetrics {
		s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	return s
}

// Handler returns the underlying HTTP handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(addr string) error {
	s.log.Info("http server listening", map[string]any{"addr": addr})
	return s.router.Run(addr)
}

func (s *Server) getStream(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	st, proj, err := s.engine.StreamProjection(c.Request.Context(), id)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, streamView(st, proj))
}

func (s *Server) getSubscription(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	sub, proj, err := s.engine.SubscriptionProjection(c.Request.Context(), id)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, subscriptionView(sub, proj))
}

func (s *Server) getUserStreams(c *gin.Context) {
	role := types.Role(c.DefaultQuery("role", string(types.RoleSender)))
	if role != types.RoleSender && role != types.RoleRecipient {
		c.JSON(http.StatusBadRequest, gin.H{"code": types.ErrInvalidParameters, "error": "role must be sender or recipient"})
		return
	}
	streams, err := s.engine.UserStreams(c.Request.Context(), c.Param("address"), role)
	if err != nil {
		abortWith(c, err)
		return
	}
	asOf := s.engine.AsOf(c.Request.Context())
	views := make([]StreamView, 0, len(streams))
	for _, st := range streams {
		views = append(views, streamView(st, accrual.ProjectStream(st, asOf)))
	}
	c.JSON(http.StatusOK, gin.H{"streams": views, "asOf": asOf})
}

func (s *Server) getUserSubscriptions(c *gin.Context) {
	role := types.Role(c.DefaultQuery("role", string(types.RoleSubscriber)))
	if role != types.RoleSubscriber && role != types.RoleReceiver {
		c.JSON(http.StatusBadRequest, gin.H{"code": types.ErrInvalidParameters, "error": "role must be subscriber or receiver"})
		return
	}
	subs, err := s.engine.UserSubscriptions(c.Request.Context(), c.Param("address"), role)
	if err != nil {
		abortWith(c, err)
		return
	}
	asOf := s.engine.AsOf(c.Request.Context())
	views := make([]SubscriptionView, 0, len(subs))
	for _, sub := range subs {
		views = append(views, subscriptionView(sub, accrual.ProjectSubscription(sub, asOf)))
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": views, "asOf": asOf})
}

func parseID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": types.ErrInvalidParameters, "error": "id must be a non-negative integer"})
		return 0, false
	}
	return id, true
}

func abortWith(c *gin.Context, err error) {
	code := types.CodeOf(err)
	status := http.StatusBadGateway
	switch code {
	case types.ErrNotFound:
		status = http.StatusNotFound
	case types.ErrInvalidParameters:
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"code": code, "error": err.Error()})
}
