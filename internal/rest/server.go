// Package rest exposes registered repositories over HTTP.
//
// For every repository it synthesizes the basic list/get/create/update/
// delete endpoints from the record schema, plus one search endpoint per
// resolved operation. Nothing here re-derives query semantics: handlers
// delegate to the engine's compiled plans and CRUD operations.
package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"repoql/internal/engine"
	"repoql/internal/ir"
)

// Server serves the generated API over a set of registered repositories.
type Server struct {
	repos  map[string]*engine.Repository
	logger hclog.Logger
	router *gin.Engine
}

// NewServer builds the router for the given repositories.
func NewServer(repos []*engine.Repository, logger hclog.Logger) *Server {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		repos:  make(map[string]*engine.Repository, len(repos)),
		logger: logger.Named("rest"),
		router: router,
	}
	for _, r := range repos {
		s.repos[r.Name()] = r
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.GET("/:repo", s.handleList)
	api.POST("/:repo", s.handleCreate)
	api.GET("/:repo/:id", s.handleGet)
	api.PUT("/:repo/:id", s.handleUpdate)
	api.DELETE("/:repo/:id", s.handleDelete)
	api.POST("/:repo/search/:operation", s.handleSearch)

	return s
}

// Router returns the underlying gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine { return s.router }

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.Info("serving", "addr", addr, "repositories", len(s.repos))
	return s.router.Run(addr)
}

// repo resolves the :repo path parameter, writing a 404 on miss.
func (s *Server) repo(c *gin.Context) (*engine.Repository, bool) {
	name := c.Param("repo")
	r, ok := s.repos[name]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown repository: " + name})
		return nil, false
	}
	return r, true
}

// keyParam converts the :id path parameter to the record's key type.
func keyParam(c *gin.Context, record ir.RecordSpec) (any, bool) {
	key, ok := record.KeyField()
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "record has no key field"})
		return nil, false
	}
	raw := c.Param("id")
	if key.Type == ir.TypeInt {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
			return nil, false
		}
		return n, true
	}
	return raw, true
}
