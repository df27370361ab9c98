package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"repoql/internal/engine"
	"repoql/internal/ir"
	"repoql/internal/queryir"
)

func (s *Server) handleList(c *gin.Context) {
	r, ok := s.repo(c)
	if !ok {
		return
	}
	rows, err := r.FindAll(c.Request.Context())
	if err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": rows})
}

func (s *Server) handleGet(c *gin.Context) {
	r, ok := s.repo(c)
	if !ok {
		return
	}
	id, ok := keyParam(c, r.Record())
	if !ok {
		return
	}
	row, err := r.FindByID(c.Request.Context(), id)
	if err != nil {
		s.storageError(c, err)
		return
	}
	if row == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": row})
}

func (s *Server) handleCreate(c *gin.Context) {
	r, ok := s.repo(c)
	if !ok {
		return
	}
	var row ir.Record
	if err := c.ShouldBindJSON(&row); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	saved, err := r.Save(c.Request.Context(), row)
	if err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"record": saved})
}

func (s *Server) handleUpdate(c *gin.Context) {
	r, ok := s.repo(c)
	if !ok {
		return
	}
	id, ok := keyParam(c, r.Record())
	if !ok {
		return
	}
	var row ir.Record
	if err := c.ShouldBindJSON(&row); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(row) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must set at least one field"})
		return
	}
	key, _ := r.Record().KeyField()
	row[key.Name] = id

	saved, err := r.Save(c.Request.Context(), row)
	if err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": saved})
}

func (s *Server) handleDelete(c *gin.Context) {
	r, ok := s.repo(c)
	if !ok {
		return
	}
	id, ok := keyParam(c, r.Record())
	if !ok {
		return
	}
	deleted, err := r.DeleteByID(c.Request.Context(), id)
	if err != nil {
		s.storageError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// handleSearch invokes a resolved operation with JSON-supplied arguments.
// A one-or-none operation that matches nothing answers 200 with a null
// record: absence is a successful outcome, not an error. A modifying
// operation with no return shape answers with the rows-affected count.
func (s *Server) handleSearch(c *gin.Context) {
	r, ok := s.repo(c)
	if !ok {
		return
	}
	operation := c.Param("operation")

	args := map[string]any{}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&args); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
	}

	res, err := r.Invoke(c.Request.Context(), operation, args)
	if err != nil {
		if errors.Is(err, engine.ErrUnknownOperation) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch res.Cardinality {
	case queryir.None:
		c.JSON(http.StatusOK, gin.H{"rows_affected": res.RowsAffected})
	case queryir.OneOrNone:
		c.JSON(http.StatusOK, gin.H{"record": res.Record})
	default:
		c.JSON(http.StatusOK, gin.H{"records": res.Records})
	}
}

func (s *Server) storageError(c *gin.Context, err error) {
	s.logger.Error("storage error", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
