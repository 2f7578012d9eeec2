package server

import (
	"encoding/json"
	"net/http"

	"github.com/dyluth/ucm/internal/catalog"
	"github.com/dyluth/ucm/pkg/usecase"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type backupResponse struct {
	Message string `json:"message"`
	File    string `json:"file"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
}

// positionRequest is the only subset of fields the grid view may change.
// A null coordinate clears the cached position.
type positionRequest struct {
	GridX                coordinate `json:"gridX"`
	GridY                coordinate `json:"gridY"`
	ImplementationEffort *int       `json:"implementationEffort"`
	BusinessBenefit      *int       `json:"businessBenefit"`
}

// coordinate tells an absent key apart from an explicit null.
type coordinate struct {
	set   bool
	value *float64
}

func (c *coordinate) UnmarshalJSON(data []byte) error {
	c.set = true
	if string(data) == "null" {
		c.value = nil
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	c.value = &v
	return nil
}

// apply copies the coordinate into f through the value or clear field.
func (c coordinate) apply(value **float64, clear *bool) {
	if !c.set {
		return
	}
	if c.value == nil {
		*clear = true
		return
	}
	*value = c.value
}

func (r positionRequest) fields() usecase.Fields {
	f := usecase.Fields{
		ImplementationEffort: r.ImplementationEffort,
		BusinessBenefit:      r.BusinessBenefit,
	}
	r.GridX.apply(&f.GridX, &f.ClearGridX)
	r.GridY.apply(&f.GridY, &f.ClearGridY)
	return f
}

func respondError(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.JSON(status, errorResponse{Error: err.Error()})
}

// respondFailure maps not-found to 404 and everything else to 500.
func respondFailure(c *gin.Context, err error) {
	if catalog.IsNotFound(err) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "Use case not found"})
		return
	}
	respondError(c, http.StatusInternalServerError, err)
}

// reload refreshes the catalog from the backend. It responds with 500 and
// returns false on failure.
func (s *Server) reload(c *gin.Context) bool {
	if err := s.catalog.Load(c.Request.Context()); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return false
	}
	return true
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "ok", Backend: s.catalog.Backend()})
}

// GET /api/use-cases
func (s *Server) listUseCases(c *gin.Context) {
	if !s.reload(c) {
		return
	}
	criteria := catalog.CriteriaFromQuery(c.Query)
	c.JSON(http.StatusOK, s.catalog.List(criteria))
}

// GET /api/use-cases/:id
func (s *Server) getUseCase(c *gin.Context) {
	if !s.reload(c) {
		return
	}
	u, err := s.catalog.Get(c.Param("id"))
	if err != nil {
		respondFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// POST /api/use-cases
func (s *Server) createUseCase(c *gin.Context) {
	var f usecase.Fields
	if err := c.ShouldBindJSON(&f); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	f.UpdatedAt = nil

	u, err := s.catalog.Create(c.Request.Context(), f)
	if err != nil {
		respondFailure(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// PUT /api/use-cases/:id
func (s *Server) updateUseCase(c *gin.Context) {
	var f usecase.Fields
	if err := c.ShouldBindJSON(&f); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	f.UpdatedAt = nil

	u, err := s.catalog.Update(c.Request.Context(), c.Param("id"), f)
	if err != nil {
		respondFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// PATCH /api/use-cases/:id/position
func (s *Server) updatePosition(c *gin.Context) {
	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	u, err := s.catalog.Update(c.Request.Context(), c.Param("id"), req.fields())
	if err != nil {
		respondFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// DELETE /api/use-cases/:id
func (s *Server) deleteUseCase(c *gin.Context) {
	if _, err := s.catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Use case deleted successfully"})
}

// GET /api/categories
func (s *Server) listCategories(c *gin.Context) {
	if !s.reload(c) {
		return
	}
	c.JSON(http.StatusOK, s.catalog.Categories())
}

// GET /api/tags
func (s *Server) listTags(c *gin.Context) {
	if !s.reload(c) {
		return
	}
	c.JSON(http.StatusOK, s.catalog.Tags())
}

// GET /api/stats
func (s *Server) stats(c *gin.Context) {
	if !s.reload(c) {
		return
	}
	c.JSON(http.StatusOK, s.catalog.Stats())
}

// POST /api/backup
func (s *Server) backup(c *gin.Context) {
	path, err := s.catalog.Backup(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, backupResponse{Message: "Backup created successfully", File: path})
}
