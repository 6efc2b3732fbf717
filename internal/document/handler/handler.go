package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jakestrouse00/mongodriver/internal/document"
	"github.com/jakestrouse00/mongodriver/internal/store"
	"github.com/jakestrouse00/mongodriver/internal/value"
	"github.com/jakestrouse00/mongodriver/pkg/logger"
)

// query is the body of the filter-driven routes.
type query struct {
	Filter value.Value `json:"filter"`
	Values value.Value `json:"values"`
	Sort   []sortKey   `json:"sort"`
}

type sortKey struct {
	Key        string `json:"key"`
	Descending bool   `json:"descending"`
}

// mutation is returned by every route that writes through a Document.
type mutation struct {
	Document *document.Document `json:"document,omitempty"`
	Outcome  string             `json:"outcome"`
}

type documentHandler struct {
	driver *document.Driver
}

// RegisterDocumentRoutes exposes dr's collection under /api/documents.
func RegisterDocumentRoutes(r gin.IRouter, dr *document.Driver) {
	h := &documentHandler{driver: dr}
	g := r.Group("/api/documents")
	g.GET("", h.list)
	g.POST("", h.create)
	g.POST("/search", h.search)
	g.POST("/find-one", h.findOne)
	g.POST("/update", h.updateWhere)
	g.POST("/remove", h.removeWhere)
	g.GET("/:id", h.get)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.remove)
	g.PUT("/:id/fields/:key", h.setField)
	g.DELETE("/:id/fields/:key", h.removeField)
}

func (h *documentHandler) list(c *gin.Context) {
	docs, err := h.driver.Load(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (h *documentHandler) create(c *gin.Context) {
	fields, ok := bindFields(c)
	if !ok {
		return
	}
	d, err := h.driver.Create(c.Request.Context(), fields)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *documentHandler) search(c *gin.Context) {
	q, ok := bindQuery(c)
	if !ok {
		return
	}
	filter, ok := objectOrEmpty(c, "filter", q.Filter)
	if !ok {
		return
	}
	docs, err := h.driver.Find(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (h *documentHandler) findOne(c *gin.Context) {
	q, ok := bindQuery(c)
	if !ok {
		return
	}
	filter, ok := objectOrEmpty(c, "filter", q.Filter)
	if !ok {
		return
	}
	d, found, err := h.driver.FindOne(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *documentHandler) get(c *gin.Context) {
	d, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *documentHandler) update(c *gin.Context) {
	fields, ok := bindFields(c)
	if !ok {
		return
	}
	d, ok := h.load(c)
	if !ok {
		return
	}
	d, outcome, err := h.driver.Update(c.Request.Context(), d, fields)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mutation{Document: d, Outcome: outcome.String()})
}

func (h *documentHandler) setField(c *gin.Context) {
	var v value.Value
	if err := c.ShouldBindJSON(&v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, ok := h.load(c)
	if !ok {
		return
	}
	outcome, err := d.SetField(c.Request.Context(), c.Param("key"), v)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mutation{Document: d, Outcome: outcome.String()})
}

func (h *documentHandler) removeField(c *gin.Context) {
	d, ok := h.load(c)
	if !ok {
		return
	}
	v, ok := d.Var(c.Param("key"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such field"})
		return
	}
	outcome, err := v.Remove(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mutation{Document: d, Outcome: outcome.String()})
}

func (h *documentHandler) remove(c *gin.Context) {
	d, ok := h.load(c)
	if !ok {
		return
	}
	outcome, err := h.driver.Remove(c.Request.Context(), d)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mutation{Outcome: outcome.String()})
}

func (h *documentHandler) updateWhere(c *gin.Context) {
	q, ok := bindQuery(c)
	if !ok {
		return
	}
	filter, ok := objectOrEmpty(c, "filter", q.Filter)
	if !ok {
		return
	}
	values, ok := objectOrEmpty(c, "values", q.Values)
	if !ok {
		return
	}
	sort := make([]document.SortField, 0, len(q.Sort))
	for _, s := range q.Sort {
		sort = append(sort, document.SortField{Key: s.Key, Descending: s.Descending})
	}
	d, found, err := h.driver.UpdateWhere(c.Request.Context(), filter, values, sort...)
	if err != nil {
		fail(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *documentHandler) removeWhere(c *gin.Context) {
	q, ok := bindQuery(c)
	if !ok {
		return
	}
	filter, ok := objectOrEmpty(c, "filter", q.Filter)
	if !ok {
		return
	}
	removed, err := h.driver.RemoveWhere(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// load fetches the record named by the :id parameter, answering 404 when
// it does not exist.
func (h *documentHandler) load(c *gin.Context) (*document.Document, bool) {
	filter := value.Fields{store.IDKey: value.String(c.Param("id"))}
	d, found, err := h.driver.FindOne(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return nil, false
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil, false
	}
	return d, true
}

func bindFields(c *gin.Context) (value.Fields, bool) {
	var v value.Value
	if err := c.ShouldBindJSON(&v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	fields, ok := v.AsObject()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a JSON object"})
		return nil, false
	}
	return fields, true
}

func bindQuery(c *gin.Context) (query, bool) {
	var q query
	if err := c.ShouldBindJSON(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return q, false
	}
	return q, true
}

// objectOrEmpty treats an absent member as an empty object.
func objectOrEmpty(c *gin.Context, name string, v value.Value) (value.Fields, bool) {
	if v.IsNull() {
		return value.Fields{}, true
	}
	fields, ok := v.AsObject()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a JSON object"})
		return nil, false
	}
	return fields, true
}

func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, document.ErrInvalidID),
		errors.Is(err, document.ErrImmutableID),
		errors.Is(err, document.ErrInvalidFieldName),
		errors.Is(err, document.ErrEmptyUpdate),
		errors.Is(err, store.ErrUnsupportedFilter),
		errors.Is(err, store.ErrUnsupportedUpdate),
		errors.Is(err, value.ErrUnsupportedType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, document.ErrUnknownField):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrDuplicateKey), errors.Is(err, document.ErrDetached):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
