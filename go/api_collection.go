package lessonserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	docdomain "github.com/Apurer/school-activities-api/internal/domains/documents/domain"
	docports "github.com/Apurer/school-activities-api/internal/domains/documents/ports"
)

// statusBody is the {msg} envelope answered by update and delete.
type statusBody struct {
	Msg string `json:"msg"`
}

var (
	msgSuccess = statusBody{Msg: "success"}
	msgError   = statusBody{Msg: "error"}
)

// CollectionAPI serves generic CRUD on any collection named in the path.
type CollectionAPI struct {
	service docports.Service
}

// NewCollectionAPI creates a CollectionAPI backed by the documents service.
func NewCollectionAPI(service docports.Service) CollectionAPI {
	return CollectionAPI{service: service}
}

// Get /collection/:collectionName
// Lists every document in the collection
func (api *CollectionAPI) ListDocuments(c *gin.Context) {
	docs, err := api.service.List(c.Request.Context(), c.Param("collectionName"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// Post /collection/:collectionName
// Inserts the request body as a new document
func (api *CollectionAPI) CreateDocument(c *gin.Context) {
	body, ok := bindDocument(c)
	if !ok {
		return
	}
	created, err := api.service.Create(c.Request.Context(), c.Param("collectionName"), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, created)
}

// Get /collection/:collectionName/:id
// Finds a document by identifier; absent documents render as null
func (api *CollectionAPI) GetDocument(c *gin.Context) {
	doc, err := api.service.Get(c.Request.Context(), c.Param("collectionName"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if doc == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Put /collection/:collectionName/:id
// Merges the body into exactly one document
func (api *CollectionAPI) UpdateDocument(c *gin.Context) {
	body, ok := bindDocument(c)
	if !ok {
		return
	}
	matched, err := api.service.Update(c.Request.Context(), c.Param("collectionName"), c.Param("id"), body)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMatched(c, matched)
}

// Delete /collection/:collectionName/:id
// Removes exactly one document
func (api *CollectionAPI) DeleteDocument(c *gin.Context) {
	deleted, err := api.service.Delete(c.Request.Context(), c.Param("collectionName"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondMatched(c, deleted)
}

func respondMatched(c *gin.Context, ok bool) {
	if !ok {
		c.JSON(http.StatusNotFound, msgError)
		return
	}
	c.JSON(http.StatusOK, msgSuccess)
}

// bindDocument accepts only a JSON object body.
func bindDocument(c *gin.Context) (docdomain.Document, bool) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, docdomain.ErrNotAnObject)
		return nil, false
	}
	if body == nil {
		respondBadRequest(c, docdomain.ErrNotAnObject)
		return nil, false
	}
	return docdomain.Document(body), true
}
