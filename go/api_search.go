package lessonserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	docdomain "github.com/Apurer/school-activities-api/internal/domains/documents/domain"
	searchports "github.com/Apurer/school-activities-api/internal/domains/search/ports"
)

// SearchAPI serves the lesson searches.
type SearchAPI struct {
	service searchports.Service
}

// NewSearchAPI creates a SearchAPI backed by the search service.
func NewSearchAPI(service searchports.Service) SearchAPI {
	return SearchAPI{service: service}
}

// Get /log-search
// Searches lesson titles and descriptions
func (api *SearchAPI) LogSearch(c *gin.Context) {
	api.run(c, "query", api.service.ScopedSearch)
}

// Get /search
// Searches lesson titles, subjects and locations
func (api *SearchAPI) Search(c *gin.Context) {
	api.run(c, "q", api.service.GlobalSearch)
}

func (api *SearchAPI) run(c *gin.Context, param string, search func(ctx context.Context, query string) ([]docdomain.Document, error)) {
	query := trimmedQuery(c, param)
	if query == "" {
		problems.MissingParameter(c, param)
		return
	}
	docs, err := search(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}
