package lessonserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/school-activities-api/internal/platform/images"
	apierrors "github.com/Apurer/school-activities-api/internal/shared/errors"
)

// ImageAPI serves lesson images.
type ImageAPI struct {
	source images.Source
}

// NewImageAPI creates an ImageAPI; a nil source answers 404 for every image.
func NewImageAPI(source images.Source) ImageAPI {
	return ImageAPI{source: source}
}

// Get /images/:file
// Streams an image file
func (api *ImageAPI) GetImage(c *gin.Context) {
	name := c.Param("file")
	if api.source == nil || !images.ValidName(name) {
		problems.Respond(c, apierrors.NewNotFoundProblem("image", name))
		return
	}
	body, info, err := api.source.Open(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, images.ErrNotFound) {
			problems.Respond(c, apierrors.NewNotFoundProblem("image", name))
			return
		}
		respondError(c, err)
		return
	}
	defer body.Close()
	if !info.ModTime.IsZero() {
		c.Header("Last-Modified", info.ModTime.UTC().Format(http.TimeFormat))
	}
	c.DataFromReader(http.StatusOK, info.Size, info.ContentType, body, nil)
}
