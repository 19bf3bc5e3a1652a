package lessonserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ExampleImage is the file advertised by /test-image.
const ExampleImage = "example.jpg"

// ReadinessChecker reports whether the document store accepts requests.
type ReadinessChecker interface {
	IsReady() bool
}

// SystemAPI serves the root, health and test-image endpoints.
type SystemAPI struct {
	readiness ReadinessChecker
}

// NewSystemAPI creates a SystemAPI; a nil checker is always ready.
func NewSystemAPI(readiness ReadinessChecker) SystemAPI {
	return SystemAPI{readiness: readiness}
}

// Get /
func (api *SystemAPI) Index(c *gin.Context) {
	c.String(http.StatusOK, "Select a collection, e.g., /collection/messages")
}

// Get /healthz
func (api *SystemAPI) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Get /readyz
func (api *SystemAPI) Readyz(c *gin.Context) {
	if api.readiness != nil && !api.readiness.IsReady() {
		problems.ServiceUnavailable(c, "document store is not ready")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Get /test-image
// Returns an absolute URL for the example image
func (api *SystemAPI) TestImage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"imageUrl": requestScheme(c) + "://" + c.Request.Host + "/images/" + ExampleImage,
	})
}

func requestScheme(c *gin.Context) string {
	if proto := strings.TrimSpace(c.GetHeader("X-Forwarded-Proto")); proto != "" {
		return strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}
