package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthAPI serves process-level liveness, independent of the order
// coordinator's own health derivation.
type HealthAPI struct{}

func NewHealthAPI() HealthAPI {
	return HealthAPI{}
}

// Get /health
// Process liveness probe
func (api *HealthAPI) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
