package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psds-microservice/broadcast-service/pkg/constants"
)

const tenantKey = "tenant_id"

// RequireTenant rejects requests without an X-Tenant-ID header. Auth
// itself lives upstream; this guard only scopes the data.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader(constants.HeaderTenantID)
		if tenantID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "X-Tenant-ID header required"})
			return
		}
		c.Set(tenantKey, tenantID)
		c.Next()
	}
}

func tenantID(c *gin.Context) string {
	return c.GetString(tenantKey)
}

// branchID returns the optional branch scope, nil when absent.
func branchID(c *gin.Context) *string {
	if v := c.GetHeader(constants.HeaderBranchID); v != "" {
		return &v
	}
	return nil
}
