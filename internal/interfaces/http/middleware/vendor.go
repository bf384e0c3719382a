package middleware

import (
	"net/http"

	"github.com/evmarket/backend/internal/infrastructure/logger"
	"github.com/evmarket/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// VendorParam is the path parameter naming the vendor a route acts on
const VendorParam = "vendor_id"

// VendorScope validates :vendor_id and, when the request carries claims,
// rejects vendor tokens for any other vendor. Admin tokens pass for every
// vendor. Without claims (authentication disabled) only the format is checked.
func VendorScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param(VendorParam)
		vendorID, err := uuid.Parse(raw)
		if err != nil || vendorID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeValidation, "vendor_id must be a UUID", getRequestID(c)))
			return
		}

		if claims := GetJWTClaims(c); claims != nil && !claims.IsAdmin() {
			if claims.VendorID != vendorID.String() {
				respondForbidden(c, "Token is not valid for this vendor")
				return
			}
		}

		ctx := logger.WithVendorID(c.Request.Context(), vendorID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAdmin restricts a route to admin tokens. Without claims
// (authentication disabled) the request passes.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims := GetJWTClaims(c); claims != nil && !claims.IsAdmin() {
			respondForbidden(c, "Admin role required")
			return
		}
		c.Next()
	}
}

// GetActor returns the authenticated subject for audit columns
func GetActor(c *gin.Context) string {
	if claims := GetJWTClaims(c); claims != nil {
		return claims.Actor()
	}
	return "anonymous"
}

func respondForbidden(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusForbidden,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, message, getRequestID(c)))
}
