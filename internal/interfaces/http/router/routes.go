package router

import (
	"github.com/sultan/backend/internal/interfaces/http/handler"
)

// Handlers are the API handlers mounted by RegisterAPI
type Handlers struct {
	Customers   *handler.CustomerHandler
	Branches    *handler.BranchHandler
	Permissions *handler.PermissionHandler
}

// RegisterAPI registers the partner and identity domains on r
func RegisterAPI(r *Router, h Handlers) *Router {
	partner := NewDomain("partner", "/partner")
	partner.Collection("customers", "/customers", h.Customers).
		GET("/number/:number", h.Customers.GetByNumber)

	identity := NewDomain("identity", "/identity")
	identity.GET("/me", h.Permissions.Me)
	identity.Collection("branches", "/branches", h.Branches)
	identity.Nest("permissions", "/users/:user_id/permissions").
		GET("", h.Permissions.List).
		PUT("", h.Permissions.Grant).
		DELETE("/:resource", h.Permissions.Revoke)

	return r.Register(partner).Register(identity)
}
