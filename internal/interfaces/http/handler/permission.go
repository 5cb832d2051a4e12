package handler

import (
	"math"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	identityapp "github.com/sultan/backend/internal/application/identity"
	"github.com/sultan/backend/internal/domain/shared/access"
)

// PermissionHandler manages user grants
type PermissionHandler struct {
	BaseHandler
	permissionService *identityapp.PermissionService
}

// NewPermissionHandler creates a new PermissionHandler
func NewPermissionHandler(permissionService *identityapp.PermissionService) *PermissionHandler {
	return &PermissionHandler{permissionService: permissionService}
}

// EffectivePermission is one entry of the caller's permission map
type EffectivePermission struct {
	Resource     int32  `json:"resource"`
	ResourceName string `json:"resource_name"`
	Scope        string `json:"scope"`
	BranchID     *int64 `json:"branch_id,string"`
	Action       int32  `json:"action"`
	ActionNames  string `json:"action_names"`
}

// MeResponse describes the authenticated caller
type MeResponse struct {
	UserID      int64                 `json:"user_id,string"`
	Permissions []EffectivePermission `json:"permissions"`
}

// Me godoc
// @Summary      Show the caller's effective permissions
// @Tags         permissions
// @Produce      json
// @Success      200 {object} dto.Response{data=MeResponse}
// @Security     BearerAuth
// @Router       /identity/me [get]
func (h *PermissionHandler) Me(c *gin.Context) {
	ac := accessContext(c)
	userID, _ := ac.UserID()

	perms := make([]EffectivePermission, 0, len(ac.Permissions()))
	for key, action := range ac.Permissions() {
		entry := EffectivePermission{
			Resource:     int32(key.Resource),
			ResourceName: key.Resource.String(),
			Scope:        key.Scope.String(),
			Action:       int32(action),
			ActionNames:  action.String(),
		}
		if id, ok := key.Scope.BranchID(); ok {
			entry.BranchID = &id
		}
		perms = append(perms, entry)
	}
	sort.Slice(perms, func(i, j int) bool {
		if perms[i].Resource != perms[j].Resource {
			return perms[i].Resource < perms[j].Resource
		}
		return perms[i].Scope < perms[j].Scope
	})

	h.Success(c, MeResponse{UserID: userID, Permissions: perms})
}

// List godoc
// @Summary      List the stored grants of a user
// @Tags         permissions
// @Produce      json
// @Param        user_id path string true "User ID"
// @Success      200 {object} dto.Response{data=[]identityapp.PermissionResponse}
// @Failure      400,403 {object} dto.Response
// @Security     BearerAuth
// @Router       /identity/users/{user_id}/permissions [get]
func (h *PermissionHandler) List(c *gin.Context) {
	userID, ok := parseID(c, "user_id")
	if !ok {
		h.InvalidID(c, "user ID")
		return
	}

	grants, err := h.permissionService.List(c.Request.Context(), accessContext(c), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, grants)
}

// Grant godoc
// @Summary      Set a user's action mask on a resource
// @Description  Omit branch_id for a global grant. Replaces any previous mask for the same scope.
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Param        user_id path string true "User ID"
// @Param        request body identityapp.GrantPermissionRequest true "Grant"
// @Success      200 {object} dto.Response{data=identityapp.PermissionResponse}
// @Failure      400,403 {object} dto.Response
// @Security     BearerAuth
// @Router       /identity/users/{user_id}/permissions [put]
func (h *PermissionHandler) Grant(c *gin.Context) {
	userID, ok := parseID(c, "user_id")
	if !ok {
		h.InvalidID(c, "user ID")
		return
	}

	var req identityapp.GrantPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	grant, err := h.permissionService.Grant(c.Request.Context(), accessContext(c), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, grant)
}

// Revoke godoc
// @Summary      Remove one grant
// @Tags         permissions
// @Param        user_id path string true "User ID"
// @Param        resource path int true "Resource"
// @Param        branch_id query string false "Branch ID, omitted for the global grant"
// @Success      204
// @Failure      400,403,404 {object} dto.Response
// @Security     BearerAuth
// @Router       /identity/users/{user_id}/permissions/{resource} [delete]
func (h *PermissionHandler) Revoke(c *gin.Context) {
	userID, ok := parseID(c, "user_id")
	if !ok {
		h.InvalidID(c, "user ID")
		return
	}
	resource, ok := parseID(c, "resource")
	if !ok || resource > math.MaxInt32 {
		h.InvalidID(c, "resource")
		return
	}

	req := identityapp.RevokePermissionRequest{Resource: access.Resource(resource)}
	if raw, present := c.GetQuery("branch_id"); present {
		branchID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || branchID <= 0 {
			h.InvalidID(c, "branch ID")
			return
		}
		req.BranchID = &branchID
	}

	if err := h.permissionService.Revoke(c.Request.Context(), accessContext(c), userID, req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
