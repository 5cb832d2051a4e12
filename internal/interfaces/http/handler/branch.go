package handler

import (
	"github.com/gin-gonic/gin"

	identityapp "github.com/sultan/backend/internal/application/identity"
)

// BranchHandler handles branch endpoints
type BranchHandler struct {
	BaseHandler
	branchService *identityapp.BranchService
}

// NewBranchHandler creates a new BranchHandler
func NewBranchHandler(branchService *identityapp.BranchService) *BranchHandler {
	return &BranchHandler{branchService: branchService}
}

// Create godoc
// @Summary      Create a branch
// @Tags         branches
// @Accept       json
// @Produce      json
// @Param        request body identityapp.CreateBranchRequest true "Branch"
// @Success      201 {object} dto.Response{data=identityapp.BranchResponse}
// @Failure      400,403,409 {object} dto.Response
// @Security     BearerAuth
// @Router       /identity/branches [post]
func (h *BranchHandler) Create(c *gin.Context) {
	var req identityapp.CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	branch, err := h.branchService.Create(c.Request.Context(), accessContext(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, branch)
}

// GetByID godoc
// @Summary      Get a branch
// @Tags         branches
// @Produce      json
// @Param        id path string true "Branch ID"
// @Success      200 {object} dto.Response{data=identityapp.BranchResponse}
// @Failure      400,403,404 {object} dto.Response
// @Security     BearerAuth
// @Router       /identity/branches/{id} [get]
func (h *BranchHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.InvalidID(c, "branch ID")
		return
	}

	branch, err := h.branchService.GetByID(c.Request.Context(), accessContext(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, branch)
}

// List godoc
// @Summary      List the branches visible to the caller
// @Tags         branches
// @Produce      json
// @Success      200 {object} dto.Response{data=[]identityapp.BranchResponse}
// @Security     BearerAuth
// @Router       /identity/branches [get]
func (h *BranchHandler) List(c *gin.Context) {
	branches, err := h.branchService.List(c.Request.Context(), accessContext(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, branches)
}

// Update godoc
// @Summary      Partially update a branch
// @Description  Absent keys are left unchanged; null clears address, phone, tax_number and image.
// @Tags         branches
// @Accept       json
// @Produce      json
// @Param        id path string true "Branch ID"
// @Param        request body identityapp.UpdateBranchRequest true "Changes"
// @Success      200 {object} dto.Response{data=identityapp.BranchResponse}
// @Failure      400,403,404,409 {object} dto.Response
// @Security     BearerAuth
// @Router       /identity/branches/{id} [patch]
func (h *BranchHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.InvalidID(c, "branch ID")
		return
	}

	var req identityapp.UpdateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	branch, err := h.branchService.Update(c.Request.Context(), accessContext(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, branch)
}

// Delete godoc
// @Summary      Delete a branch
// @Tags         branches
// @Param        id path string true "Branch ID"
// @Success      204
// @Failure      400,403,404 {object} dto.Response
// @Security     BearerAuth
// @Router       /identity/branches/{id} [delete]
func (h *BranchHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.InvalidID(c, "branch ID")
		return
	}

	if err := h.branchService.Delete(c.Request.Context(), accessContext(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
