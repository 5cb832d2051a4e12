package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	partnerapp "github.com/sultan/backend/internal/application/partner"
	"github.com/sultan/backend/internal/interfaces/http/dto"
)

// CustomerHandler handles customer-related API endpoints
type CustomerHandler struct {
	BaseHandler
	customerService *partnerapp.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *partnerapp.CustomerService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
	}
}

// Create godoc
// @Summary      Create a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        request body partnerapp.CreateCustomerRequest true "Customer"
// @Success      201 {object} dto.Response{data=partnerapp.CustomerResponse}
// @Failure      400,403,409 {object} dto.Response
// @Security     BearerAuth
// @Router       /partner/customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	var req partnerapp.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	customer, err := h.customerService.Create(c.Request.Context(), accessContext(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, customer)
}

// GetByID godoc
// @Summary      Get a customer by id
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID"
// @Success      200 {object} dto.Response{data=partnerapp.CustomerResponse}
// @Failure      400,403,404 {object} dto.Response
// @Security     BearerAuth
// @Router       /partner/customers/{id} [get]
func (h *CustomerHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.InvalidID(c, "customer ID")
		return
	}

	customer, err := h.customerService.GetByID(c.Request.Context(), accessContext(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// GetByNumber godoc
// @Summary      Get a customer by number
// @Tags         customers
// @Produce      json
// @Param        number path string true "Customer number"
// @Success      200 {object} dto.Response{data=partnerapp.CustomerResponse}
// @Failure      403,404 {object} dto.Response
// @Security     BearerAuth
// @Router       /partner/customers/number/{number} [get]
func (h *CustomerHandler) GetByNumber(c *gin.Context) {
	customer, err := h.customerService.GetByNumber(c.Request.Context(), accessContext(c), c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// List godoc
// @Summary      List customers
// @Tags         customers
// @Produce      json
// @Param        number query string false "Number prefix"
// @Param        name query string false "Name contains"
// @Param        level query int false "Level"
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]partnerapp.CustomerResponse}
// @Failure      400,403 {object} dto.Response
// @Security     BearerAuth
// @Router       /partner/customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	var query partnerapp.CustomerListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.customerService.List(c.Request.Context(), accessContext(c), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(*result))
}

// Update godoc
// @Summary      Partially update a customer
// @Description  Absent keys are left unchanged; null clears address, email, phone and metadata.
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID"
// @Param        request body partnerapp.UpdateCustomerRequest true "Changes"
// @Success      200 {object} dto.Response{data=partnerapp.CustomerResponse}
// @Failure      400,403,404,409 {object} dto.Response
// @Security     BearerAuth
// @Router       /partner/customers/{id} [patch]
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.InvalidID(c, "customer ID")
		return
	}

	var req partnerapp.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	customer, err := h.customerService.Update(c.Request.Context(), accessContext(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// Delete godoc
// @Summary      Delete a customer
// @Tags         customers
// @Param        id path string true "Customer ID"
// @Success      204
// @Failure      400,403,404 {object} dto.Response
// @Security     BearerAuth
// @Router       /partner/customers/{id} [delete]
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.InvalidID(c, "customer ID")
		return
	}

	if err := h.customerService.Delete(c.Request.Context(), accessContext(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
