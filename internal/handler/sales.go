package handler

import (
	"errors"
	"net/http"

	"pharmapos/internal/apierror"
	"pharmapos/internal/dto"
	"pharmapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SalesHandler struct{ svc service.SaleService }

func NewSalesHandler(svc service.SaleService) *SalesHandler { return &SalesHandler{svc: svc} }

// saleErrorStatus maps domain errors from the sale workflow to HTTP codes.
func saleErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrLotNotFound),
		errors.Is(err, service.ErrSaleNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidQuantity):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

// RecordSale godoc
// @Summary      Record a sale
// @Description  Atomically decrements the product's purchase lot, stores the sale, and raises a low-stock alert when the lot crosses the threshold.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RecordSaleRequest true "Sale detail"
// @Success      201  {object} dto.SaleResponse
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/sales [post]
func (h *SalesHandler) RecordSale(c *gin.Context) {
	var req dto.RecordSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RecordSale(c.Request.Context(), req)
	if err != nil {
		c.JSON(saleErrorStatus(err), apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// RecordBatch godoc
// @Summary      Record a multi-item order
// @Description  Applies the single-sale rules per item; failed items are reported in the result list without aborting the batch.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RecordSaleBatchRequest true "Order items"
// @Success      200  {object} dto.SaleBatchResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/sales/batch [post]
func (h *SalesHandler) RecordBatch(c *gin.Context) {
	var req dto.RecordSaleBatchRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RecordBatch(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListSales godoc
// @Summary      List sales
// @Description  Returns a paginated list of sales, most recent first.
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        product_id query string false "Filter by product"
// @Param        date   query string false "Date YYYY-MM-DD"
// @Param        page   query int    false "Page (default 1)"
// @Param        limit  query int    false "Records per page (default 50)"
// @Success      200    {object} dto.SaleListResponse
// @Failure      400    {object} apierror.APIError
// @Router       /v1/sales [get]
func (h *SalesHandler) ListSales(c *gin.Context) {
	var filter dto.SaleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.ListSales(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list sales"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteSale godoc
// @Summary      Delete a sale
// @Description  Removes the sale record. The purchase lot is not replenished.
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Sale UUID"
// @Success      200 {object} dto.Notification
// @Failure      404 {object} apierror.APIError
// @Router       /v1/sales/{id} [delete]
func (h *SalesHandler) DeleteSale(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	notification, err := h.svc.DeleteSale(c.Request.Context(), id)
	if err != nil {
		c.JSON(saleErrorStatus(err), apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, notification)
}
