package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appbilling "github.com/nhatro/backend/internal/application/billing"
	"github.com/nhatro/backend/internal/domain/billing"
	"github.com/nhatro/backend/internal/domain/shared/valueobject"
	"github.com/nhatro/backend/internal/interfaces/http/dto"
)

// BillHandler exposes the bill lifecycle over HTTP
type BillHandler struct {
	BaseHandler
	billing *appbilling.BillingService
}

// NewBillHandler creates a new BillHandler
func NewBillHandler(billingService *appbilling.BillingService) *BillHandler {
	return &BillHandler{billing: billingService}
}

// ListBillsRequest carries the bill list filters
type ListBillsRequest struct {
	dto.ListRequest
	BillType   string `form:"bill_type" binding:"omitempty,oneof=RECEIPT CONTRACT MONTHLY"`
	Status     string `form:"status" binding:"omitempty,oneof=DRAFT UNPAID PENDING_CASH_CONFIRM PARTIALLY_PAID PAID VOID"`
	ContractID string `form:"contract_id" binding:"omitempty,uuid"`
	RoomID     string `form:"room_id" binding:"omitempty,uuid"`
	Period     string `form:"period" binding:"omitempty,period"`
}

// ListBills handles GET /api/v1/bills
func (h *BillHandler) ListBills(c *gin.Context) {
	var req ListBillsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	filter := billing.BillFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	}
	if req.BillType != "" {
		billType := billing.BillType(req.BillType)
		filter.BillType = &billType
	}
	if req.Status != "" {
		status := billing.BillStatus(req.Status)
		filter.Status = &status
	}
	if req.ContractID != "" {
		id, _ := uuid.Parse(req.ContractID)
		filter.ContractID = &id
	}
	if req.RoomID != "" {
		id, _ := uuid.Parse(req.RoomID)
		filter.RoomID = &id
	}
	if req.Period != "" {
		filter.Period = &req.Period
	}

	bills, total, err := h.billing.ListBills(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, bills, total, req.Page, req.PageSize)
}

// GetBill handles GET /api/v1/bills/:id
func (h *BillHandler) GetBill(c *gin.Context) {
	billID, ok := h.pathID(c)
	if !ok {
		return
	}
	bill, err := h.billing.GetBill(c.Request.Context(), billID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}

// LineItemRequest is a single charge line in the request body. Amounts
// are decimal strings so no precision is lost in transit.
type LineItemRequest struct {
	Description string `json:"description" binding:"required"`
	Quantity    string `json:"quantity" binding:"required"`
	UnitPrice   string `json:"unit_price" binding:"required"`
}

func parseLineItems(items []LineItemRequest) (billing.LineItems, error) {
	result := make(billing.LineItems, 0, len(items))
	for _, item := range items {
		quantity, err := decimal.NewFromString(item.Quantity)
		if err != nil {
			return nil, billing.NewValidationError("line item quantity is not a valid decimal")
		}
		unitPrice, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			return nil, billing.NewValidationError("line item unit price is not a valid decimal")
		}
		lineItem, err := billing.NewLineItem(item.Description, quantity, unitPrice)
		if err != nil {
			return nil, err
		}
		result = append(result, lineItem)
	}
	return result, nil
}

// PublishBillRequest carries optional replacement line items
type PublishBillRequest struct {
	LineItems []LineItemRequest `json:"line_items"`
}

// PublishBill handles POST /api/v1/bills/:id/publish
func (h *BillHandler) PublishBill(c *gin.Context) {
	billID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req PublishBillRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		h.BadRequest(c, err.Error())
		return
	}
	items, err := parseLineItems(req.LineItems)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	bill, err := h.billing.PublishDraftBill(c.Request.Context(), billID, items)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}

// CashPaymentRequest carries the claimed cash amount
type CashPaymentRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// RequestCashPayment handles POST /api/v1/bills/:id/cash-requests
func (h *BillHandler) RequestCashPayment(c *gin.Context) {
	billID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req CashPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	amount, err := valueobject.NewMoneyVNDFromString(req.Amount)
	if err != nil {
		h.BadRequest(c, "amount is not a valid decimal")
		return
	}
	bill, err := h.billing.RequestCashPayment(c.Request.Context(), billID, amount)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}

// ConfirmCashRequest carries an optional corrected amount and a note
type ConfirmCashRequest struct {
	Amount string `json:"amount"`
	Note   string `json:"note"`
}

// ConfirmCashPayment handles POST /api/v1/bills/:id/cash-requests/confirm
func (h *BillHandler) ConfirmCashPayment(c *gin.Context) {
	billID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req ConfirmCashRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		h.BadRequest(c, err.Error())
		return
	}
	var amount *valueobject.Money
	if req.Amount != "" {
		parsed, err := valueobject.NewMoneyVNDFromString(req.Amount)
		if err != nil {
			h.BadRequest(c, "amount is not a valid decimal")
			return
		}
		amount = &parsed
	}
	bill, err := h.billing.ConfirmCashPayment(c.Request.Context(), billID, amount, req.Note)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}

// RejectCashRequest carries the rejection reason
type RejectCashRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectCashPayment handles POST /api/v1/bills/:id/cash-requests/reject
func (h *BillHandler) RejectCashPayment(c *gin.Context) {
	billID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req RejectCashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	bill, err := h.billing.RejectCashPayment(c.Request.Context(), billID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}

// VoidBillRequest carries the void reason
type VoidBillRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// VoidBill handles POST /api/v1/bills/:id/void
func (h *BillHandler) VoidBill(c *gin.Context) {
	billID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req VoidBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	bill, err := h.billing.VoidBill(c.Request.Context(), billID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}

// SettleBillRequest identifies the admin closing the bill out
type SettleBillRequest struct {
	AdminID string `json:"admin_id" binding:"required,uuid"`
	Note    string `json:"note"`
}

// SettleBill handles POST /api/v1/bills/:id/settle
func (h *BillHandler) SettleBill(c *gin.Context) {
	billID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req SettleBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	adminID, _ := uuid.Parse(req.AdminID)
	bill, err := h.billing.SettleBill(c.Request.Context(), billID, adminID, req.Note)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}

// UsageRequest carries one month's meter readings and occupancy
type UsageRequest struct {
	ElectricityKwh string         `json:"electricity_kwh"`
	WaterM3        string         `json:"water_m3"`
	OccupantCount  int            `json:"occupant_count" binding:"omitempty,min=0"`
	Vehicles       []VehicleInput `json:"vehicles"`
	VehicleCount   int            `json:"vehicle_count" binding:"omitempty,min=0"`
	ExcludeRent    bool           `json:"exclude_rent"`
}

// VehicleInput is one parked vehicle
type VehicleInput struct {
	Type         string `json:"type" binding:"required,oneof=motorbike bicycle electric_bike"`
	LicensePlate string `json:"license_plate"`
}

func (r UsageRequest) toDomain() (billing.UsageInput, error) {
	usage := billing.UsageInput{
		OccupantCount: r.OccupantCount,
		VehicleCount:  r.VehicleCount,
		ExcludeRent:   r.ExcludeRent,
	}
	if r.ElectricityKwh != "" {
		kwh, err := decimal.NewFromString(r.ElectricityKwh)
		if err != nil {
			return usage, billing.NewValidationError("electricity_kwh is not a valid decimal")
		}
		usage.ElectricityKwh = kwh
	}
	if r.WaterM3 != "" {
		m3, err := decimal.NewFromString(r.WaterM3)
		if err != nil {
			return usage, billing.NewValidationError("water_m3 is not a valid decimal")
		}
		usage.WaterM3 = m3
	}
	for _, v := range r.Vehicles {
		usage.Vehicles = append(usage.Vehicles, billing.Vehicle{
			Type:         billing.VehicleType(v.Type),
			LicensePlate: v.LicensePlate,
		})
	}
	return usage, nil
}

// GenerateMonthlyBillRequest carries the inputs for one month's bill
type GenerateMonthlyBillRequest struct {
	ContractID  string       `json:"contract_id" binding:"required,uuid"`
	Period      string       `json:"period" binding:"required,period"`
	Usage       UsageRequest `json:"usage"`
	AutoPublish bool         `json:"auto_publish"`
}

// GenerateMonthlyBill handles POST /api/v1/bills/monthly
func (h *BillHandler) GenerateMonthlyBill(c *gin.Context) {
	var req GenerateMonthlyBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	usage, err := req.Usage.toDomain()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	contractID, _ := uuid.Parse(req.ContractID)
	bill, err := h.billing.GenerateMonthlyBill(c.Request.Context(), appbilling.GenerateMonthlyBillRequest{
		ContractID:  contractID,
		Period:      req.Period,
		Usage:       usage,
		AutoPublish: req.AutoPublish,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, bill)
}

// PreviewFeesRequest carries the inputs for a dry-run fee calculation
type PreviewFeesRequest struct {
	ContractID string       `json:"contract_id" binding:"required,uuid"`
	Usage      UsageRequest `json:"usage"`
}

// PreviewFees handles POST /api/v1/bills/preview
func (h *BillHandler) PreviewFees(c *gin.Context) {
	var req PreviewFeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	usage, err := req.Usage.toDomain()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	contractID, _ := uuid.Parse(req.ContractID)
	breakdown, err := h.billing.PreviewMonthlyFees(c.Request.Context(), contractID, usage)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, breakdown)
}
