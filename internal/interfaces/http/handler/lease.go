package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appleasing "github.com/nhatro/backend/internal/application/leasing"
	"github.com/nhatro/backend/internal/domain/leasing"
	"github.com/nhatro/backend/internal/domain/shared/valueobject"
	"github.com/nhatro/backend/internal/interfaces/http/dto"
)

// LeaseHandler exposes the check-in and contract lifecycle over HTTP
type LeaseHandler struct {
	BaseHandler
	lease *appleasing.LeaseService
}

// NewLeaseHandler creates a new LeaseHandler
func NewLeaseHandler(leaseService *appleasing.LeaseService) *LeaseHandler {
	return &LeaseHandler{lease: leaseService}
}

// TenantRequest identifies the person moving in
type TenantRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Phone    string `json:"phone"`
	Email    string `json:"email" binding:"omitempty,email"`
	IDNumber string `json:"id_number"`
}

// CheckInRequest reserves a room for a tenant
type CheckInRequest struct {
	RoomID     string        `json:"room_id" binding:"required,uuid"`
	Tenant     TenantRequest `json:"tenant" binding:"required"`
	MoveInDate string        `json:"move_in_date" binding:"required"`
}

// CheckIn handles POST /api/v1/check-ins
func (h *LeaseHandler) CheckIn(c *gin.Context) {
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	moveInDate, err := time.Parse("2006-01-02", req.MoveInDate)
	if err != nil {
		h.BadRequest(c, "move_in_date must be YYYY-MM-DD")
		return
	}
	roomID, _ := uuid.Parse(req.RoomID)

	result, err := h.lease.CheckIn(c.Request.Context(), appleasing.CheckInRequest{
		RoomID: roomID,
		Tenant: leasing.Tenant{
			FullName: req.Tenant.FullName,
			Phone:    req.Tenant.Phone,
			Email:    req.Tenant.Email,
			IDNumber: req.Tenant.IDNumber,
		},
		MoveInDate: moveInDate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// GetCheckIn handles GET /api/v1/check-ins/:id
func (h *LeaseHandler) GetCheckIn(c *gin.Context) {
	checkInID, ok := h.pathID(c)
	if !ok {
		return
	}
	checkIn, err := h.lease.GetCheckIn(c.Request.Context(), checkInID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, checkIn)
}

// ListCheckInsRequest carries the check-in list filters
type ListCheckInsRequest struct {
	dto.ListRequest
	Status string `form:"status" binding:"omitempty,oneof=PENDING DEPOSIT_PAID COMPLETED CANCELED EXPIRED"`
	RoomID string `form:"room_id" binding:"omitempty,uuid"`
}

// ListCheckIns handles GET /api/v1/check-ins
func (h *LeaseHandler) ListCheckIns(c *gin.Context) {
	var req ListCheckInsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	filter := leasing.CheckInFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
	}
	if req.Status != "" {
		status := leasing.CheckInStatus(req.Status)
		filter.Status = &status
	}
	if req.RoomID != "" {
		id, _ := uuid.Parse(req.RoomID)
		filter.RoomID = &id
	}

	checkIns, total, err := h.lease.ListCheckIns(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, checkIns, total, req.Page, req.PageSize)
}

// CancelRequest carries a cancellation reason
type CancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CancelCheckIn handles POST /api/v1/check-ins/:id/cancel
func (h *LeaseHandler) CancelCheckIn(c *gin.Context) {
	checkInID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	checkIn, err := h.lease.CancelCheckIn(c.Request.Context(), checkInID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, checkIn)
}

// CreateContractRequest promotes a paid check-in to a contract
type CreateContractRequest struct {
	CheckInID string `json:"check_in_id" binding:"required,uuid"`
	StartDate string `json:"start_date" binding:"required"`
}

// CreateContract handles POST /api/v1/contracts
func (h *LeaseHandler) CreateContract(c *gin.Context) {
	var req CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		h.BadRequest(c, "start_date must be YYYY-MM-DD")
		return
	}
	checkInID, _ := uuid.Parse(req.CheckInID)

	contract, err := h.lease.CreateContract(c.Request.Context(), checkInID, startDate)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, contract)
}

// GetContract handles GET /api/v1/contracts/:id
func (h *LeaseHandler) GetContract(c *gin.Context) {
	contractID, ok := h.pathID(c)
	if !ok {
		return
	}
	contract, err := h.lease.GetContract(c.Request.Context(), contractID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, contract)
}

// ListContractsRequest carries the contract list filters
type ListContractsRequest struct {
	dto.ListRequest
	Status string `form:"status" binding:"omitempty,oneof=ACTIVE ENDED CANCELED"`
	RoomID string `form:"room_id" binding:"omitempty,uuid"`
}

// ListContracts handles GET /api/v1/contracts
func (h *LeaseHandler) ListContracts(c *gin.Context) {
	var req ListContractsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	filter := leasing.ContractFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	}
	if req.Status != "" {
		status := leasing.ContractStatus(req.Status)
		filter.Status = &status
	}
	if req.RoomID != "" {
		id, _ := uuid.Parse(req.RoomID)
		filter.RoomID = &id
	}

	contracts, total, err := h.lease.ListContracts(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, contracts, total, req.Page, req.PageSize)
}

// GenerateContractBillRequest carries optional extra charges for the
// contract bill
type GenerateContractBillRequest struct {
	LineItems []LineItemRequest `json:"line_items"`
}

// GenerateContractBill handles POST /api/v1/contracts/:id/bill
func (h *LeaseHandler) GenerateContractBill(c *gin.Context) {
	contractID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req GenerateContractBillRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		h.BadRequest(c, err.Error())
		return
	}
	items, err := parseLineItems(req.LineItems)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	bill, err := h.lease.GenerateContractBill(c.Request.Context(), contractID, items)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, bill)
}

// FinalizeContract handles POST /api/v1/contracts/:id/finalize
func (h *LeaseHandler) FinalizeContract(c *gin.Context) {
	contractID, ok := h.pathID(c)
	if !ok {
		return
	}
	contract, err := h.lease.FinalizeContract(c.Request.Context(), contractID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, contract)
}

// CancelContract handles POST /api/v1/contracts/:id/cancel
func (h *LeaseHandler) CancelContract(c *gin.Context) {
	contractID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	contract, err := h.lease.CancelContract(c.Request.Context(), contractID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, contract)
}

// RefundDepositRequest carries the move-out settlement inputs
type RefundDepositRequest struct {
	FinalUsage    UsageRequest `json:"final_usage"`
	DamageCharges string       `json:"damage_charges"`
}

// RefundDeposit handles POST /api/v1/contracts/:id/refund-deposit
func (h *LeaseHandler) RefundDeposit(c *gin.Context) {
	contractID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req RefundDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		h.BadRequest(c, err.Error())
		return
	}
	usage, err := req.FinalUsage.toDomain()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	damage := valueobject.ZeroVND()
	if req.DamageCharges != "" {
		damage, err = valueobject.NewMoneyVNDFromString(req.DamageCharges)
		if err != nil {
			h.BadRequest(c, "damage_charges is not a valid decimal")
			return
		}
	}

	result, err := h.lease.RefundDeposit(c.Request.Context(), appleasing.RefundDepositRequest{
		ContractID:    contractID,
		FinalUsage:    usage,
		DamageCharges: damage,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
