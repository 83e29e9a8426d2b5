package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	appleasing "github.com/nhatro/backend/internal/application/leasing"
	"github.com/nhatro/backend/internal/domain/billing"
	"github.com/nhatro/backend/internal/domain/leasing"
	"github.com/nhatro/backend/internal/domain/shared/valueobject"
	"github.com/nhatro/backend/internal/interfaces/http/dto"
)

// RoomHandler exposes room inventory management over HTTP
type RoomHandler struct {
	BaseHandler
	rooms *appleasing.RoomService
}

// NewRoomHandler creates a new RoomHandler
func NewRoomHandler(roomService *appleasing.RoomService) *RoomHandler {
	return &RoomHandler{rooms: roomService}
}

// TariffRequest carries per-room pricing overrides
type TariffRequest struct {
	ElectricityTiers []ElectricityTierRequest `json:"electricity_tiers"`
	ElectricityVAT   string                   `json:"electricity_vat"`
	WaterPerOccupant string                   `json:"water_per_occupant"`
	ParkingBaseRate  string                   `json:"parking_base_rate"`
}

// ElectricityTierRequest is one progressive pricing tier
type ElectricityTierRequest struct {
	SpanKwh    string `json:"span_kwh" binding:"required"`
	RatePerKwh string `json:"rate_per_kwh" binding:"required"`
}

func (r *TariffRequest) toDomain() (*billing.Tariff, error) {
	if r == nil {
		return nil, nil
	}
	tariff := &billing.Tariff{}
	for _, tier := range r.ElectricityTiers {
		span, err := parseDecimalField(tier.SpanKwh, "span_kwh")
		if err != nil {
			return nil, err
		}
		rate, err := parseDecimalField(tier.RatePerKwh, "rate_per_kwh")
		if err != nil {
			return nil, err
		}
		tariff.ElectricityTiers = append(tariff.ElectricityTiers, billing.ElectricityTier{
			SpanKwh:    span,
			RatePerKwh: rate,
		})
	}
	var err error
	if tariff.ElectricityVAT, err = parseDecimalField(r.ElectricityVAT, "electricity_vat"); err != nil {
		return nil, err
	}
	if tariff.WaterPerOccupant, err = parseDecimalField(r.WaterPerOccupant, "water_per_occupant"); err != nil {
		return nil, err
	}
	if tariff.ParkingBaseRate, err = parseDecimalField(r.ParkingBaseRate, "parking_base_rate"); err != nil {
		return nil, err
	}
	if err := tariff.Validate(); err != nil {
		return nil, err
	}
	return tariff, nil
}

// CreateRoomRequest carries the input for a new room
type CreateRoomRequest struct {
	Code          string         `json:"code" binding:"required"`
	Floor         int            `json:"floor" binding:"omitempty,min=0"`
	AreaM2        string         `json:"area_m2"`
	MonthlyRent   string         `json:"monthly_rent" binding:"required"`
	DepositAmount string         `json:"deposit_amount" binding:"required"`
	MaxOccupants  int            `json:"max_occupants" binding:"omitempty,min=1"`
	Tariff        *TariffRequest `json:"tariff"`
	Description   string         `json:"description"`
}

// CreateRoom handles POST /api/v1/rooms
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	rent, err := valueobject.NewMoneyVNDFromString(req.MonthlyRent)
	if err != nil {
		h.BadRequest(c, "monthly_rent is not a valid decimal")
		return
	}
	deposit, err := valueobject.NewMoneyVNDFromString(req.DepositAmount)
	if err != nil {
		h.BadRequest(c, "deposit_amount is not a valid decimal")
		return
	}
	tariff, err := req.Tariff.toDomain()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	room, err := h.rooms.CreateRoom(c.Request.Context(), appleasing.CreateRoomRequest{
		Code:          req.Code,
		Floor:         req.Floor,
		AreaM2:        req.AreaM2,
		MonthlyRent:   rent,
		DepositAmount: deposit,
		MaxOccupants:  req.MaxOccupants,
		Tariff:        tariff,
		Description:   req.Description,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, room)
}

// GetRoom handles GET /api/v1/rooms/:id
func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID, ok := h.pathID(c)
	if !ok {
		return
	}
	room, err := h.rooms.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, room)
}

// ListRoomsRequest carries the room list filters
type ListRoomsRequest struct {
	dto.ListRequest
	Status string `form:"status" binding:"omitempty,oneof=AVAILABLE DEPOSITED OCCUPIED MAINTENANCE"`
	Floor  *int   `form:"floor" binding:"omitempty,min=0"`
}

// ListRooms handles GET /api/v1/rooms
func (h *RoomHandler) ListRooms(c *gin.Context) {
	var req ListRoomsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	filter := leasing.RoomFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
		Floor:    req.Floor,
	}
	if req.Status != "" {
		status := leasing.RoomStatus(req.Status)
		filter.Status = &status
	}

	rooms, total, err := h.rooms.ListRooms(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, rooms, total, req.Page, req.PageSize)
}

// UpdateRoomRequest carries the mutable room fields. Absent fields are
// left untouched.
type UpdateRoomRequest struct {
	MonthlyRent   *string        `json:"monthly_rent"`
	DepositAmount *string        `json:"deposit_amount"`
	MaxOccupants  *int           `json:"max_occupants"`
	Tariff        *TariffRequest `json:"tariff"`
	Description   *string        `json:"description"`
}

// UpdateRoom handles PUT /api/v1/rooms/:id
func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	roomID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	update := appleasing.UpdateRoomRequest{
		MaxOccupants: req.MaxOccupants,
		Description:  req.Description,
	}
	if req.MonthlyRent != nil {
		rent, err := valueobject.NewMoneyVNDFromString(*req.MonthlyRent)
		if err != nil {
			h.BadRequest(c, "monthly_rent is not a valid decimal")
			return
		}
		update.MonthlyRent = &rent
	}
	if req.DepositAmount != nil {
		deposit, err := valueobject.NewMoneyVNDFromString(*req.DepositAmount)
		if err != nil {
			h.BadRequest(c, "deposit_amount is not a valid decimal")
			return
		}
		update.DepositAmount = &deposit
	}
	if req.Tariff != nil {
		tariff, err := req.Tariff.toDomain()
		if err != nil {
			h.HandleError(c, err)
			return
		}
		update.Tariff = tariff
	}

	room, err := h.rooms.UpdateRoom(c.Request.Context(), roomID, update)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, room)
}

// SetMaintenance handles POST /api/v1/rooms/:id/maintenance
func (h *RoomHandler) SetMaintenance(c *gin.Context) {
	roomID, ok := h.pathID(c)
	if !ok {
		return
	}
	room, err := h.rooms.SetMaintenance(c.Request.Context(), roomID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, room)
}

// ClearMaintenance handles DELETE /api/v1/rooms/:id/maintenance
func (h *RoomHandler) ClearMaintenance(c *gin.Context) {
	roomID, ok := h.pathID(c)
	if !ok {
		return
	}
	room, err := h.rooms.ClearMaintenance(c.Request.Context(), roomID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, room)
}

// DeleteRoom handles DELETE /api/v1/rooms/:id
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	roomID, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.rooms.DeleteRoom(c.Request.Context(), roomID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func parseDecimalField(value, field string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, billing.NewValidationError(field + " is not a valid decimal")
	}
	return parsed, nil
}
