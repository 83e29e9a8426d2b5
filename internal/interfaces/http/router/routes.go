package router

import (
	"github.com/nhatro/backend/internal/interfaces/http/handler"
)

// RoomRoutes builds the room management route group
func RoomRoutes(h *handler.RoomHandler) *DomainGroup {
	return NewDomainGroup("rooms", "/rooms").
		POST("", h.CreateRoom).
		GET("", h.ListRooms).
		GET("/:id", h.GetRoom).
		PUT("/:id", h.UpdateRoom).
		DELETE("/:id", h.DeleteRoom).
		POST("/:id/maintenance", h.SetMaintenance).
		DELETE("/:id/maintenance", h.ClearMaintenance)
}

// BillRoutes builds the billing route group. The payment handler owns
// the payment-url endpoint because it needs the gateway registry.
func BillRoutes(h *handler.BillHandler, payments *handler.PaymentHandler) *DomainGroup {
	return NewDomainGroup("bills", "/bills").
		GET("", h.ListBills).
		POST("/monthly", h.GenerateMonthlyBill).
		POST("/preview", h.PreviewFees).
		GET("/:id", h.GetBill).
		POST("/:id/publish", h.PublishBill).
		POST("/:id/cash-requests", h.RequestCashPayment).
		POST("/:id/cash-requests/confirm", h.ConfirmCashPayment).
		POST("/:id/cash-requests/reject", h.RejectCashPayment).
		POST("/:id/void", h.VoidBill).
		POST("/:id/settle", h.SettleBill).
		POST("/:id/payment-url", payments.CreatePaymentURL)
}

// CheckInRoutes builds the check-in route group
func CheckInRoutes(h *handler.LeaseHandler) *DomainGroup {
	return NewDomainGroup("check-ins", "/check-ins").
		POST("", h.CheckIn).
		GET("", h.ListCheckIns).
		GET("/:id", h.GetCheckIn).
		POST("/:id/cancel", h.CancelCheckIn)
}

// ContractRoutes builds the contract route group
func ContractRoutes(h *handler.LeaseHandler) *DomainGroup {
	return NewDomainGroup("contracts", "/contracts").
		POST("", h.CreateContract).
		GET("", h.ListContracts).
		GET("/:id", h.GetContract).
		POST("/:id/bill", h.GenerateContractBill).
		POST("/:id/finalize", h.FinalizeContract).
		POST("/:id/cancel", h.CancelContract).
		POST("/:id/refund-deposit", h.RefundDeposit)
}

// SystemRoutes builds the system info route group
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	return NewDomainGroup("system", "/system").
		GET("/info", h.GetSystemInfo).
		GET("/ping", h.Ping)
}
