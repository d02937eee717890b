package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tverdin/carrental/internal/service/admin"
	"github.com/tverdin/carrental/internal/service/users"
)

type AdminHandler struct {
	admin admin.AdminUseCase
	users users.UserUseCase
}

func NewAdminHandler(adminSvc admin.AdminUseCase, userSvc users.UserUseCase) *AdminHandler {
	return &AdminHandler{admin: adminSvc, users: userSvc}
}

func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.GET("/dashboard", h.dashboard)
	router.GET("/users", h.listUsers)
	router.DELETE("/users/:id", h.deleteUser)
}

func (h *AdminHandler) dashboard(c *gin.Context) {
	stats, err := h.admin.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_revenue_cents": stats.TotalRevenueCents,
		"active_bookings":     stats.ActiveBookings,
		"total_cars":          stats.TotalCars,
		"completion_rate":     stats.CompletionRate,
		"recent_bookings":     stats.RecentBookings,
		"recent_payments":     stats.RecentPayments,
		"top_cars":            stats.TopCars,
	})
}

func (h *AdminHandler) listUsers(c *gin.Context) {
	list, err := h.users.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]userResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toUserResponse(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"users": resp})
}

func (h *AdminHandler) deleteUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	actor := currentUser(c)
	if actor == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	if err := h.users.Delete(c.Request.Context(), actor.ID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted successfully"})
}
