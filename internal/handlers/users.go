package handlers

import (
	"net/http"

	"taskboard/backend/internal/services"
	"taskboard/backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// UserHandler serves the admin-only user management endpoints. The
// admin gate itself is applied by middleware on the route group.
type UserHandler struct {
	db          *gorm.DB
	userService services.UserService
}

func NewUserHandler(db *gorm.DB, userService services.UserService) *UserHandler {
	return &UserHandler{db: db, userService: userService}
}

func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.userService.GetUsers(h.db)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response := make([]UserResponse, 0, len(users))
	for i := range users {
		response = append(response, newUserResponse(&users[i]))
	}
	c.JSON(http.StatusOK, response)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	targetID, ok := pathUserID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetUserProfile(h.db, targetID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	targetID, ok := pathUserID(c, "id")
	if !ok {
		return
	}

	var req services.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.userService.UpdateUser(h.db, targetID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	targetID, ok := pathUserID(c, "id")
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(h.db, targetID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func pathUserID(c *gin.Context, param string) (uuid.UUID, bool) {
	idParam := c.Param(param)
	if !utils.IsValidUUID(idParam) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return uuid.Nil, false
	}
	return uuid.FromStringOrNil(idParam), true
}
