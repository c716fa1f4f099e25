package services

import (
	"errors"
	"time"

	"taskboard/backend/internal/config"
	"taskboard/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type RegistrationRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=50"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required,min=1,max=50"`
	LastName  string `json:"last_name" binding:"required,min=1,max=50"`
	Role      string `json:"role,omitempty"`
}

// UserUpdateRequest is a merge patch: only non-empty fields overwrite
// the stored value.
type UserUpdateRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

type UserService interface {
	RegisterUser(db *gorm.DB, req RegistrationRequest) (*models.User, error)
	AuthenticateUser(db *gorm.DB, email, password string) (*models.User, error)
	GetUserProfile(db *gorm.DB, userID uuid.UUID) (*models.User, error)
	GetUsers(db *gorm.DB) ([]models.User, error)
	UpdateUser(db *gorm.DB, userID uuid.UUID, req UserUpdateRequest) (*models.User, error)
	DeleteUser(db *gorm.DB, userID uuid.UUID) error
}

type UserServiceImpl struct {
	credentials      CredentialService
	allowAdminSignup bool
}

func NewUserService(credentials CredentialService, cfg config.AuthConfig) *UserServiceImpl {
	return &UserServiceImpl{
		credentials:      credentials,
		allowAdminSignup: cfg.AllowAdminSignup,
	}
}

func (s *UserServiceImpl) RegisterUser(db *gorm.DB, req RegistrationRequest) (*models.User, error) {
	var existingEmail models.User
	if err := db.Where("email = ?", req.Email).First(&existingEmail).Error; err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var existingUsername models.User
	if err := db.Where("username = ?", req.Username).First(&existingUsername).Error; err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := s.credentials.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	// A requested admin role is honored only when self-service admin
	// signup is switched on; everything else registers as a plain user.
	role := models.RoleUser
	if req.Role == models.RoleAdmin && s.allowAdminSignup {
		role = models.RoleAdmin
	}

	user := models.User{
		ID:        uuid.Must(uuid.NewV4()),
		Username:  req.Username,
		Email:     req.Email,
		Password:  hashed,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      role,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserServiceImpl) AuthenticateUser(db *gorm.DB, email, password string) (*models.User, error) {
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.credentials.VerifyPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *UserServiceImpl) GetUserProfile(db *gorm.DB, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserServiceImpl) GetUsers(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := db.Order("created_at").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *UserServiceImpl) UpdateUser(db *gorm.DB, userID uuid.UUID, req UserUpdateRequest) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Role == models.RoleUser || req.Role == models.RoleAdmin {
		user.Role = req.Role
	}
	user.UpdatedAt = time.Now()

	if err := db.Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser hard-deletes the account. The cascade policy is explicit:
// memberships are removed, task assignments are cleared, and projects
// the user owns are deleted together with their tasks and comments.
// Authored tasks and comments under surviving projects keep their
// creator/author ids as historical record.
func (s *UserServiceImpl) DeleteUser(db *gorm.DB, userID uuid.UUID) error {
	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Task{}).Where("assigned_to = ?", userID).
			Update("assigned_to", nil).Error; err != nil {
			return err
		}

		var owned []models.Project
		if err := tx.Where("owner_id = ?", userID).Find(&owned).Error; err != nil {
			return err
		}
		for _, project := range owned {
			if err := deleteProjectCascade(tx, project.ID); err != nil {
				return err
			}
		}

		return tx.Delete(&user).Error
	})
}
