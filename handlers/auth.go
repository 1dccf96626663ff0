package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ilask/weather-data/models"
	"github.com/ilask/weather-data/system"
)

const (
	maxFailedLogins = 5
	lockoutDuration = 5 * time.Minute
	tokenLifetime   = 24 * time.Hour
)

type loginRequest struct {
	UserID   string `json:"userId"`
	Password string `json:"password"`
}

// Login authenticates a console operator and issues a JWT. Repeated failures
// lock the account for a short period. Every attempt lands in the access log.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Password) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user id and password are required"})
	}

	var admin models.Admin
	err := h.DB.Where("username = ?", req.UserID).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if created, ok := h.bootstrapAdmin(req.UserID, req.Password); ok {
			h.recordLoginAttempt(c, req.UserID, "login_success")
			return h.issueToken(c, created.Username)
		}
		h.recordLoginAttempt(c, req.UserID, "login_failed")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
	}
	if err != nil {
		system.Error("Admin lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	now := time.Now()
	if admin.LockedUntil != nil && now.Before(*admin.LockedUntil) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "account is locked, try again later"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password)); err != nil {
		admin.FailedAttempts++
		admin.LastFailedAttempt = &now

		message := "invalid credentials"
		if admin.FailedAttempts >= maxFailedLogins {
			lockedUntil := now.Add(lockoutDuration)
			admin.LockedUntil = &lockedUntil
			admin.FailedAttempts = 0
			message = "account locked for 5 minutes"
		}
		if err := h.DB.Save(&admin).Error; err != nil {
			system.Error("Failed to update login state for %s: %v", admin.Username, err)
		}

		h.recordLoginAttempt(c, req.UserID, "login_failed")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": message})
	}

	admin.FailedAttempts = 0
	admin.LockedUntil = nil
	if err := h.DB.Save(&admin).Error; err != nil {
		system.Error("Failed to reset login state for %s: %v", admin.Username, err)
	}

	h.recordLoginAttempt(c, req.UserID, "login_success")
	return h.issueToken(c, admin.Username)
}

// bootstrapAdmin creates the default operator account on a fresh database.
// Only fires when no admin exists and the supplied credentials match the
// configured defaults.
func (h *Handler) bootstrapAdmin(userID, password string) (*models.Admin, bool) {
	var count int64
	if err := h.DB.Model(&models.Admin{}).Count(&count).Error; err != nil || count > 0 {
		return nil, false
	}
	if h.DefaultAdminUser == "" || userID != h.DefaultAdminUser || password != h.DefaultAdminPassword {
		return nil, false
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		system.Error("Failed to hash default admin password: %v", err)
		return nil, false
	}

	admin := models.Admin{Username: userID, Password: string(hashed)}
	if err := h.DB.Create(&admin).Error; err != nil {
		system.Error("Failed to create default admin: %v", err)
		return nil, false
	}

	system.Info("Default admin account %s created", userID)
	return &admin, true
}

func (h *Handler) issueToken(c *fiber.Ctx, username string) error {
	claims := jwt.MapClaims{
		"user": username,
		"exp":  time.Now().Add(tokenLifetime).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(h.JWTSecret)
	if err != nil {
		system.Error("Failed to sign token for %s: %v", username, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(fiber.Map{
		"token": signed,
		"user":  fiber.Map{"username": username},
	})
}

func (h *Handler) recordLoginAttempt(c *fiber.Ctx, userID, status string) {
	entry := models.APIAccessLog{
		ClientID: userID,
		Method:   c.Method(),
		Path:     c.Path(),
		Status:   status,
	}
	if err := h.DB.Create(&entry).Error; err != nil {
		system.Warn("Failed to record login attempt: %v", err)
	}
}

// JWTAuthMiddleware rejects requests without a valid bearer token signed
// with the given secret.
func JWTAuthMiddleware(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing or invalid token"})
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing or invalid token"})
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if user, ok := claims["user"].(string); ok {
				c.Locals("user", user)
			}
		}

		return c.Next()
	}
}
