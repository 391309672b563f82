package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/karvel/traindesk/internal/dto"
	"github.com/karvel/traindesk/internal/service"
	"github.com/rs/zerolog/log"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// Login godoc
// @Summary Authenticate and receive a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body dto.LoginDTO true "Username and password"
// @Success 200 {object} dto.TokenResponseDTO
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	token, err := c.authService.Login(req)
	if err != nil {
		log.Warn().Str("username", req.Username).Msg("Login failed")
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Invalid credentials"})
		return
	}
	ctx.JSON(http.StatusOK, token)
}

// Register godoc
// @Summary Create a user account
// @Tags Auth
// @Accept json
// @Produce json
// @Param account body dto.RegisterDTO true "Account details"
// @Success 201 {object} dto.TokenResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Router /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	token, err := c.authService.Register(req)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Failed to create account", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusCreated, token)
}
