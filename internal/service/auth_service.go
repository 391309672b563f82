package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/karvel/traindesk/config"
	"github.com/karvel/traindesk/internal/dto"
	"github.com/karvel/traindesk/internal/model"
	"github.com/karvel/traindesk/internal/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

type AuthClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Login(req dto.LoginDTO) (*dto.TokenResponseDTO, error)
	Register(req dto.RegisterDTO) (*dto.TokenResponseDTO, error)
	Verify(token string) (*AuthClaims, error)
}

type authService struct {
	userRepo repository.UserRepository
	cfg      *config.Config
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config) AuthService {
	if cfg.Auth.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is not set. Authentication will reject all tokens.")
	}
	return &authService{userRepo: userRepo, cfg: cfg}
}

func (s *authService) Login(req dto.LoginDTO) (*dto.TokenResponseDTO, error) {
	user, err := s.userRepo.FindByUsername(req.Username)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	return s.issueToken(user)
}

func (s *authService) Register(req dto.RegisterDTO) (*dto.TokenResponseDTO, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = model.RoleTrainee
	}
	user := &model.User{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.userRepo.Create(user); err != nil {
		log.Warn().Err(err).Str("username", req.Username).Msg("Register: failed to create user")
		return nil, fmt.Errorf("could not create user: %w", err)
	}
	return s.issueToken(user)
}

func (s *authService) issueToken(user *model.User) (*dto.TokenResponseDTO, error) {
	if s.cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT secret is not configured")
	}

	ttl := time.Duration(s.cfg.Auth.TokenTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	claims := AuthClaims{
		UserID:   strconv.FormatUint(uint64(user.ID), 10),
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Auth.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	return &dto.TokenResponseDTO{
		Token:       signed,
		Role:        user.Role,
		DisplayName: user.DisplayName,
	}, nil
}

func (s *authService) Verify(tokenStr string) (*AuthClaims, error) {
	if s.cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT secret is not configured")
	}

	token, err := jwt.ParseWithClaims(tokenStr, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Auth.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
