package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"coursemart/internal/apierr"
	"coursemart/internal/cache"
	"coursemart/internal/logger"
	"coursemart/internal/repos"
	"coursemart/internal/requestdata"
	"coursemart/internal/types"
)

type AuthService interface {
	RegisterUser(ctx context.Context, user *types.User) (*types.User, error)
	LoginUser(ctx context.Context, email, password string) (string, string, error)
	RefreshUser(ctx context.Context, refreshToken string) (string, string, error)
	LogoutUser(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
	log          *logger.Logger
	userRepo     repos.UserRepo
	redis        *cache.RedisService
	jwtSecretKey string
	accessTTL    time.Duration
	refreshTTL   time.Duration
}

func NewAuthService(
	log *logger.Logger,
	userRepo repos.UserRepo,
	redis *cache.RedisService,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	return &authService{
		log:          log.With("service", "AuthService"),
		userRepo:     userRepo,
		redis:        redis,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
		refreshTTL:   refreshTTL,
	}
}

func (as *authService) RegisterUser(ctx context.Context, user *types.User) (*types.User, error) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	v := apierr.ValidationError{}
	if user.Email == "" {
		v["email"] = "email is required"
	}
	if len(user.Password) < 8 {
		v["password"] = "password must be at least 8 characters"
	}
	if len(v) > 0 {
		return nil, v
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("Failed to hash password: %w", err)
	}
	user.Password = string(hash)
	created, err := as.userRepo.Create(ctx, nil, user)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	return created, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := as.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return "", "", apierr.New(401, "invalid_credentials", fmt.Errorf("invalid email or password"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", "", apierr.New(401, "invalid_credentials", fmt.Errorf("invalid email or password"))
	}
	return as.issueTokens(ctx, user)
}

func (as *authService) RefreshUser(ctx context.Context, refreshToken string) (string, string, error) {
	claims, err := as.parseToken(refreshToken)
	if err != nil {
		return "", "", apierr.New(401, "invalid_token", err)
	}
	userID, err := uuid.Parse(claims["sub"].(string))
	if err != nil {
		return "", "", apierr.New(401, "invalid_token", err)
	}
	stored, ok, err := as.redis.Get(ctx, refreshKey(userID))
	if err != nil {
		return "", "", err
	}
	if !ok || stored != refreshToken {
		return "", "", apierr.New(401, "invalid_token", fmt.Errorf("refresh token revoked"))
	}
	user, err := as.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return "", "", apierr.Translate(err)
	}
	return as.issueTokens(ctx, user)
}

func (as *authService) LogoutUser(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return apierr.ErrForbidden
	}
	return as.redis.Del(ctx, refreshKey(rd.UserID))
}

// SetContextFromToken validates an access token and installs the identity bag
// on the context. The auth middleware is its only caller.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	claims, err := as.parseToken(tokenString)
	if err != nil {
		return ctx, apierr.New(401, "invalid_token", err)
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return ctx, apierr.New(401, "invalid_token", fmt.Errorf("malformed subject"))
	}
	email, _ := claims["email"].(string)
	return requestdata.WithRequestData(ctx, &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Email:       email,
	}), nil
}

func (as *authService) issueTokens(ctx context.Context, user *types.User) (string, string, error) {
	access, err := as.signToken(user, as.accessTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err := as.signToken(user, as.refreshTTL)
	if err != nil {
		return "", "", err
	}
	if err := as.redis.Set(ctx, refreshKey(user.ID), refresh, as.refreshTTL); err != nil {
		return "", "", fmt.Errorf("Failed to store refresh token: %w", err)
	}
	return access, refresh, nil
}

func (as *authService) signToken(user *types.User, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	})
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func refreshKey(userID uuid.UUID) string {
	return fmt.Sprintf("refresh:%s", userID)
}
