package v1

import (
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	apperr "github.com/askdoc/askdoc/internal/errors"
	"github.com/askdoc/askdoc/server/auth"
	"github.com/askdoc/askdoc/server/internal/observability"
	"github.com/askdoc/askdoc/store"
)

const minPasswordLength = 8

// userIDContextKey is where the auth middleware stores the caller's id.
const userIDContextKey = "user_id"

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    int32  `json:"id"`
	Email string `json:"email"`
}

type loginResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   int64         `json:"expires_in"`
	User        *userResponse `json:"user"`
}

// RegisterUser creates a new account.
func (s *APIV1Service) RegisterUser(c echo.Context) error {
	req := &registerRequest{}
	if err := c.Bind(req); err != nil {
		return respondError(c, apperr.InvalidArgument("malformed request body"))
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return respondError(c, apperr.InvalidArgument("invalid email address"))
	}
	if len(req.Password) < minPasswordLength {
		return respondError(c, apperr.InvalidArgument("password must be at least 8 characters"))
	}

	ctx := c.Request().Context()
	existing, err := s.Store.GetUser(ctx, &store.FindUser{Email: &email})
	if err != nil {
		return respondError(c, err)
	}
	if existing != nil {
		return respondError(c, apperr.InvalidArgument("email already registered"))
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return respondError(c, err)
	}

	user, err := s.Store.CreateUser(ctx, &store.User{
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return respondError(c, err)
	}

	return respond(c, http.StatusCreated, &userResponse{ID: user.ID, Email: user.Email}, "User registered successfully.")
}

// Login verifies credentials and issues an access token.
func (s *APIV1Service) Login(c echo.Context) error {
	req := &registerRequest{}
	if err := c.Bind(req); err != nil {
		return respondError(c, apperr.InvalidArgument("malformed request body"))
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	ctx := c.Request().Context()
	user, err := s.Store.GetUser(ctx, &store.FindUser{Email: &email})
	if err != nil {
		return respondError(c, err)
	}
	if user == nil {
		return respondError(c, apperr.Unauthorized("invalid credentials"))
	}
	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		return respondError(c, err)
	}

	token, err := auth.GenerateAccessToken(user.ID, s.Secret, time.Now())
	if err != nil {
		return respondError(c, err)
	}

	return respond(c, http.StatusOK, &loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(auth.AccessTokenDuration.Seconds()),
		User:        &userResponse{ID: user.ID, Email: user.Email},
	}, "Login successful.")
}

// AuthMiddleware authenticates the request from its bearer token and stores
// the user id in the echo context.
func (s *APIV1Service) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			return respondError(c, apperr.Unauthorized("authorization header required"))
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return respondError(c, apperr.Unauthorized("invalid authorization header format"))
		}

		userID, err := auth.VerifyAccessToken(parts[1], s.Secret)
		if err != nil {
			return respondError(c, err)
		}

		// The token may outlive the account.
		user, err := s.Store.GetUser(c.Request().Context(), &store.FindUser{ID: &userID})
		if err != nil {
			return respondError(c, err)
		}
		if user == nil {
			return respondError(c, apperr.Unauthorized("user no longer exists"))
		}

		c.Set(userIDContextKey, userID)
		if reqCtx, ok := observability.FromContext(c.Request().Context()); ok {
			reqCtx.UserID = userID
		}
		return next(c)
	}
}

// currentUserID returns the authenticated user's id set by AuthMiddleware.
func currentUserID(c echo.Context) int32 {
	id, _ := c.Get(userIDContextKey).(int32)
	return id
}
