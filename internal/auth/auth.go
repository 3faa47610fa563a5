package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/groupy-loopy-api/internal/config"
	"github.com/gdg-garage/groupy-loopy-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

const (
	GoogleUserInfoAPI = "https://www.googleapis.com/oauth2/v3/userinfo"
	CalendarScope     = "https://www.googleapis.com/auth/calendar.events"

	TokenDuration = 24 * time.Hour
	cookieName    = "auth_token"
)

var ErrUnauthorized = errors.New("unauthorized")

// GoogleOAuthConfig is shared by login and by Calendar calls made with the
// stored user token.
func GoogleOAuthConfig(cfg *config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes:       []string{"openid", "email", "profile", CalendarScope},
		Endpoint:     google.Endpoint,
	}
}

type AuthHandler struct {
	oauthConfig *oauth2.Config
	userInfoURL string
	db          *gorm.DB
	cfg         *config.Config
}

func NewAuthHandler(cfg *config.Config, db *gorm.DB) *AuthHandler {
	return &AuthHandler{
		oauthConfig: GoogleOAuthConfig(cfg),
		userInfoURL: GoogleUserInfoAPI,
		db:          db,
		cfg:         cfg,
	}
}

type LoginOutput struct {
	Status   int
	Location string `header:"Location"`
}

func (h *AuthHandler) HandleLogin(ctx context.Context, input *struct{}) (*LoginOutput, error) {
	// Offline access so Calendar keeps working after the access token expires.
	url := h.oauthConfig.AuthCodeURL("state", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	return &LoginOutput{Status: http.StatusTemporaryRedirect, Location: url}, nil
}

type CallbackInput struct {
	Code string `query:"code"`
}

type CallbackOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Status    int
	Location  string `header:"Location"`
}

func (h *AuthHandler) HandleCallback(ctx context.Context, input *CallbackInput) (*CallbackOutput, error) {
	if input.Code == "" {
		return nil, huma.Error400BadRequest("Code not found")
	}

	token, err := h.oauthConfig.Exchange(ctx, input.Code)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to exchange token")
	}

	client := h.oauthConfig.Client(ctx, token)
	resp, err := client.Get(h.userInfoURL)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to get user info")
	}
	defer resp.Body.Close()

	var googleUser struct {
		Sub     string `json:"sub"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&googleUser); err != nil {
		return nil, huma.Error500InternalServerError("Failed to decode user info")
	}

	var user models.User
	if err := h.db.FirstOrInit(&user, models.User{GoogleID: googleUser.Sub}).Error; err != nil {
		return nil, huma.Error500InternalServerError("Database error")
	}
	user.Username = googleUser.Name
	user.Email = googleUser.Email
	user.Avatar = googleUser.Picture
	StoreToken(&user, token)

	if err := h.db.Save(&user).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to save user")
	}

	jwtToken, err := h.GenerateToken(user.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate token")
	}

	return &CallbackOutput{
		SetCookie: http.Cookie{
			Name:     cookieName,
			Value:    jwtToken,
			Expires:  time.Now().Add(TokenDuration),
			HttpOnly: true,
			Path:     "/",
		},
		Status:   http.StatusTemporaryRedirect,
		Location: h.cfg.FrontendURL,
	}, nil
}

// StoreToken copies an OAuth token onto the user. Google omits the refresh
// token on repeat consents, so an existing one is kept.
func StoreToken(user *models.User, token *oauth2.Token) {
	user.GoogleAccessToken = token.AccessToken
	if token.RefreshToken != "" {
		user.GoogleRefreshToken = token.RefreshToken
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		user.GoogleTokenExpiry = &expiry
	}
}

// UserToken rebuilds the stored OAuth token, or nil if the user never
// connected Google.
func UserToken(user *models.User) *oauth2.Token {
	if user.GoogleAccessToken == "" && user.GoogleRefreshToken == "" {
		return nil
	}
	token := &oauth2.Token{
		AccessToken:  user.GoogleAccessToken,
		RefreshToken: user.GoogleRefreshToken,
		TokenType:    "Bearer",
	}
	if user.GoogleTokenExpiry != nil {
		token.Expiry = *user.GoogleTokenExpiry
	}
	return token
}

func (h *AuthHandler) GenerateToken(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(TokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

func (h *AuthHandler) parseToken(tokenString string) (uint, int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, 0, ErrUnauthorized
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, 0, ErrUnauthorized
	}
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok || userIDFloat <= 0 {
		return 0, 0, ErrUnauthorized
	}
	var exp int64
	if e, ok := claims["exp"].(float64); ok {
		exp = int64(e)
	}
	return uint(userIDFloat), exp, nil
}

// lookupAPIKey resolves an X-API-KEY value to its owner.
func (h *AuthHandler) lookupAPIKey(key string) (uint, bool) {
	if key == "" || h.db == nil {
		return 0, false
	}
	var keyModel models.APIKey
	if err := h.db.Where("key = ?", key).First(&keyModel).Error; err != nil {
		return 0, false
	}
	if keyModel.ExpiresAt != nil && time.Now().After(*keyModel.ExpiresAt) {
		return 0, false
	}
	h.db.Model(&keyModel).Update("last_used_at", time.Now())
	return keyModel.UserID, true
}

// AuthInput is embedded in every operation that needs a caller identity.
type AuthInput struct {
	Cookie string `header:"Cookie"`
	APIKey string `header:"X-API-KEY"`
}

func cookieValue(header string) string {
	req := &http.Request{Header: http.Header{"Cookie": {header}}}
	c, err := req.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// Authorize returns the caller's user id from an API key or the session cookie.
func (h *AuthHandler) Authorize(ctx context.Context, input AuthInput) (uint, error) {
	if userID, ok := h.lookupAPIKey(input.APIKey); ok {
		return userID, nil
	}
	if userID, ok := ctx.Value(UserIDKey).(uint); ok && userID != 0 {
		return userID, nil
	}
	tokenString := cookieValue(input.Cookie)
	if tokenString == "" {
		return 0, huma.Error401Unauthorized("Unauthorized: No token found")
	}
	userID, _, err := h.parseToken(tokenString)
	if err != nil {
		return 0, huma.Error401Unauthorized("Unauthorized: Invalid token")
	}
	return userID, nil
}

func (h *AuthHandler) AuthorizeUser(ctx context.Context, input AuthInput) (*models.User, error) {
	userID, err := h.Authorize(ctx, input)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := h.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, huma.Error401Unauthorized("Unauthorized: Unknown user")
	}
	return &user, nil
}

func (h *AuthHandler) RequireAdmin(ctx context.Context, input AuthInput) (*models.User, error) {
	user, err := h.AuthorizeUser(ctx, input)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, huma.Error403Forbidden("Access denied: admin role required")
	}
	return user, nil
}

type MeResponse struct {
	Body struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Avatar   string `json:"avatar"`
		Role     string `json:"role"`
		Calendar bool   `json:"calendar_connected"`
	}
}

func (h *AuthHandler) HandleMe(ctx context.Context, input *AuthInput) (*MeResponse, error) {
	user, err := h.AuthorizeUser(ctx, *input)
	if err != nil {
		return nil, err
	}
	res := &MeResponse{}
	res.Body.ID = user.ID
	res.Body.Username = user.Username
	res.Body.Email = user.Email
	res.Body.Avatar = user.Avatar
	res.Body.Role = user.Role
	res.Body.Calendar = UserToken(user) != nil
	return res, nil
}
