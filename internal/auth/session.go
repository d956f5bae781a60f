package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/cohortlab/mba-portal/database/models"
)

var (
	// ErrNoSession 请求中没有会话令牌
	ErrNoSession = errors.New("no session")
	// ErrInvalidSession 会话令牌无效或已过期
	ErrInvalidSession = errors.New("invalid session")
)

// Principal 当前请求的已认证用户
type Principal struct {
	UserID  string
	Email   string
	IsAdmin bool
}

// CanModify 判断是否可以修改属于 ownerID 的资源
func (p *Principal) CanModify(ownerID string) bool {
	return p != nil && (p.IsAdmin || (ownerID != "" && p.UserID == ownerID))
}

// ProfileLookup 读取成员资料，用于确定管理员身份
type ProfileLookup interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
}

// SessionResolver 从托管认证服务签发的会话令牌中解析当前用户
type SessionResolver struct {
	secret     []byte
	cookieName string
	profiles   ProfileLookup
}

// NewSessionResolver 创建会话解析器
func NewSessionResolver(secret, cookieName string, profiles ProfileLookup) *SessionResolver {
	if cookieName == "" {
		cookieName = "sb-access-token"
	}
	return &SessionResolver{
		secret:     []byte(secret),
		cookieName: cookieName,
		profiles:   profiles,
	}
}

// Resolve 解析请求中的会话，依次读取 cookie 和 Authorization 头
func (r *SessionResolver) Resolve(ctx context.Context, req *http.Request) (*Principal, error) {
	token := r.tokenFromRequest(req)
	if token == "" {
		return nil, ErrNoSession
	}

	claims, err := r.parse(token)
	if err != nil {
		return nil, err
	}

	principal := &Principal{UserID: claims.Subject, Email: claims.Email}

	profile, err := r.profiles.GetByID(ctx, claims.Subject)
	switch {
	case err == nil:
		principal.IsAdmin = profile.IsAdmin
	case errors.Is(err, gorm.ErrRecordNotFound):
		// 尚未创建资料的用户按普通成员处理
	default:
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	return principal, nil
}

func (r *SessionResolver) tokenFromRequest(req *http.Request) string {
	if cookie, err := req.Cookie(r.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := req.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

// sessionClaims 托管认证服务的访问令牌声明
type sessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func (r *SessionResolver) parse(token string) (*sessionClaims, error) {
	if len(r.secret) == 0 {
		return nil, fmt.Errorf("%w: signing secret not configured", ErrInvalidSession)
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return r.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidSession)
	}
	return claims, nil
}
