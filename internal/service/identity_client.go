package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"compmatrix-data/internal/config"
)

// Identity 身份服务解析出的调用者信息
type Identity struct {
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
}

// IdentityResolver token → Identity 解析接口（handler 依赖接口便于测试）
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}

// identityResponse 身份服务响应包装
type identityResponse struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Result  Identity `json:"result"`
}

// IdentityClient 外部身份服务 API 客户端
// 认证/角色解析是外部协作方：本服务只消费解析结果
type IdentityClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewIdentityClient 创建身份服务客户端
func NewIdentityClient(cfg config.IdentityConfig, logger *zap.Logger) *IdentityClient {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.HttpAddress).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader("X-Api-Key", cfg.APIKey)
	}

	return &IdentityClient{httpClient: client, logger: logger}
}

// 确保实现了接口
var _ IdentityResolver = (*IdentityClient)(nil)

// Resolve 调用身份服务解析 token
func (c *IdentityClient) Resolve(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, fmt.Errorf("missing token")
	}

	var response identityResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetResult(&response).
		Get("/identity/api/v1/resolve")
	if err != nil {
		c.logger.Error("identity resolve call failed", zap.Error(err))
		return nil, fmt.Errorf("identity service: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("identity service returned status %d", resp.StatusCode())
	}
	if response.Code != 2000 {
		return nil, fmt.Errorf("identity service rejected token: %s", response.Message)
	}
	if response.Result.UserID == "" || response.Result.TenantID == "" {
		return nil, fmt.Errorf("identity service returned incomplete identity")
	}
	return &response.Result, nil
}
