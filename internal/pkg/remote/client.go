package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/3Eeeecho/go-linktrack/internal/config"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/logger"
	syncsvc "github.com/3Eeeecho/go-linktrack/internal/services/sync"
	"go.uber.org/zap"
)

// 每页拉取条数，远端接口的分页对同步引擎不可见
const pageSize = 200

// Client 远端分享平台列表接口的 HTTP 客户端，实现 sync.RemoteSource
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ syncsvc.RemoteSource = (*Client)(nil)

// NewClient 创建一个新的远端客户端实例
func NewClient(cfg *config.RemoteConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type listResponse struct {
	Items []syncsvc.RemoteLink `json:"items"`
	Total int                  `json:"total"`
}

// FetchAll 拉取整个组织的完整链接集合
// 内部逐页拉取直到取完，任何一页失败都让整体失败，不返回半套数据
func (c *Client) FetchAll(ctx context.Context) ([]syncsvc.RemoteLink, error) {
	var all []syncsvc.RemoteLink
	for page := 1; ; page++ {
		resp, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, resp.Items...)
		if len(resp.Items) < pageSize || len(all) >= resp.Total {
			break
		}
	}
	logger.Debug("Fetched remote link listing", zap.Int("total", len(all)))
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, page int) (*listResponse, error) {
	u, err := url.Parse(c.baseURL + "/api/v1/shared-links")
	if err != nil {
		return nil, fmt.Errorf("无效的远端地址: %w", err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("构造远端请求失败: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求远端列表接口失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("远端列表接口返回异常状态码 %d", resp.StatusCode)
	}

	var result listResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("解析远端列表响应失败: %w", err)
	}
	return &result, nil
}
