package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultServerURL = "http://localhost:8080"

// Client 与 demotools 服务通信的 HTTP 客户端
type Client struct {
	serverURL  string
	httpClient *http.Client
}

// NewClient 创建新的 HTTP 客户端
func NewClient(serverURL string) *Client {
	if serverURL == "" {
		serverURL = DefaultServerURL
	}
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		// 任务同步执行，可能持续较久
		httpClient: &http.Client{Timeout: 30 * time.Minute},
	}
}

// GetServerURL 返回服务器 URL
func (c *Client) GetServerURL() string {
	return c.serverURL
}

// PostJSON 发送 POST 请求，把格式化后的响应写到 out
func (c *Client) PostJSON(ctx context.Context, endpoint string, body interface{}, out io.Writer) error {
	data, err := c.do(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	return writePretty(out, data)
}

// GetJSON 发送 GET 请求，把格式化后的响应写到 out
func (c *Client) GetJSON(ctx context.Context, endpoint string, out io.Writer) error {
	data, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return writePretty(out, data)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body interface{}) ([]byte, error) {
	var payload io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		payload = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+endpoint, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP error: status code %d, response: %s", resp.StatusCode, string(bodyBytes))
	}
	return bodyBytes, nil
}

// writePretty 格式化失败时原样输出
func writePretty(out io.Writer, data []byte) error {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		_, werr := fmt.Fprintln(out, string(data))
		return werr
	}
	_, err := fmt.Fprintln(out, pretty.String())
	return err
}
