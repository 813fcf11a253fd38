// Package client talks to the remote review-analysis backend. The backend is
// opaque: one multipart upload endpoint returns the full analysis payload,
// and a health endpoint reports availability.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/shopeetools/revscope/pkg/activity"
	"github.com/shopeetools/revscope/pkg/upload"
)

var ErrNoPendingFile = errors.New("请先选择要分析的文件")

type Client struct {
	base    string
	http    *retryablehttp.Client
	log     *activity.Log
	state   stateMachine
	results Holder
}

// New builds a client for the backend at base (e.g. "http://127.0.0.1:5000").
func New(base string, log *activity.Log) *Client {
	hc := retryablehttp.NewClient()
	hc.Logger = nil
	// A failed analysis is retried by the user, not transparently, and a
	// 5xx response must come back as a response so its body can be read.
	hc.RetryMax = 0
	hc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &Client{base: base, http: hc, log: log}
}

// SetHTTPClient swaps the underlying client (proxies, tests).
func (c *Client) SetHTTPClient(hc *retryablehttp.Client) { c.http = hc }

func (c *Client) State() State { return c.state.state() }

// Results exposes the single-owner holder of the latest analysis.
func (c *Client) Results() *Holder { return &c.results }

// Analyze uploads the pending file and stores the returned analysis as the
// current result. render, when non-nil, receives the stored result before the
// call settles (the report renderer hooks in here). At most one analysis is
// in flight at a time; the state machine always returns to a resting state.
func (c *Client) Analyze(ctx context.Context, file *upload.UploadedFile, render func(*Result) error) (*Result, error) {
	if file == nil {
		c.log.Errorf("请先选择要分析的文件")
		return nil, ErrNoPendingFile
	}
	if err := c.state.begin(); err != nil {
		c.log.Errorf("%s", err)
		return nil, err
	}

	ok := false
	defer func() { c.state.settle(ok) }()

	c.log.Infof("正在上传并分析文件: %s (%s)", file.Name, upload.FormatSize(file.Size))

	status, body, err := c.postFile(ctx, file)
	if err != nil {
		c.log.Errorf("分析失败: %s", err)
		return nil, fmt.Errorf("上传请求失败: %w", err)
	}
	if status < 200 || status > 299 {
		msg := errorMessage(status, body)
		c.log.Errorf("分析失败: %s", msg)
		return nil, errors.New(msg)
	}
	if !gjson.ValidBytes(body) {
		c.log.Errorf("分析失败: 响应格式错误")
		return nil, errors.New("响应格式错误")
	}

	result := NewResult(body)
	c.results.Replace(result)

	total, avg := result.ratingDisplay()
	c.log.Successf("分析完成: 共 %s 条评论，平均评分 %s", total, avg)

	if render != nil {
		c.state.toRendering()
		if err := render(result); err != nil {
			c.log.Errorf("报告渲染失败: %s", err)
			return result, err
		}
	}

	ok = true
	return result, nil
}

func (c *Client) postFile(ctx context.Context, file *upload.UploadedFile) (int, []byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", file.Name)
	if err != nil {
		return 0, nil, err
	}
	if _, err := fw.Write(file.Content); err != nil {
		return 0, nil, err
	}
	if err := mw.Close(); err != nil {
		return 0, nil, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/upload", buf.Bytes())
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

// errorMessage extracts a human-readable failure from an error response body,
// preferring "message", then "error", then a generic string from the status.
func errorMessage(status int, body []byte) string {
	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "message"); msg.Exists() && msg.String() != "" {
			return msg.String()
		}
		if msg := gjson.GetBytes(body, "error"); msg.Exists() && msg.String() != "" {
			return msg.String()
		}
	}
	return fmt.Sprintf("服务器错误 %d %s", status, http.StatusText(status))
}

// Health probes the backend's health endpoint.
func (c *Client) Health(ctx context.Context) (ok bool, pdfAvailable bool, err error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/health", nil)
	if err != nil {
		return false, false, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false, false, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, false, err
	}
	if resp.StatusCode != http.StatusOK {
		return false, false, fmt.Errorf("健康检查失败: %d", resp.StatusCode)
	}
	return gjson.GetBytes(body, "status").String() == "ok",
		gjson.GetBytes(body, "pdf_available").Bool(), nil
}
