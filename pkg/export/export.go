// Package export turns the current analysis into a downloadable document:
// a backend-rendered PDF when the conversion endpoint works, a self-contained
// HTML document otherwise.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/shopeetools/revscope/pkg/activity"
	"github.com/shopeetools/revscope/pkg/client"
)

var ErrNoResult = errors.New("没有可导出的报告，请先完成分析")

type Exporter struct {
	base   string
	http   *retryablehttp.Client
	log    *activity.Log
	outDir string
	now    func() time.Time
}

func New(base, outDir string, log *activity.Log) *Exporter {
	hc := retryablehttp.NewClient()
	hc.Logger = nil
	hc.RetryMax = 0
	// 5xx responses carry the backend's error body; hand them back instead
	// of a giving-up error.
	hc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &Exporter{base: base, http: hc, log: log, outDir: outDir, now: time.Now}
}

// SetHTTPClient swaps the underlying client (proxies, tests).
func (e *Exporter) SetHTTPClient(hc *retryablehttp.Client) { e.http = hc }

// Produce builds the export document for the stored result: the backend PDF
// when the conversion endpoint works, otherwise the local HTML fallback.
// The returned name follows the report naming convention.
func (e *Exporter) Produce(ctx context.Context, res *client.Result) (data []byte, name string, err error) {
	if res == nil || res.HTMLReport() == "" {
		e.log.Errorf("%s", ErrNoResult)
		return nil, "", ErrNoResult
	}

	data, err = e.fetchPDF(ctx, res)
	if err == nil {
		return data, Filename(res.Site(), res.ProductID(), e.now(), "pdf"), nil
	}
	e.log.Warnf("PDF导出失败，降级为HTML导出: %s", err)

	data = []byte(FallbackDocument(res.HTMLReport()))
	return data, Filename(res.Site(), res.ProductID(), e.now(), "html"), nil
}

// Export writes the export document to the output directory and returns the
// written path. Only a failure of the fallback write is terminal.
func (e *Exporter) Export(ctx context.Context, res *client.Result) (string, error) {
	data, name, err := e.Produce(ctx, res)
	if err != nil {
		return "", err
	}

	path, err := e.write(name, data)
	if err != nil {
		e.log.Errorf("导出失败: %s", err)
		return "", err
	}
	e.log.Successf("导出完成: %s", name)
	return path, nil
}

func (e *Exporter) fetchPDF(ctx context.Context, res *client.Result) ([]byte, error) {
	payload, err := json.Marshal(map[string]string{"html_content": res.HTMLReport()})
	if err != nil {
		return nil, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, e.base+"/api/export/pdf", payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.New(exportError(resp.StatusCode, body))
	}
	return body, nil
}

// write lands the document atomically: a temp file in the target directory,
// renamed into place, removed on failure.
func (e *Exporter) write(name string, content []byte) (string, error) {
	if e.outDir != "" {
		if err := os.MkdirAll(e.outDir, 0o755); err != nil {
			return "", err
		}
	}
	path := filepath.Join(e.outDir, name)

	tmp, err := os.CreateTemp(e.outDir, ".export-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return path, nil
}

func exportError(status int, body []byte) string {
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

// Filename builds <site>_产品ID_<product_id>_分析报告_<stamp>.<ext>, with the
// timestamp truncated to whole seconds and its colons and periods replaced
// so the name is filesystem-safe.
func Filename(site, productID string, t time.Time, ext string) string {
	if site == "" {
		site = "Shopee"
	}
	if productID == "" {
		productID = "未知"
	}
	stamp := t.UTC().Format("2006-01-02T15:04:05")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return fmt.Sprintf("%s_产品ID_%s_分析报告_%s.%s", site, productID, stamp, ext)
}
