package server

import (
	"bytes"
	"encoding/json"
	stdhtml "html"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopeetools/revscope/pkg/activity"
	"github.com/shopeetools/revscope/pkg/chart"
	"github.com/shopeetools/revscope/pkg/client"
	"github.com/shopeetools/revscope/pkg/export"
	"github.com/shopeetools/revscope/pkg/report"
)

const chartOption = `{"series":[{"type":"pie","data":[{"name":"五星","value":88}]}]}`

func backendResponse() string {
	reportHTML := `<h2>评价分析</h2><div class="echarts-chart-container" data-echarts-chart="` +
		stdhtml.EscapeString(chartOption) + `"></div>`
	payload := map[string]interface{}{
		"success":     true,
		"file_info":   map[string]string{"site": "SG", "product_id": "12345"},
		"analysis":    map[string]interface{}{"rating": map[string]interface{}{"total_reviews": 120, "average_rating": 4.3}},
		"html_report": reportHTML,
	}
	b, _ := json.Marshal(payload)
	return string(b)
}

// newTestServer wires a full Server against a fake backend.
func newTestServer(t *testing.T, backend http.HandlerFunc) (*Server, *httptest.Server) {
	t.Helper()
	bk := httptest.NewServer(backend)
	t.Cleanup(bk.Close)

	log := activity.New(nil)
	c := client.New(bk.URL, log)
	exporter := export.New(bk.URL, t.TempDir(), log)
	engine := chart.NewEngine(chart.NewHeadlessRenderer(), nil)
	renderer := report.NewRenderer(engine)
	return New(c, exporter, renderer, log, "", ""), bk
}

func multipartUpload(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write(content)
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadActivatesCharts(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(backendResponse()))
	})

	rec := httptest.NewRecorder()
	srv.handleUpload(rec, multipartUpload(t, "SG(产品id=12345)评论下载20260101120000.xlsx", []byte("xlsx")))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	html, _ := payload["html_report"].(string)
	if !strings.Contains(html, `class="report-content"`) {
		t.Fatal("html_report should be the activated document")
	}
	if !strings.Contains(html, chart.OptionAttr) {
		t.Fatal("activated placeholder should carry the corrected option attribute")
	}
	if !strings.Contains(html, "评价分析") {
		t.Fatal("report markup must survive activation")
	}
	if srv.Backend.Results().Current() == nil {
		t.Fatal("result should be stored for export")
	}
}

func TestUploadRejectsBadExtension(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be called for an invalid file")
	})

	rec := httptest.NewRecorder()
	srv.handleUpload(rec, multipartUpload(t, "reviews.csv", []byte("a,b")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "仅支持 .xlsx 格式文件") {
		t.Fatalf("unexpected error body: %s", rec.Body.String())
	}
}

func TestUploadMalformedForm(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be called for a malformed request")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("not a multipart body"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	rec := httptest.NewRecorder()
	srv.handleUpload(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "无效的上传请求") {
		t.Fatalf("unexpected error body: %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "100MB") {
		t.Fatal("a malformed body must not be reported as oversize")
	}
}

func TestUploadBackendFailure(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message": "分析引擎崩溃"}`))
	})

	rec := httptest.NewRecorder()
	srv.handleUpload(rec, multipartUpload(t, "SG(产品id=12345)评论下载20260101120000.xlsx", []byte("xlsx")))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "分析引擎崩溃") {
		t.Fatalf("backend message should pass through, got %s", rec.Body.String())
	}
}

func TestExportWithoutResult(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

	rec := httptest.NewRecorder()
	srv.handleExport(rec, httptest.NewRequest(http.MethodPost, "/api/export/pdf", nil))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "没有可导出的报告") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestExportStreamsFallbackHTML(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/upload":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(backendResponse()))
		case "/api/export/pdf":
			http.Error(w, "not found", http.StatusNotFound)
		}
	})

	rec := httptest.NewRecorder()
	srv.handleUpload(rec, multipartUpload(t, "SG(产品id=12345)评论下载20260101120000.xlsx", []byte("xlsx")))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.handleExport(rec, httptest.NewRequest(http.MethodPost, "/api/export/pdf", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("Content-Type = %q, want HTML fallback", ct)
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "attachment") || !strings.Contains(cd, "SG_") {
		t.Fatalf("Content-Disposition = %q", cd)
	}
	if !strings.Contains(rec.Body.String(), "<!DOCTYPE html>") {
		t.Fatal("fallback export should be a standalone document")
	}
}

func TestHealthReportsBackendState(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok", "pdf_available": true}`))
	})

	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	var status map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status["backend"] != true || status["pdf_available"] != true {
		t.Fatalf("unexpected health payload: %v", status)
	}
}

func TestActivityEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Activity.Infof("第一条")
	srv.Activity.Errorf("第二条")

	rec := httptest.NewRecorder()
	srv.handleActivity(rec, httptest.NewRequest(http.MethodGet, "/api/activity", nil))

	var entries []activity.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 || entries[0].Message != "第一条" || entries[1].Level != activity.LevelError {
		t.Fatalf("unexpected entries: %v", entries)
	}
}

func TestBasicAuth(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Username = "admin"
	srv.Password = "secret"

	handler := srv.basicAuth(srv.handleActivity)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/activity", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no credentials: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/activity", nil)
	req.SetBasicAuth("admin", "secret")
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid credentials: status = %d", rec.Code)
	}
}
