package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopeetools/revscope/pkg/activity"
	"github.com/shopeetools/revscope/pkg/upload"
)

const analysisResponse = `{
	"success": true,
	"file_info": {"site": "SG", "product_id": "12345"},
	"analysis": {"rating": {"total_reviews": 120, "average_rating": 4.3}},
	"html_report": "<div>报告</div>"
}`

func pendingFile(t *testing.T) *upload.UploadedFile {
	t.Helper()
	c := upload.NewController()
	f, err := c.Select("SG(产品id=12345)评论下载20260101120000.xlsx", []byte("fake-xlsx-bytes"))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	return f
}

func logMessages(log *activity.Log) []string {
	var out []string
	for _, e := range log.Entries() {
		out = append(out, e.Message)
	}
	return out
}

func TestAnalyzeSuccess(t *testing.T) {
	var uploadedName string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/upload" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing multipart file field: %v", err)
		} else {
			f.Close()
			uploadedName = hdr.Filename
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(analysisResponse))
	}))
	defer srv.Close()

	log := activity.New(nil)
	c := New(srv.URL, log)

	rendered := false
	res, err := c.Analyze(context.Background(), pendingFile(t), func(r *Result) error {
		rendered = true
		if r.HTMLReport() != "<div>报告</div>" {
			t.Errorf("html_report = %q", r.HTMLReport())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !rendered {
		t.Fatal("render callback not invoked")
	}
	if uploadedName != "SG(产品id=12345)评论下载20260101120000.xlsx" {
		t.Fatalf("uploaded filename %q", uploadedName)
	}

	if c.Results().Current() != res {
		t.Fatal("result not stored in holder")
	}
	if res.TotalReviews() != 120 || res.AverageRating() != 4.3 {
		t.Fatalf("rating fields: %d / %v", res.TotalReviews(), res.AverageRating())
	}
	if res.Site() != "SG" || res.ProductID() != "12345" {
		t.Fatalf("file info: %s / %s", res.Site(), res.ProductID())
	}

	msgs := strings.Join(logMessages(log), "\n")
	if !strings.Contains(msgs, "120") || !strings.Contains(msgs, "4.3") {
		t.Fatalf("log should show total reviews and average rating:\n%s", msgs)
	}
	if c.State() != StateIdle {
		t.Fatalf("state = %s, want idle", c.State())
	}
}

func TestAnalyzeServerErrorMessagePreference(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
		want string
	}{
		{"message preferred", 500, `{"message":"decode error","error":"处理失败"}`, "decode error"},
		{"error fallback", 400, `{"error":"文件格式不正确"}`, "文件格式不正确"},
		{"generic fallback", 502, `not json`, "服务器错误 502 Bad Gateway"},
		{"empty body", 500, ``, "服务器错误 500 Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts++
				if attempts > 1 {
					w.Write([]byte(analysisResponse))
					return
				}
				w.WriteHeader(tt.code)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			log := activity.New(nil)
			c := New(srv.URL, log)
			_, err := c.Analyze(context.Background(), pendingFile(t), nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tt.want {
				t.Fatalf("err = %q, want %q", err.Error(), tt.want)
			}

			msgs := strings.Join(logMessages(log), "\n")
			if !strings.Contains(msgs, "分析失败: "+tt.want) {
				t.Fatalf("log missing failure message:\n%s", msgs)
			}
			// The client must settle so the user can retry.
			if c.State() != StateFailed {
				t.Fatalf("state = %s, want failed", c.State())
			}
			if attempts != 1 {
				t.Fatalf("attempts = %d, want 1 (no transparent retry)", attempts)
			}
			if _, err := c.Analyze(context.Background(), pendingFile(t), nil); err != nil {
				t.Fatalf("retry after failure: %v", err)
			}
			if c.State() != StateIdle {
				t.Fatalf("state after retry = %s, want idle", c.State())
			}
		})
	}
}

func TestAnalyzeWithoutFile(t *testing.T) {
	c := New("http://127.0.0.1:0", activity.New(nil))
	if _, err := c.Analyze(context.Background(), nil, nil); !errors.Is(err, ErrNoPendingFile) {
		t.Fatalf("err = %v, want ErrNoPendingFile", err)
	}
	if c.State() != StateIdle {
		t.Fatalf("state = %s, want idle", c.State())
	}
}

func TestAnalyzeSingleFlight(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(analysisResponse))
	}))
	defer srv.Close()

	log := activity.New(nil)
	c := New(srv.URL, log)
	file := pendingFile(t)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Analyze(context.Background(), file, nil)
	}()

	// Wait for the first analysis to reach uploading.
	for c.State() != StateUploading {
		time.Sleep(time.Millisecond)
	}

	if _, err := c.Analyze(context.Background(), file, nil); !errors.Is(err, ErrBusy) {
		t.Fatalf("second analysis should be rejected with ErrBusy, got %v", err)
	}

	close(release)
	wg.Wait()
	if c.State() != StateIdle {
		t.Fatalf("state = %s, want idle after settle", c.State())
	}
}

func TestAnalyzeReplacesStoredResult(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Write([]byte(analysisResponse))
			return
		}
		w.Write([]byte(`{"html_report":"<div>新报告</div>","analysis":{"rating":{"total_reviews":7,"average_rating":5}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, activity.New(nil))
	file := pendingFile(t)

	first, err := c.Analyze(context.Background(), file, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	second, err := c.Analyze(context.Background(), file, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if c.Results().Current() != second || c.Results().Current() == first {
		t.Fatal("holder should own exactly the latest result")
	}
	if second.TotalReviews() != 7 {
		t.Fatalf("total reviews = %d", second.TotalReviews())
	}
}

func TestRenderFailureSettlesFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(analysisResponse))
	}))
	defer srv.Close()

	c := New(srv.URL, activity.New(nil))
	_, err := c.Analyze(context.Background(), pendingFile(t), func(*Result) error {
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected render error to propagate")
	}
	if c.State() != StateFailed {
		t.Fatalf("state = %s, want failed", c.State())
	}
	// The result is still stored; export stays possible.
	if c.Results().Current() == nil {
		t.Fatal("result should be stored before rendering")
	}
}
