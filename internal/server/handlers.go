package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/shopeetools/revscope/pkg/client"
	"github.com/shopeetools/revscope/pkg/upload"
)

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// handleUpload accepts the browser's spreadsheet, runs the analysis through
// the backend, activates the report's charts server-side, and returns the
// backend payload with html_report replaced by the activated document.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Multipart framing adds overhead beyond the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, upload.MaxFileSize+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "文件大小超过100MB限制")
			return
		}
		writeJSONError(w, http.StatusBadRequest, "无效的上传请求")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "没有上传文件")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "文件读取失败")
		return
	}

	pending, err := s.Uploads.Select(header.Filename, content)
	if err != nil {
		s.Activity.Errorf("%s", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	var activated string
	res, err := s.Backend.Analyze(r.Context(), pending, func(res *client.Result) error {
		out, _, rerr := s.Renderer.Render(res.HTMLReport())
		if rerr != nil {
			return rerr
		}
		activated = out
		return nil
	})
	if err != nil {
		if errors.Is(err, client.ErrBusy) {
			writeJSONError(w, http.StatusConflict, err.Error())
			return
		}
		writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(res.Raw(), &payload); err != nil {
		writeJSONError(w, http.StatusBadGateway, "响应格式错误")
		return
	}
	payload["html_report"] = activated

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(payload)
}

// handleExport builds the export document from the stored result and streams
// it as an attachment. The PDF-to-HTML fallback happens inside the exporter.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	res := s.Backend.Results().Current()
	data, name, err := s.Exporter.Produce(r.Context(), res)
	if err != nil {
		writeJSONError(w, http.StatusConflict, err.Error())
		return
	}

	contentType := "application/pdf"
	if ext := name[len(name)-4:]; ext == "html" {
		contentType = "text/html; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	backendOK, pdfAvailable, err := s.Backend.Health(r.Context())
	status := map[string]interface{}{
		"status":        "ok",
		"backend":       backendOK && err == nil,
		"pdf_available": pdfAvailable,
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(status)
}

// handleActivity returns the retained activity entries, oldest first.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(s.Activity.Entries())
}
