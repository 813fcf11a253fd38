package upload

import (
	"regexp"
	"time"
)

// FileInfo carries the metadata encoded in a review-export filename. The
// backend's file_info is authoritative when present; this local parse covers
// offline use and log display before the upload completes.
type FileInfo struct {
	Site         string
	ProductID    string
	DownloadTime time.Time
}

// Review exports are named {site}(产品id={product_id})评论下载{YYYYMMDDHHmmss}.xlsx,
// e.g. 菲律宾(产品id=29180013510)评论下载20251230080704.xlsx.
var filenamePattern = regexp.MustCompile(`^(.+?)\(产品id=(\d+)\)评论下载(\d{14})\.xlsx$`)

// ParseFilename extracts site, product id and download time from a filename.
// A name that does not match the export grammar yields a zero FileInfo.
func ParseFilename(name string) FileInfo {
	base := name
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' || name[i] == '\\' {
			base = name[i+1:]
			break
		}
	}

	m := filenamePattern.FindStringSubmatch(base)
	if m == nil {
		return FileInfo{}
	}

	info := FileInfo{Site: m[1], ProductID: m[2]}
	if t, err := time.ParseInLocation("20060102150405", m[3], time.Local); err == nil {
		info.DownloadTime = t
	}
	return info
}
