package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bigkaa/gofileshare/internal/storage/filestore"
)

// newDownload создаёт сервис скачивания с одним сохранённым файлом.
func newDownload(t *testing.T, name, content string) (*DownloadService, string) {
	t.Helper()

	store, err := filestore.New(t.TempDir())
	if err != nil {
		t.Fatalf("filestore.New вернул ошибку: %v", err)
	}
	saved, err := store.Save(strings.NewReader(content), name)
	if err != nil {
		t.Fatalf("Ошибка сохранения файла: %v", err)
	}

	return NewDownloadService(store, testLogger()), saved.StorageName
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		header    string
		size      int64
		wantStart int64
		wantEnd   int64
		wantErr   bool
	}{
		{"bytes=0-499", 1000, 0, 499, false},
		{"bytes=500-999", 1000, 500, 999, false},
		{"bytes=500-", 1000, 500, 999, false},
		{"bytes=0-0", 1000, 0, 0, false},
		{"bytes=999-999", 1000, 999, 999, false},
		// Конец за границей файла
		{"bytes=0-1000", 1000, 0, 0, true},
		// Начало за границей файла
		{"bytes=1000-", 1000, 0, 0, true},
		// start > end
		{"bytes=500-100", 1000, 0, 0, true},
		// Суффиксная форма не поддерживается
		{"bytes=-500", 1000, 0, 0, true},
		// Множественные диапазоны не поддерживаются
		{"bytes=0-100,200-300", 1000, 0, 0, true},
		// Не bytes
		{"items=0-100", 1000, 0, 0, true},
		// Мусор
		{"bytes=abc-def", 1000, 0, 0, true},
		{"bytes=", 1000, 0, 0, true},
	}

	for _, tt := range tests {
		start, end, err := parseRange(tt.header, tt.size)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseRange(%q): ожидалась ошибка", tt.header)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseRange(%q) вернул ошибку: %v", tt.header, err)
			continue
		}
		if start != tt.wantStart || end != tt.wantEnd {
			t.Errorf("parseRange(%q) = (%d, %d), ожидалось (%d, %d)",
				tt.header, start, end, tt.wantStart, tt.wantEnd)
		}
	}
}

func TestServeFull(t *testing.T) {
	content := "полное содержимое файла"
	svc, storageName := newDownload(t, "doc.txt", content)

	req := httptest.NewRequest(http.MethodGet, "/files/"+storageName+"/download", nil)
	rec := httptest.NewRecorder()

	if dlErr := svc.Serve(rec, req, storageName); dlErr != nil {
		t.Fatalf("Serve вернул ошибку: %v", dlErr)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Код ответа = %d, ожидался 200", rec.Code)
	}
	if got := rec.Body.String(); got != content {
		t.Errorf("Тело ответа = %q, ожидалось %q", got, content)
	}
	if got := rec.Header().Get("Accept-Ranges"); got != "bytes" {
		t.Errorf("Accept-Ranges = %q, ожидалось bytes", got)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "doc.txt") {
		t.Errorf("Content-Disposition = %q, не содержит оригинального имени", got)
	}
}

func TestServePartial(t *testing.T) {
	svc, storageName := newDownload(t, "data.bin", "0123456789")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Range", "bytes=2-5")
	rec := httptest.NewRecorder()

	if dlErr := svc.Serve(rec, req, storageName); dlErr != nil {
		t.Fatalf("Serve вернул ошибку: %v", dlErr)
	}

	if rec.Code != http.StatusPartialContent {
		t.Errorf("Код ответа = %d, ожидался 206", rec.Code)
	}
	if got := rec.Body.String(); got != "2345" {
		t.Errorf("Тело ответа = %q, ожидалось 2345", got)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 2-5/10" {
		t.Errorf("Content-Range = %q, ожидалось bytes 2-5/10", got)
	}
	if got := rec.Header().Get("Content-Length"); got != "4" {
		t.Errorf("Content-Length = %q, ожидалось 4", got)
	}
}

func TestServeOpenEndedRange(t *testing.T) {
	svc, storageName := newDownload(t, "data.bin", "0123456789")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Range", "bytes=7-")
	rec := httptest.NewRecorder()

	if dlErr := svc.Serve(rec, req, storageName); dlErr != nil {
		t.Fatalf("Serve вернул ошибку: %v", dlErr)
	}
	if got := rec.Body.String(); got != "789" {
		t.Errorf("Тело ответа = %q, ожидалось 789", got)
	}
}

func TestServeInvalidRange(t *testing.T) {
	svc, storageName := newDownload(t, "data.bin", "0123456789")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Range", "bytes=50-60")
	rec := httptest.NewRecorder()

	dlErr := svc.Serve(rec, req, storageName)
	if dlErr == nil {
		t.Fatal("Ожидалась ошибка для диапазона вне границ файла")
	}
	if dlErr.StatusCode != http.StatusRequestedRangeNotSatisfiable {
		t.Errorf("StatusCode = %d, ожидался 416", dlErr.StatusCode)
	}
	// RFC 9110: при 416 сообщается полный размер ресурса
	if got := rec.Header().Get("Content-Range"); got != "bytes */10" {
		t.Errorf("Content-Range = %q, ожидалось bytes */10", got)
	}
}

func TestServeNotFound(t *testing.T) {
	svc, _ := newDownload(t, "data.bin", "0123456789")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	dlErr := svc.Serve(rec, req, "1693230000000-missing.txt")
	if dlErr == nil {
		t.Fatal("Ожидалась ошибка для отсутствующего файла")
	}
	if dlErr.StatusCode != 404 {
		t.Errorf("StatusCode = %d, ожидался 404", dlErr.StatusCode)
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"report.pdf", "application/pdf"},
		{"page.html", "text/html; charset=utf-8"},
		{"unknown.xyz123", "application/octet-stream"},
		{"noext", "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := contentTypeFor(tt.name); got != tt.want {
			t.Errorf("contentTypeFor(%q) = %q, ожидалось %q", tt.name, got, tt.want)
		}
	}
}
