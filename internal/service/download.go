// download.go — отдача одного файла с поддержкой Range-запросов
// для докачки прерванных загрузок.
package service

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	apierrors "github.com/bigkaa/gofileshare/internal/api/errors"
	"github.com/bigkaa/gofileshare/internal/api/middleware"
	"github.com/bigkaa/gofileshare/internal/domain/model"
	"github.com/bigkaa/gofileshare/internal/storage/filestore"
)

// DownloadError — ошибка скачивания с HTTP-кодом.
type DownloadError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// DownloadService — сервис отдачи файлов клиенту.
type DownloadService struct {
	store  *filestore.FileStore
	logger *slog.Logger
}

// NewDownloadService создаёт сервис скачивания файлов.
func NewDownloadService(store *filestore.FileStore, logger *slog.Logger) *DownloadService {
	return &DownloadService{
		store:  store,
		logger: logger.With(slog.String("component", "download_service")),
	}
}

// Serve отдаёт файл клиенту, учитывая необязательный заголовок Range.
//
// Без Range — полная отдача (200) с Content-Length и Content-Disposition
// по оригинальному имени. С Range bytes=start-end (end опционален,
// означает EOF) — 206 Partial Content с ровно end-start+1 байтами и
// заголовком Content-Range, позволяющим клиенту докачать остаток.
// Диапазон вне границ файла — 416. Файл читается потоково и
// закрывается на любом пути выхода, включая обрыв соединения.
func (s *DownloadService) Serve(w http.ResponseWriter, r *http.Request, storageName string) *DownloadError {
	file, err := s.store.Open(storageName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &DownloadError{
				StatusCode: 404,
				Code:       apierrors.CodeNotFound,
				Message:    fmt.Sprintf("Файл %s не найден", storageName),
			}
		}
		s.logger.Error("Ошибка открытия файла",
			slog.String("storage_name", storageName),
			slog.String("error", err.Error()),
		)
		return &DownloadError{
			StatusCode: 500,
			Code:       apierrors.CodeInternalError,
			Message:    "Ошибка чтения файла",
		}
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return &DownloadError{
			StatusCode: 500,
			Code:       apierrors.CodeInternalError,
			Message:    "Ошибка чтения файла",
		}
	}
	size := stat.Size()
	originalName := model.OriginalName(storageName)

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentTypeFor(originalName))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", originalName))

	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" {
		// Полная отдача
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)

		if _, err := io.Copy(w, file); err != nil {
			// Обрыв соединения клиентом: чтение остановлено, handle закроется defer-ом
			s.logger.Debug("Передача файла прервана",
				slog.String("storage_name", storageName),
				slog.String("error", err.Error()),
			)
			return nil
		}

		middleware.OperationsTotal.WithLabelValues("download", "success").Inc()
		return nil
	}

	start, end, err := parseRange(rangeHeader, size)
	if err != nil {
		// RFC 9110: при 416 сообщаем полный размер ресурса
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		return &DownloadError{
			StatusCode: http.StatusRequestedRangeNotSatisfiable,
			Code:       apierrors.CodeInvalidRange,
			Message:    err.Error(),
		}
	}

	if _, err := file.Seek(start, io.SeekStart); err != nil {
		return &DownloadError{
			StatusCode: 500,
			Code:       apierrors.CodeInternalError,
			Message:    "Ошибка позиционирования в файле",
		}
	}

	length := end - start + 1
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	w.WriteHeader(http.StatusPartialContent)

	if _, err := io.CopyN(w, file, length); err != nil {
		s.logger.Debug("Частичная передача прервана",
			slog.String("storage_name", storageName),
			slog.Int64("start", start),
			slog.Int64("end", end),
			slog.String("error", err.Error()),
		)
		return nil
	}

	middleware.OperationsTotal.WithLabelValues("download", "success").Inc()

	s.logger.Debug("Диапазон отдан",
		slog.String("storage_name", storageName),
		slog.Int64("start", start),
		slog.Int64("end", end),
		slog.Int64("total", size),
	)
	return nil
}

// parseRange разбирает заголовок Range вида bytes=start-end.
// end опционален и означает size-1. Поддерживается ровно один диапазон;
// суффиксная форма bytes=-N не поддерживается. Диапазон валиден при
// 0 <= start <= end < size.
func parseRange(header string, size int64) (start, end int64, err error) {
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return 0, 0, fmt.Errorf("некорректный заголовок Range: %q", header)
	}
	if strings.Contains(spec, ",") {
		return 0, 0, fmt.Errorf("множественные диапазоны не поддерживаются: %q", header)
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok || startStr == "" {
		return 0, 0, fmt.Errorf("некорректный диапазон: %q", header)
	}

	start, err = strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return 0, 0, fmt.Errorf("некорректное начало диапазона: %q", header)
	}

	if endStr == "" {
		end = size - 1
	} else {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("некорректный конец диапазона: %q", header)
		}
	}

	if start > end || end >= size {
		return 0, 0, fmt.Errorf("диапазон %d-%d вне границ файла размером %d", start, end, size)
	}
	return start, end, nil
}

// contentTypeFor возвращает MIME-тип по расширению оригинального имени,
// либо application/octet-stream для неизвестных расширений.
func contentTypeFor(originalName string) string {
	if ct := mime.TypeByExtension(filepath.Ext(originalName)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
