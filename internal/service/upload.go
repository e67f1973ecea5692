// Пакет service — бизнес-логика файлового обменника.
// upload.go — конвейер приёма пакета загружаемых файлов.
package service

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	apierrors "github.com/bigkaa/gofileshare/internal/api/errors"
	"github.com/bigkaa/gofileshare/internal/api/middleware"
	"github.com/bigkaa/gofileshare/internal/config"
	"github.com/bigkaa/gofileshare/internal/domain/model"
	"github.com/bigkaa/gofileshare/internal/storage/filestore"
	"github.com/bigkaa/gofileshare/internal/storage/thumbnail"
)

// UploadFile — один входящий файл пакета загрузки.
type UploadFile struct {
	// Reader — поток данных файла
	Reader io.Reader
	// OriginalName — имя файла, указанное клиентом
	OriginalName string
	// ContentType — MIME-тип, заявленный клиентом
	ContentType string
	// Size — размер файла в байтах (из multipart part)
	Size int64
}

// UploadError — ошибка загрузки с HTTP-кодом.
type UploadError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// UploadService — сервис приёма пакетов загрузки.
type UploadService struct {
	cfg    *config.Config
	store  *filestore.FileStore
	logger *slog.Logger
}

// NewUploadService создаёт сервис загрузки файлов.
func NewUploadService(cfg *config.Config, store *filestore.FileStore, logger *slog.Logger) *UploadService {
	return &UploadService{
		cfg:    cfg,
		store:  store,
		logger: logger.With(slog.String("component", "upload_service")),
	}
}

// Ingest принимает упорядоченный пакет файлов и сохраняет каждый
// под сгенерированным именем хранения.
//
// Поток:
//  1. Проверка лимитов пакета (количество, размер каждого файла) —
//     до записи первого байта в директорию хранения
//  2. Для каждого файла по порядку: streaming-запись на диск
//  3. Для изображений — генерация миниатюры (нефатально при ошибке)
//  4. Формирование записи метаданных
func (s *UploadService) Ingest(batch []UploadFile) ([]model.FileInfo, *UploadError) {
	if len(batch) == 0 {
		return nil, &UploadError{
			StatusCode: 400,
			Code:       apierrors.CodeValidationError,
			Message:    "Пакет загрузки пуст",
		}
	}

	// Лимиты пакета проверяются целиком до записи первого файла:
	// частичное сохранение отклонённого пакета недопустимо.
	if len(batch) > s.cfg.MaxFiles {
		return nil, &UploadError{
			StatusCode: 400,
			Code:       apierrors.CodeTooManyFiles,
			Message:    fmt.Sprintf("В пакете %d файлов, максимум %d", len(batch), s.cfg.MaxFiles),
		}
	}
	for _, f := range batch {
		if f.Size > s.cfg.MaxFileSize {
			return nil, &UploadError{
				StatusCode: 413,
				Code:       apierrors.CodeFileTooLarge,
				Message: fmt.Sprintf("Размер файла %q (%d байт) превышает максимум %d байт",
					f.OriginalName, f.Size, s.cfg.MaxFileSize),
			}
		}
	}

	// batch_id — только для корреляции записей лога
	batchID := uuid.New().String()[:8]

	records := make([]model.FileInfo, 0, len(batch))
	for _, f := range batch {
		saved, err := s.store.Save(f.Reader, f.OriginalName)
		if err != nil {
			s.logger.Error("Ошибка сохранения файла",
				slog.String("batch_id", batchID),
				slog.String("filename", f.OriginalName),
				slog.String("error", err.Error()),
			)
			middleware.OperationsTotal.WithLabelValues("upload", "error").Inc()
			return nil, &UploadError{
				StatusCode: 500,
				Code:       apierrors.CodeInternalError,
				Message:    fmt.Sprintf("Ошибка сохранения файла %q на диск", f.OriginalName),
			}
		}

		// Миниатюра — только для изображений; ошибка не прерывает приём
		hasThumb := false
		if strings.HasPrefix(f.ContentType, "image/") {
			if thumbErr := thumbnail.Generate(saved.FullPath, s.store.ThumbPath(saved.StorageName)); thumbErr != nil {
				s.logger.Warn("Ошибка генерации миниатюры",
					slog.String("batch_id", batchID),
					slog.String("storage_name", saved.StorageName),
					slog.String("error", thumbErr.Error()),
				)
			} else {
				hasThumb = true
			}
		}

		info, err := s.store.Stat(saved.StorageName)
		if err != nil {
			middleware.OperationsTotal.WithLabelValues("upload", "error").Inc()
			return nil, &UploadError{
				StatusCode: 500,
				Code:       apierrors.CodeInternalError,
				Message:    fmt.Sprintf("Ошибка чтения метаданных файла %q", f.OriginalName),
			}
		}

		records = append(records, model.FileInfo{
			Filename:     saved.StorageName,
			OriginalName: f.OriginalName,
			Size:         saved.Size,
			UploadTime:   info.ModTime().UTC(),
			MimeType:     detectContentType(f.ContentType),
			Category:     model.Categorize(f.OriginalName),
			HasThumb:     hasThumb,
		})

		middleware.OperationsTotal.WithLabelValues("upload", "success").Inc()
		middleware.UploadBytesTotal.Add(float64(saved.Size))

		s.logger.Info("Файл загружен",
			slog.String("batch_id", batchID),
			slog.String("storage_name", saved.StorageName),
			slog.String("filename", f.OriginalName),
			slog.Int64("size", saved.Size),
			slog.Bool("has_thumb", hasThumb),
		)
	}

	return records, nil
}

// detectContentType нормализует MIME-тип из заголовка multipart part.
// Если не указан — используется application/octet-stream.
func detectContentType(contentType string) string {
	if contentType == "" {
		return "application/octet-stream"
	}
	// Убираем параметры (charset и т.д.)
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	return contentType
}
