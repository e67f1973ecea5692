// delete.go — удаление хранимых файлов вместе с их миниатюрами.
package service

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	apierrors "github.com/bigkaa/gofileshare/internal/api/errors"
	"github.com/bigkaa/gofileshare/internal/api/middleware"
	"github.com/bigkaa/gofileshare/internal/storage/filestore"
)

// DeleteError — ошибка удаления с HTTP-кодом.
type DeleteError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// DeleteResult — результат удаления одного файла в пакетной операции.
type DeleteResult struct {
	// Filename — имя файла хранения из запроса
	Filename string `json:"filename"`
	// Success — удалось ли удалить файл
	Success bool `json:"success"`
	// Error — причина неудачи (только при Success == false)
	Error string `json:"error,omitempty"`
}

// DeleteService — сервис удаления файлов.
type DeleteService struct {
	store  *filestore.FileStore
	logger *slog.Logger
}

// NewDeleteService создаёт сервис удаления файлов.
func NewDeleteService(store *filestore.FileStore, logger *slog.Logger) *DeleteService {
	return &DeleteService{
		store:  store,
		logger: logger.With(slog.String("component", "delete_service")),
	}
}

// DeleteOne удаляет файл хранения и его миниатюру, если она есть.
// Отсутствие миниатюры — не ошибка; отсутствие самого файла — NotFound
// без каких-либо побочных эффектов.
func (s *DeleteService) DeleteOne(storageName string) *DeleteError {
	if err := s.store.Remove(storageName); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &DeleteError{
				StatusCode: 404,
				Code:       apierrors.CodeNotFound,
				Message:    fmt.Sprintf("Файл %s не найден", storageName),
			}
		}
		s.logger.Error("Ошибка удаления файла",
			slog.String("storage_name", storageName),
			slog.String("error", err.Error()),
		)
		middleware.OperationsTotal.WithLabelValues("delete", "error").Inc()
		return &DeleteError{
			StatusCode: 500,
			Code:       apierrors.CodeInternalError,
			Message:    fmt.Sprintf("Ошибка удаления файла %s", storageName),
		}
	}

	if err := s.store.RemoveThumb(storageName); err != nil {
		// Файл уже удалён; застрявшая миниатюра — только предупреждение
		s.logger.Warn("Ошибка удаления миниатюры",
			slog.String("storage_name", storageName),
			slog.String("error", err.Error()),
		)
	}

	middleware.OperationsTotal.WithLabelValues("delete", "success").Inc()

	s.logger.Info("Файл удалён", slog.String("storage_name", storageName))
	return nil
}

// DeleteMany удаляет набор файлов независимо друг от друга:
// неудача одного не прерывает остальные. Результаты возвращаются
// для каждого файла в порядке запроса.
func (s *DeleteService) DeleteMany(storageNames []string) []DeleteResult {
	results := make([]DeleteResult, 0, len(storageNames))
	for _, name := range storageNames {
		if err := s.DeleteOne(name); err != nil {
			results = append(results, DeleteResult{
				Filename: name,
				Success:  false,
				Error:    err.Message,
			})
			continue
		}
		results = append(results, DeleteResult{Filename: name, Success: true})
	}
	return results
}
