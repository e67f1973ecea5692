// files.go — HTTP handlers файловых операций.
// Upload, List, Download, Thumbnail, Archive, Delete.
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/gofileshare/internal/api/errors"
	"github.com/bigkaa/gofileshare/internal/config"
	"github.com/bigkaa/gofileshare/internal/domain/model"
	"github.com/bigkaa/gofileshare/internal/service"
	"github.com/bigkaa/gofileshare/internal/storage/filestore"
)

// multipartMemory — буфер парсинга multipart form в памяти;
// части крупнее уходят во временные файлы ОС.
const multipartMemory = 32 << 20

// FilesHandler — обработчик файловых endpoints.
type FilesHandler struct {
	cfg         *config.Config
	uploadSvc   *service.UploadService
	catalogSvc  *service.CatalogService
	downloadSvc *service.DownloadService
	archiveSvc  *service.ArchiveService
	deleteSvc   *service.DeleteService
	store       *filestore.FileStore
	logger      *slog.Logger
}

// NewFilesHandler создаёт обработчик файловых endpoints.
func NewFilesHandler(
	cfg *config.Config,
	uploadSvc *service.UploadService,
	catalogSvc *service.CatalogService,
	downloadSvc *service.DownloadService,
	archiveSvc *service.ArchiveService,
	deleteSvc *service.DeleteService,
	store *filestore.FileStore,
	logger *slog.Logger,
) *FilesHandler {
	return &FilesHandler{
		cfg:         cfg,
		uploadSvc:   uploadSvc,
		catalogSvc:  catalogSvc,
		downloadSvc: downloadSvc,
		archiveSvc:  archiveSvc,
		deleteSvc:   deleteSvc,
		store:       store,
		logger:      logger.With(slog.String("component", "files_handler")),
	}
}

// Upload обрабатывает POST /api/v1/files/upload.
// Multipart form: files (одно или несколько значений).
func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Глобальный предел тела запроса: пакет лимитов + запас на заголовки multipart
	maxBody := h.cfg.MaxFileSize*int64(h.cfg.MaxFiles) + multipartMemory
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		errors.ValidationError(w, fmt.Sprintf("Ошибка парсинга multipart: %s", err.Error()))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		errors.ValidationError(w, "Поле 'files' обязательно")
		return
	}

	// Открываем части пакета; размеры и количество проверит сервис
	// до записи первого байта в директорию хранения
	batch := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		part, err := fh.Open()
		if err != nil {
			errors.InternalError(w, fmt.Sprintf("Ошибка чтения части %q", fh.Filename))
			return
		}
		defer part.Close()

		batch = append(batch, service.UploadFile{
			Reader:       part,
			OriginalName: fh.Filename,
			ContentType:  fh.Header.Get("Content-Type"),
			Size:         fh.Size,
		})
	}

	records, uploadErr := h.uploadSvc.Ingest(batch)
	if uploadErr != nil {
		errors.WriteError(w, uploadErr.StatusCode, uploadErr.Code, uploadErr.Message)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Файлы загружены",
		"files":   records,
	})
}

// List обрабатывает GET /api/v1/files.
// Query-параметры: search (подстрока), category, sort (name|size|date).
func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	category := q.Get("category")
	if category != "" && !model.IsValidCategory(category) {
		errors.ValidationError(w, fmt.Sprintf("Неизвестная категория: %q", category))
		return
	}

	sortBy := q.Get("sort")
	switch sortBy {
	case "", service.SortByName, service.SortBySize, service.SortByDate:
		// ok
	default:
		errors.ValidationError(w, fmt.Sprintf("Недопустимая сортировка: %q", sortBy))
		return
	}

	files, err := h.catalogSvc.List(service.ListFilters{
		Search:   q.Get("search"),
		Category: category,
		Sort:     sortBy,
	})
	if err != nil {
		h.logger.Error("Ошибка листинга каталога", slog.String("error", err.Error()))
		errors.InternalError(w, "Ошибка чтения каталога")
		return
	}

	writeJSON(w, http.StatusOK, files)
}

// Download обрабатывает GET /api/v1/files/{name}/download.
// Поддерживает Range requests (206 Partial Content).
func (h *FilesHandler) Download(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if downloadErr := h.downloadSvc.Serve(w, r, name); downloadErr != nil {
		errors.WriteError(w, downloadErr.StatusCode, downloadErr.Code, downloadErr.Message)
	}
}

// Thumbnail обрабатывает GET /api/v1/files/{name}/thumbnail.
func (h *FilesHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if !h.store.Exists(name) || !h.store.HasThumb(name) {
		errors.NotFound(w, fmt.Sprintf("Миниатюра файла %s не найдена", name))
		return
	}

	http.ServeFile(w, r, h.store.ThumbPath(name))
}

// archiveRequest — тело запроса пакетного скачивания или удаления.
type archiveRequest struct {
	Files []string `json:"files"`
}

// Archive обрабатывает POST /api/v1/files/archive.
// Отдаёт выбранные файлы одним zip-архивом, формируемым потоково.
func (h *FilesHandler) Archive(w http.ResponseWriter, r *http.Request) {
	var req archiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.ValidationError(w, fmt.Sprintf("Некорректный JSON: %s", err.Error()))
		return
	}
	if len(req.Files) == 0 {
		errors.ValidationError(w, "Список файлов пуст")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="files.zip"`)

	// Статус и заголовки уходят клиенту с первыми байтами архива;
	// ошибка после этого момента лишь обрывает поток
	if err := h.archiveSvc.Stream(w, req.Files); err != nil {
		h.logger.Error("Архив оборван",
			slog.Int("files", len(req.Files)),
			slog.String("error", err.Error()),
		)
	}
}

// DeleteOne обрабатывает DELETE /api/v1/files/{name}.
// Удаляет файл и его миниатюру.
func (h *FilesHandler) DeleteOne(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if deleteErr := h.deleteSvc.DeleteOne(name); deleteErr != nil {
		errors.WriteError(w, deleteErr.StatusCode, deleteErr.Code, deleteErr.Message)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Файл удалён"})
}

// DeleteBulk обрабатывает POST /api/v1/files/delete.
// Независимое удаление набора файлов с отчётом по каждому.
func (h *FilesHandler) DeleteBulk(w http.ResponseWriter, r *http.Request) {
	var req archiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.ValidationError(w, fmt.Sprintf("Некорректный JSON: %s", err.Error()))
		return
	}
	if len(req.Files) == 0 {
		errors.ValidationError(w, "Список файлов пуст")
		return
	}

	results := h.deleteSvc.DeleteMany(req.Files)

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Пакетное удаление завершено",
		"results": results,
	})
}

// Categories обрабатывает GET /api/v1/categories.
func (h *FilesHandler) Categories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, model.Categories)
}
