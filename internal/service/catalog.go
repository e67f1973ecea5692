// catalog.go — каталог хранимых файлов: листинг с фильтрацией и сортировкой.
//
// Каталог не ведёт индекса: каждый запрос заново сканирует директорию
// хранения и выводит метаданные из файловой системы. Это осознанный
// размен латентности запроса на нулевой риск расхождения метаданных
// с реальностью на диске.
package service

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bigkaa/gofileshare/internal/domain/model"
	"github.com/bigkaa/gofileshare/internal/storage/filestore"
)

// Варианты сортировки листинга.
const (
	SortByName = "name"
	SortBySize = "size"
	SortByDate = "date"
)

// ListFilters — параметры запроса листинга.
type ListFilters struct {
	// Search — подстрока оригинального имени (без учёта регистра); пусто = без фильтра
	Search string
	// Category — категория или "all"/пусто = без фильтра
	Category string
	// Sort — name | size | date; пусто = date
	Sort string
}

// CatalogService — сервис листинга хранимых файлов.
type CatalogService struct {
	store  *filestore.FileStore
	logger *slog.Logger
}

// NewCatalogService создаёт сервис каталога.
func NewCatalogService(store *filestore.FileStore, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		store:  store,
		logger: logger.With(slog.String("component", "catalog_service")),
	}
}

// List сканирует директорию хранения и возвращает отфильтрованный,
// отсортированный список метаданных. Пустая директория — пустой список.
// Записи, исчезнувшие между перечислением и stat (гонка с удалением),
// молча пропускаются.
func (s *CatalogService) List(filters ListFilters) ([]model.FileInfo, error) {
	entries, err := s.store.Entries()
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования каталога: %w", err)
	}

	search := strings.ToLower(filters.Search)

	files := make([]model.FileInfo, 0, len(entries))
	for _, e := range entries {
		originalName := model.OriginalName(e.Name())

		if search != "" && !strings.Contains(strings.ToLower(originalName), search) {
			continue
		}

		category := model.Categorize(originalName)
		if filters.Category != "" && filters.Category != "all" && string(category) != filters.Category {
			continue
		}

		info, err := e.Info()
		if err != nil {
			s.logger.Debug("Файл исчез во время сканирования",
				slog.String("storage_name", e.Name()),
			)
			continue
		}

		files = append(files, model.FileInfo{
			Filename:     e.Name(),
			OriginalName: originalName,
			Size:         info.Size(),
			UploadTime:   info.ModTime().UTC(),
			Category:     category,
			HasThumb:     s.store.HasThumb(e.Name()),
			Extension:    strings.ToLower(filepath.Ext(originalName)),
		})
	}

	sortFiles(files, filters.Sort)
	return files, nil
}

// sortFiles сортирует список: name — лексикографически по возрастанию,
// size — по убыванию, date (и по умолчанию) — по убыванию времени загрузки.
func sortFiles(files []model.FileInfo, by string) {
	switch by {
	case SortByName:
		sort.Slice(files, func(i, j int) bool {
			return files[i].OriginalName < files[j].OriginalName
		})
	case SortBySize:
		sort.Slice(files, func(i, j int) bool {
			return files[i].Size > files[j].Size
		})
	default: // SortByDate
		sort.Slice(files, func(i, j int) bool {
			return files[i].UploadTime.After(files[j].UploadTime)
		})
	}
}
