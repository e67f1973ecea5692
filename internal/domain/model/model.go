// Пакет model — доменные модели файлового обменника.
// FileInfo — единственная модель данных; она не хранится нигде,
// кроме файловой системы, и выводится заново при каждом запросе
// (директория хранения — единственный источник истины).
package model

import (
	"strings"
	"time"
)

// FileInfo — метаданные хранимого файла. Выводится из записи на диске:
// имя (storage name), размер и mtime — из stat, категория — из расширения,
// наличие миниатюры — из директории thumbnails.
type FileInfo struct {
	// Filename — имя файла на диске: <millis>-<sanitized>
	Filename string `json:"filename"`
	// OriginalName — имя, указанное клиентом при загрузке
	OriginalName string `json:"originalName"`
	// Size — размер файла в байтах (live, из stat)
	Size int64 `json:"size"`
	// UploadTime — время загрузки (mtime файла)
	UploadTime time.Time `json:"uploadTime"`
	// MimeType — MIME-тип, заявленный клиентом (только в ответе upload)
	MimeType string `json:"mimeType,omitempty"`
	// Category — категория по расширению оригинального имени
	Category Category `json:"category"`
	// HasThumb — существует ли thumb_<Filename>.jpg
	HasThumb bool `json:"hasThumb"`
	// Extension — расширение оригинального имени в нижнем регистре (только в листинге)
	Extension string `json:"extension,omitempty"`
}

// OriginalName восстанавливает оригинальное имя из имени на диске,
// отбрасывая префикс <millis>-. Инвариант формата: префикс не содержит
// дефисов, поэтому отбрасывается ровно один сегмент до первого '-'.
func OriginalName(storageName string) string {
	if i := strings.IndexByte(storageName, '-'); i >= 0 {
		return storageName[i+1:]
	}
	return storageName
}
