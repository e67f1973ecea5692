// category.go — классификация файлов по расширению.
package model

import (
	"path/filepath"
	"strings"
)

// Category — грубая классификация содержимого по расширению имени файла.
type Category string

const (
	CategoryImages    Category = "images"
	CategoryDocuments Category = "documents"
	CategoryVideos    Category = "videos"
	CategoryAudio     Category = "audio"
	CategoryArchives  Category = "archives"
	CategoryOther     Category = "other"
)

// Categories — полный список категорий для API (включая псевдокатегорию "all").
var Categories = []string{"all", "images", "documents", "videos", "audio", "archives", "other"}

// categoryByExt — фиксированная таблица расширение → категория.
var categoryByExt = map[string]Category{
	".jpg": CategoryImages, ".jpeg": CategoryImages, ".png": CategoryImages,
	".gif": CategoryImages, ".bmp": CategoryImages, ".webp": CategoryImages,
	".svg": CategoryImages, ".ico": CategoryImages,

	".pdf": CategoryDocuments, ".doc": CategoryDocuments, ".docx": CategoryDocuments,
	".txt": CategoryDocuments, ".rtf": CategoryDocuments, ".odt": CategoryDocuments,
	".xls": CategoryDocuments, ".xlsx": CategoryDocuments, ".ppt": CategoryDocuments,
	".pptx": CategoryDocuments,

	".mp4": CategoryVideos, ".avi": CategoryVideos, ".mkv": CategoryVideos,
	".mov": CategoryVideos, ".wmv": CategoryVideos, ".flv": CategoryVideos,
	".webm": CategoryVideos, ".m4v": CategoryVideos,

	".mp3": CategoryAudio, ".wav": CategoryAudio, ".flac": CategoryAudio,
	".aac": CategoryAudio, ".ogg": CategoryAudio, ".wma": CategoryAudio,
	".m4a": CategoryAudio,

	".zip": CategoryArchives, ".rar": CategoryArchives, ".7z": CategoryArchives,
	".tar": CategoryArchives, ".gz": CategoryArchives, ".bz2": CategoryArchives,
	".xz": CategoryArchives,
}

// Categorize возвращает категорию файла по расширению его имени.
// Регистр расширения не учитывается. Неизвестное или отсутствующее
// расширение — CategoryOther.
func Categorize(filename string) Category {
	ext := strings.ToLower(filepath.Ext(filename))
	if c, ok := categoryByExt[ext]; ok {
		return c
	}
	return CategoryOther
}

// IsValidCategory проверяет, что строка — допустимое значение фильтра категории.
func IsValidCategory(s string) bool {
	for _, c := range Categories {
		if s == c {
			return true
		}
	}
	return false
}
