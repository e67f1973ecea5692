// Пакет filestore — операции с физическими файлами на диске.
// Генерация имён хранения, streaming-запись, чтение, удаление,
// перечисление и операции с миниатюрами.
//
// Формат имени хранения: <millis>-<sanitized>, где millis — время
// загрузки в миллисекундах Unix. Префикс до первого '-' не содержит
// дефисов, поэтому оригинальное имя восстанавливается отбрасыванием
// одного сегмента.
package filestore

import (
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Зарезервированные имена внутри директории данных.
// Исключаются из листинга и недопустимы как имена файлов хранения.
const (
	ThumbsDirName = "thumbnails"
	TempDirName   = "temp"
)

// thumbPrefix и thumbExt — схема имён миниатюр: thumb_<storageName>.jpg.
const (
	thumbPrefix = "thumb_"
	thumbExt    = ".jpg"
)

// FileStore — управление физическими файлами в директории данных.
//
// Незавершённые загрузки пишутся в поддиректорию temp и попадают
// в директорию данных одним атомарным rename: каталог никогда не
// видит ни пустых placeholder-ов, ни недописанных файлов.
type FileStore struct {
	// dataDir — корневая директория хранения файлов (FS_DATA_DIR)
	dataDir string
	// thumbsDir — директория миниатюр (dataDir/thumbnails)
	thumbsDir string
	// tempDir — директория незавершённых загрузок (dataDir/temp)
	tempDir string

	// mu защищает reserved
	mu sync.Mutex
	// reserved — имена хранения, занятые идущими загрузками.
	// Уникальность имён гарантируется в пределах процесса.
	reserved map[string]struct{}
}

// SaveResult — результат сохранения файла на диск.
type SaveResult struct {
	// StorageName — имя файла в dataDir (<millis>-<sanitized>)
	StorageName string
	// FullPath — абсолютный путь файла на диске
	FullPath string
	// Size — размер записанных данных в байтах
	Size int64
}

// New создаёт новый FileStore. Создаёт директорию данных и
// зарезервированные поддиректории thumbnails и temp, если их нет.
func New(dataDir string) (*FileStore, error) {
	thumbsDir := filepath.Join(dataDir, ThumbsDirName)
	tempDir := filepath.Join(dataDir, TempDirName)
	for _, dir := range []string{dataDir, thumbsDir, tempDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("не удалось создать директорию %s: %w", dir, err)
		}
	}

	return &FileStore{
		dataDir:   dataDir,
		thumbsDir: thumbsDir,
		tempDir:   tempDir,
		reserved:  make(map[string]struct{}),
	}, nil
}

// Save записывает данные из reader на диск под новым именем хранения.
//
// Паттерн: резервирование имени в памяти → запись в temp файл →
// fsync → atomic rename в директорию данных. При коллизии имени
// (две загрузки одного имени в одну миллисекунду) millis-префикс
// монотонно увеличивается до свободного имени — формат имени при
// этом не меняется. До rename файл не существует по публичному
// имени: листинг, скачивание и удаление не видят идущую загрузку.
// При ошибке temp файл удаляется, резервирование снимается.
func (fs *FileStore) Save(reader io.Reader, originalName string) (*SaveResult, error) {
	storageName, err := fs.reserveName(originalName)
	if err != nil {
		return nil, err
	}
	defer fs.release(storageName)

	f, err := os.CreateTemp(fs.tempDir, "upload-*")
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	tmpPath := f.Name()

	size, err := io.Copy(f, reader)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка записи данных: %w", err)
	}

	// fsync для гарантии записи на диск
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	// Атомарный rename: файл появляется в директории данных целиком
	fullPath := filepath.Join(fs.dataDir, storageName)
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return &SaveResult{
		StorageName: storageName,
		FullPath:    fullPath,
		Size:        size,
	}, nil
}

// reserveName подбирает свободное имя хранения и резервирует его
// в памяти до завершения Save. Имя свободно, если оно не занято
// идущей загрузкой и не существует на диске. Коллизия разрешается
// монотонным увеличением millis-префикса.
func (fs *FileStore) reserveName(originalName string) (string, error) {
	millis := time.Now().UnixMilli()
	sanitized := Sanitize(originalName)

	fs.mu.Lock()
	defer fs.mu.Unlock()

	for {
		name := fmt.Sprintf("%d-%s", millis, sanitized)
		if _, busy := fs.reserved[name]; !busy {
			_, err := os.Stat(filepath.Join(fs.dataDir, name))
			if errors.Is(err, iofs.ErrNotExist) {
				fs.reserved[name] = struct{}{}
				return name, nil
			}
			if err != nil {
				return "", fmt.Errorf("ошибка резервирования имени %s: %w", name, err)
			}
		}
		millis++
	}
}

// release снимает резервирование имени хранения.
func (fs *FileStore) release(storageName string) {
	fs.mu.Lock()
	delete(fs.reserved, storageName)
	fs.mu.Unlock()
}

// Open открывает файл для чтения. Вызывающий код обязан закрыть файл.
// Отсутствие файла различимо через errors.Is(err, fs.ErrNotExist).
func (fs *FileStore) Open(storageName string) (*os.File, error) {
	if err := validateName(storageName); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(fs.dataDir, storageName))
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия файла %s: %w", storageName, err)
	}
	return f, nil
}

// Stat возвращает информацию о файле хранения.
func (fs *FileStore) Stat(storageName string) (os.FileInfo, error) {
	if err := validateName(storageName); err != nil {
		return nil, err
	}

	info, err := os.Stat(filepath.Join(fs.dataDir, storageName))
	if err != nil {
		return nil, fmt.Errorf("ошибка stat файла %s: %w", storageName, err)
	}
	return info, nil
}

// Exists проверяет существование файла хранения.
func (fs *FileStore) Exists(storageName string) bool {
	if validateName(storageName) != nil {
		return false
	}
	_, err := os.Stat(filepath.Join(fs.dataDir, storageName))
	return err == nil
}

// Remove удаляет файл хранения. Отсутствие файла — ошибка,
// различимая через errors.Is(err, fs.ErrNotExist).
func (fs *FileStore) Remove(storageName string) error {
	if err := validateName(storageName); err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(fs.dataDir, storageName)); err != nil {
		return fmt.Errorf("ошибка удаления файла %s: %w", storageName, err)
	}
	return nil
}

// Entries возвращает записи директории данных, исключая
// зарезервированные имена (thumbnails, temp), скрытые файлы
// и поддиректории. Недописанных файлов в директории данных не
// бывает: загрузки пишутся в temp и попадают сюда атомарно.
func (fs *FileStore) Entries() ([]os.DirEntry, error) {
	all, err := os.ReadDir(fs.dataDir)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения директории данных: %w", err)
	}

	entries := make([]os.DirEntry, 0, len(all))
	for _, e := range all {
		name := e.Name()
		if e.IsDir() || name == ThumbsDirName || name == TempDirName {
			continue
		}
		if strings.HasPrefix(name, ".") {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// FullPath возвращает абсолютный путь к файлу хранения.
func (fs *FileStore) FullPath(storageName string) string {
	return filepath.Join(fs.dataDir, storageName)
}

// DataDir возвращает путь к директории данных.
func (fs *FileStore) DataDir() string {
	return fs.dataDir
}

// --- Миниатюры ---

// ThumbPath возвращает путь миниатюры для файла хранения.
func (fs *FileStore) ThumbPath(storageName string) string {
	return filepath.Join(fs.thumbsDir, thumbPrefix+storageName+thumbExt)
}

// HasThumb проверяет существование миниатюры для файла хранения.
func (fs *FileStore) HasThumb(storageName string) bool {
	_, err := os.Stat(fs.ThumbPath(storageName))
	return err == nil
}

// RemoveThumb удаляет миниатюру файла. Отсутствие миниатюры — не ошибка.
func (fs *FileStore) RemoveThumb(storageName string) error {
	err := os.Remove(fs.ThumbPath(storageName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления миниатюры %s: %w", storageName, err)
	}
	return nil
}

// --- Имена ---

// Sanitize заменяет каждый символ вне [A-Za-z0-9.-] на '_'.
// Результат безопасен для файловой системы и не добавляет дефисов,
// поэтому граница префикса <millis>- остаётся однозначной.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// validateName отклоняет имена хранения, выходящие за пределы
// директории данных или совпадающие с зарезервированными именами.
func validateName(storageName string) error {
	if storageName == "" || storageName == ThumbsDirName || storageName == TempDirName {
		return fmt.Errorf("недопустимое имя файла %q: %w", storageName, iofs.ErrNotExist)
	}
	if strings.ContainsAny(storageName, "/\\") || strings.Contains(storageName, "..") {
		return fmt.Errorf("недопустимое имя файла %q: %w", storageName, iofs.ErrNotExist)
	}
	return nil
}
