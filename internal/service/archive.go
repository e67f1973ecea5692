// archive.go — потоковая упаковка набора файлов в zip-архив.
//
// Архив пишется в выходной поток по мере построения: ни в памяти,
// ни на диске он целиком не существует. Записи сжимаются deflate
// с максимальной степенью сжатия. Однажды отправленные байты
// отозвать нельзя: ошибка посреди потока обрывает архив, клиент
// получает усечённый файл — принятое ограничение потоковой упаковки.
package service

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/klauspost/compress/flate"

	"github.com/bigkaa/gofileshare/internal/api/middleware"
	"github.com/bigkaa/gofileshare/internal/domain/model"
	"github.com/bigkaa/gofileshare/internal/storage/filestore"
)

// ArchiveService — сервис потоковой упаковки файлов в zip.
type ArchiveService struct {
	store  *filestore.FileStore
	logger *slog.Logger
}

// NewArchiveService создаёт сервис архивирования.
func NewArchiveService(store *filestore.FileStore, logger *slog.Logger) *ArchiveService {
	return &ArchiveService{
		store:  store,
		logger: logger.With(slog.String("component", "archive_service")),
	}
}

// Stream пишет zip-архив из указанных файлов хранения в out.
// Каждый файл кладётся в архив под своим оригинальным именем.
// Файлы, исчезнувшие с диска к моменту упаковки, молча пропускаются —
// пакетная операция best-effort. Ошибка чтения или записи посреди
// потока прерывает архив и возвращается вызывающему коду.
func (s *ArchiveService) Stream(out io.Writer, storageNames []string) error {
	zw := zip.NewWriter(out)
	// Deflate с максимальным сжатием вместо уровня по умолчанию
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	added := 0
	for _, name := range storageNames {
		if err := s.addEntry(zw, name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				s.logger.Debug("Файл пропущен при архивировании",
					slog.String("storage_name", name),
				)
				continue
			}
			middleware.OperationsTotal.WithLabelValues("archive", "error").Inc()
			return fmt.Errorf("ошибка упаковки %s: %w", name, err)
		}
		added++
	}

	if err := zw.Close(); err != nil {
		middleware.OperationsTotal.WithLabelValues("archive", "error").Inc()
		return fmt.Errorf("ошибка завершения архива: %w", err)
	}

	middleware.OperationsTotal.WithLabelValues("archive", "success").Inc()

	s.logger.Info("Архив отдан",
		slog.Int("requested", len(storageNames)),
		slog.Int("added", added),
	)
	return nil
}

// addEntry добавляет один файл хранения в архив под оригинальным именем.
func (s *ArchiveService) addEntry(zw *zip.Writer, storageName string) error {
	file, err := s.store.Open(storageName)
	if err != nil {
		return err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return err
	}

	header := &zip.FileHeader{
		Name:     model.OriginalName(storageName),
		Method:   zip.Deflate,
		Modified: stat.ModTime(),
	}

	entry, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(entry, file)
	return err
}
