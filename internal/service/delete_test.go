package service

import (
	"os"
	"strings"
	"testing"

	"github.com/bigkaa/gofileshare/internal/storage/filestore"
)

func newDelete(t *testing.T) (*DeleteService, *filestore.FileStore) {
	t.Helper()

	store, err := filestore.New(t.TempDir())
	if err != nil {
		t.Fatalf("filestore.New вернул ошибку: %v", err)
	}
	return NewDeleteService(store, testLogger()), store
}

func TestDeleteOne(t *testing.T) {
	svc, store := newDelete(t)

	saved, err := store.Save(strings.NewReader("data"), "doc.txt")
	if err != nil {
		t.Fatalf("Ошибка сохранения: %v", err)
	}

	if delErr := svc.DeleteOne(saved.StorageName); delErr != nil {
		t.Fatalf("DeleteOne вернул ошибку: %v", delErr)
	}
	if store.Exists(saved.StorageName) {
		t.Error("Файл остался на диске после удаления")
	}
}

func TestDeleteOneWithThumb(t *testing.T) {
	svc, store := newDelete(t)

	saved, err := store.Save(strings.NewReader("imagedata"), "photo.jpg")
	if err != nil {
		t.Fatalf("Ошибка сохранения: %v", err)
	}
	if err := os.WriteFile(store.ThumbPath(saved.StorageName), []byte("jpg"), 0o640); err != nil {
		t.Fatalf("Ошибка записи миниатюры: %v", err)
	}

	if delErr := svc.DeleteOne(saved.StorageName); delErr != nil {
		t.Fatalf("DeleteOne вернул ошибку: %v", delErr)
	}
	if store.HasThumb(saved.StorageName) {
		t.Error("Миниатюра осталась на диске после удаления файла")
	}
}

func TestDeleteOneNotFound(t *testing.T) {
	svc, _ := newDelete(t)

	delErr := svc.DeleteOne("1693230000000-missing.txt")
	if delErr == nil {
		t.Fatal("Ожидалась ошибка для отсутствующего файла")
	}
	if delErr.StatusCode != 404 {
		t.Errorf("StatusCode = %d, ожидался 404", delErr.StatusCode)
	}
}

func TestDeleteMany(t *testing.T) {
	svc, store := newDelete(t)

	a, err := store.Save(strings.NewReader("a"), "a.txt")
	if err != nil {
		t.Fatalf("Ошибка сохранения: %v", err)
	}
	b, err := store.Save(strings.NewReader("b"), "b.txt")
	if err != nil {
		t.Fatalf("Ошибка сохранения: %v", err)
	}

	// Второй элемент списка отсутствует на диске
	names := []string{a.StorageName, "1693230000000-missing.txt", b.StorageName}
	results := svc.DeleteMany(names)

	if len(results) != 3 {
		t.Fatalf("Получено %d результатов, ожидалось 3", len(results))
	}

	// Результаты в порядке запроса
	for i, name := range names {
		if results[i].Filename != name {
			t.Errorf("results[%d].Filename = %s, ожидался %s", i, results[i].Filename, name)
		}
	}

	if !results[0].Success || !results[2].Success {
		t.Error("Существующие файлы должны быть удалены успешно")
	}
	if results[1].Success {
		t.Error("Удаление отсутствующего файла не должно быть успешным")
	}
	if results[1].Error == "" {
		t.Error("Для неудачного удаления ожидалась причина ошибки")
	}

	// Неудача одного элемента не мешает остальным
	if store.Exists(a.StorageName) || store.Exists(b.StorageName) {
		t.Error("Файлы остались на диске после пакетного удаления")
	}
}
