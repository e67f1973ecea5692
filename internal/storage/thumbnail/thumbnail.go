// Пакет thumbnail — генерация JPEG-миниатюр для загруженных изображений.
// Миниатюра вписывается в квадрат MaxDim×MaxDim с сохранением пропорций,
// без увеличения исходника, и сохраняется с качеством JPEGQuality.
package thumbnail

import (
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	// MaxDim — максимальный размер стороны миниатюры в пикселях.
	MaxDim = 200
	// JPEGQuality — качество JPEG-кодирования миниатюры.
	JPEGQuality = 80
)

// Generate декодирует изображение по пути srcPath, уменьшает его
// до MaxDim по большей стороне и записывает JPEG по пути dstPath.
// Нечитаемые, повреждённые и неподдерживаемые изображения — ошибка;
// вызывающий код трактует её как нефатальную.
func Generate(srcPath, dstPath string) error {
	img, err := imaging.Open(srcPath)
	if err != nil {
		return fmt.Errorf("ошибка декодирования изображения %s: %w", srcPath, err)
	}

	// Fit не увеличивает изображения меньше MaxDim×MaxDim
	thumb := imaging.Fit(img, MaxDim, MaxDim, imaging.Lanczos)

	if err := imaging.Save(thumb, dstPath, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return fmt.Errorf("ошибка записи миниатюры %s: %w", dstPath, err)
	}
	return nil
}
