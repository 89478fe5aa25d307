package imgutil

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp"
)

// Dimensions は画像の表示上の幅・高さとフォーマット名を返します。
// 画素全体はデコードせず、ヘッダと EXIF の Orientation のみを読みます。
// Orientation が 5〜8（90度回転を含む）の場合は幅と高さを入れ替えます。
func Dimensions(data []byte) (width, height int, format string, err error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", fmt.Errorf("画像ヘッダのデコードに失敗しました: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, format, fmt.Errorf("画像サイズが不正です: %dx%d", cfg.Width, cfg.Height)
	}

	width, height = cfg.Width, cfg.Height
	if format == "jpeg" && rotatesQuarterTurn(Orientation(data)) {
		width, height = height, width
	}
	return width, height, format, nil
}

// Orientation は EXIF の Orientation 値を返します。読めない場合は 1（回転なし）です。
func Orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

func rotatesQuarterTurn(orientation int) bool {
	return orientation >= 5 && orientation <= 8
}
