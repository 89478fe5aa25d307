package imgutil

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
)

// CompressToJPEG は画像データ（PNG, GIF, JPEG, WebP 等）をJPEG形式に圧縮します。
// maxEdge が正の場合、長辺がその値を超える画像は縦横比を保って縮小します。
// EXIF の回転情報は画素に反映されます。
func CompressToJPEG(data []byte, quality, maxEdge int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}

	if maxEdge > 0 {
		img = fitWithin(img, maxEdge)
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fitWithin(img image.Image, maxEdge int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxEdge && b.Dy() <= maxEdge {
		return img
	}
	return imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos)
}
