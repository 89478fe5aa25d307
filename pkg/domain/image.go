package domain

import "math"

const (
	// WidescreenMinRatio と WidescreenMaxRatio は 16:9 (≒1.777) とみなす許容範囲です。
	WidescreenMinRatio = 1.75
	WidescreenMaxRatio = 1.80
)

// FrameSlot は参照画像の差し込み先（開始フレーム / 終了フレーム）を表します。
type FrameSlot string

const (
	FrameStart FrameSlot = "start"
	FrameEnd   FrameSlot = "end"
)

// Valid は既知のスロットかどうかを返します。
func (s FrameSlot) Valid() bool {
	return s == FrameStart || s == FrameEnd
}

// ImageAsset は送信可能な状態までデコードされた参照画像です。
// 生成後に書き換えることはなく、差し替える場合は丸ごと置き換えます。
type ImageAsset struct {
	Base64    string `json:"base64"`
	MIMEType  string `json:"mimeType"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Compliant bool   `json:"compliant"` // 16:9 の許容範囲に収まっているか
}

// NewImageAsset は寸法から準拠フラグを計算して ImageAsset を組み立てます。
func NewImageAsset(base64Data, mimeType string, width, height int) *ImageAsset {
	return &ImageAsset{
		Base64:    base64Data,
		MIMEType:  mimeType,
		Width:     width,
		Height:    height,
		Compliant: IsWidescreen(width, height),
	}
}

// Ratio は幅/高さの比を返します。高さが 0 の場合は 0 です。
func (a *ImageAsset) Ratio() float64 {
	if a == nil || a.Height <= 0 {
		return 0
	}
	return float64(a.Width) / float64(a.Height)
}

// NonCompliant は UI で警告表示すべき画像かどうかを返します。
func (a *ImageAsset) NonCompliant() bool {
	return a != nil && !a.Compliant
}

// IsWidescreen は幅と高さの比が 16:9 の許容範囲内かを判定します。
func IsWidescreen(width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	ratio := float64(width) / float64(height)
	// 浮動小数の丸めで境界値を落とさないよう小数第4位で比較する
	ratio = math.Round(ratio*10000) / 10000
	return ratio >= WidescreenMinRatio && ratio <= WidescreenMaxRatio
}
