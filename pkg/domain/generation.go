package domain

// GenerationOptions はユーザーが切り替える独立したフラグの組です。
// 結果には値としてコピーされ、後から UI 側の状態が変わっても影響を受けません。
type GenerationOptions struct {
	ShortPrompt       bool `json:"isShortPrompt"`
	IncludeTechParams bool `json:"includeTechParams"`
	FixColorShift     bool `json:"fixColorShift"`
	HighFidelity      bool `json:"isHighFidelity"`
}

// DefaultOptions は初期状態のオプションです。
func DefaultOptions() GenerationOptions {
	return GenerationOptions{ShortPrompt: true}
}

// GenerationRequest は1回の生成に必要な入力一式です。永続化はしません。
type GenerationRequest struct {
	Text    string
	Target  Target
	Start   *ImageAsset
	End     *ImageAsset
	Options GenerationOptions
}

// HasImages は参照画像が1枚以上あるか（image-to-video モードか）を返します。
func (r GenerationRequest) HasImages() bool {
	return r.Start != nil || r.End != nil
}

// SuggestedSettings はモデルが提案する出力設定です。応答に含まれない場合もあります。
type SuggestedSettings struct {
	Resolution  string  `json:"resolution,omitempty"`
	FPS         string  `json:"fps,omitempty"`
	MotionScale float64 `json:"motionScale,omitempty"`
}

// GenerationResult は生成に成功した結果です。
// MainPrompt と Reasoning は常に空ではありません。
type GenerationResult struct {
	MainPrompt        string             `json:"mainPrompt"`
	Reasoning         string             `json:"reasoning"`
	SuggestedSettings *SuggestedSettings `json:"suggestedSettings,omitempty"`
	Options           GenerationOptions  `json:"usedOptions"`
	BackendModel      string             `json:"backendModel,omitempty"`
	Fallback          bool               `json:"fallback,omitempty"`
}
