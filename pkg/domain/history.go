package domain

// ImageOnlyInput は画像のみで生成した場合に OriginalInput へ入れる値です。
const ImageOnlyInput = "(Image Analysis)"

// HistoryEntry は生成結果に履歴用のメタデータを加えたものです。
type HistoryEntry struct {
	GenerationResult
	ID            string `json:"id"`
	OriginalInput string `json:"originalInput"`
	Timestamp     int64  `json:"timestamp"` // Unix ミリ秒
	Model         string `json:"model"`     // 表示用のモデル名
}
