package domain

// Family は同じプロンプト作法を共有する動画生成モデルの系統です。
type Family int

const (
	FamilyNone Family = iota
	FamilyKling
	FamilyVeo
	FamilyMinimax
	FamilyWan
	FamilyHiggsfield
	FamilySora
	FamilySeedance
)

var familyNames = map[Family]string{
	FamilyNone:       "none",
	FamilyKling:      "kling",
	FamilyVeo:        "veo",
	FamilyMinimax:    "minimax",
	FamilyWan:        "wan",
	FamilyHiggsfield: "higgsfield",
	FamilySora:       "sora",
	FamilySeedance:   "seedance",
}

func (f Family) String() string {
	if name, ok := familyNames[f]; ok {
		return name
	}
	return "none"
}

// MarshalText は JSON 上で系統名を文字列として出力するためのものです。
func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Target は生成対象として解決済みのモデルです。
type Target struct {
	Name   string `json:"name"`
	Family Family `json:"family"`
}

// UnmarshalText は系統名から Family を復元します。未知の名前は FamilyNone です。
func (f *Family) UnmarshalText(text []byte) error {
	*f = FamilyNone
	for fam, name := range familyNames {
		if name == string(text) {
			*f = fam
			break
		}
	}
	return nil
}
