package catalog

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shouni/cineprompt-kit/pkg/domain"
)

const (
	// CustomCategoryID はモデル名を手入力するためのカテゴリです。
	CustomCategoryID = "custom"

	DefaultCategoryID = "kling"
	DefaultModelID    = "kling-o1"
)

var (
	ErrUnknownModel    = errors.New("unknown model")
	ErrCustomModelName = errors.New("custom model name is required")
)

// Model は選択可能な動画生成モデルです。
type Model struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Family      domain.Family `json:"family"`
}

// Category はベンダー単位のモデル群です。
type Category struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Models []Model `json:"models"`
}

// Categories はモデルカタログ本体です。系統タグの唯一の定義元でもあります。
var Categories = []Category{
	{
		ID:   "kling",
		Name: "Kling",
		Models: []Model{
			{ID: "kling-2.6", Name: "Kling 2.6", Description: "Latest cinematic model with audio", Family: domain.FamilyKling},
			{ID: "kling-o1", Name: "Kling O1 Video", Description: "Best consistency from images", Family: domain.FamilyKling},
			{ID: "kling-o1-edit", Name: "Kling O1 Video Edit", Description: "Advanced scene editing", Family: domain.FamilyKling},
			{ID: "kling-motion", Name: "Kling Motion Control", Description: "Trajectory & brush control", Family: domain.FamilyKling},
			{ID: "kling-2.5-turbo", Name: "Kling 2.5 Turbo", Description: "Fast generation, good motion", Family: domain.FamilyKling},
			{ID: "kling-2.1-master", Name: "Kling 2.1 Master", Description: "High fidelity master mode", Family: domain.FamilyKling},
		},
	},
	{
		ID:   "veo",
		Name: "Google Veo",
		Models: []Model{
			{ID: "veo-3.1", Name: "Veo 3.1", Description: "High-quality cinematic 1080p", Family: domain.FamilyVeo},
			{ID: "veo-3.1-fast", Name: "Veo 3.1 Fast", Description: "Rapid prototyping", Family: domain.FamilyVeo},
			{ID: "veo-3", Name: "Veo 3", Description: "Standard production model", Family: domain.FamilyVeo},
		},
	},
	{
		ID:   "minimax",
		Name: "Minimax Hailuo",
		Models: []Model{
			{ID: "hailuo-video-01", Name: "Hailuo Video-01", Description: "Best for high dynamic motion", Family: domain.FamilyMinimax},
			{ID: "hailuo-t2v", Name: "Hailuo Text-to-Video", Description: "Optimized for complex prompts", Family: domain.FamilyMinimax},
		},
	},
	{
		ID:   "wan",
		Name: "Wan (Alibaba)",
		Models: []Model{
			{ID: "wan-2.1-14b", Name: "Wan 2.1 (14B)", Description: "Massive parameter model, high detail", Family: domain.FamilyWan},
			{ID: "wan-2.1-1.3b", Name: "Wan 2.1 (1.3B)", Description: "Efficient, faster generation", Family: domain.FamilyWan},
			{ID: "wan-1.0", Name: "Wan 1.0", Description: "Legacy model", Family: domain.FamilyWan},
		},
	},
	{
		ID:   "higgsfield",
		Name: "Higgsfield",
		Models: []Model{
			{ID: "higgsfield-v1", Name: "Higgsfield v1", Description: "Advanced camera & character control", Family: domain.FamilyHiggsfield},
			{ID: "higgsfield-motion", Name: "Higgsfield Motion", Description: "Specific for dance and action", Family: domain.FamilyHiggsfield},
		},
	},
	{
		ID:   "openai",
		Name: "OpenAI",
		Models: []Model{
			{ID: "sora-2", Name: "Sora 2", Description: "Multi-shot, high coherence", Family: domain.FamilySora},
			{ID: "sora-turbo", Name: "Sora Turbo", Description: "Fast iteration", Family: domain.FamilySora},
		},
	},
	{
		ID:   "seedance",
		Name: "Seedance",
		Models: []Model{
			{ID: "seedance-gl", Name: "Seedance GL", Description: "General Large model", Family: domain.FamilySeedance},
			{ID: "seedance-max", Name: "Seedance Max", Description: "Maximum quality settings", Family: domain.FamilySeedance},
		},
	},
	{
		ID:   CustomCategoryID,
		Name: "Altro / Custom",
		Models: []Model{
			{ID: "custom-input", Name: "Modello Personalizzato", Description: "Inserisci manualmente il nome"},
		},
	},
}

// familyTokens は手入力のモデル名から系統を推定するためのトークンです。
// 先に一致したものが優先されます。
var familyTokens = []struct {
	token  string
	family domain.Family
}{
	{"kling", domain.FamilyKling},
	{"veo", domain.FamilyVeo},
	{"hailuo", domain.FamilyMinimax},
	{"minimax", domain.FamilyMinimax},
	{"wan", domain.FamilyWan},
	{"higgsfield", domain.FamilyHiggsfield},
	{"sora", domain.FamilySora},
	{"seedance", domain.FamilySeedance},
}

// FindCategory は ID に一致するカテゴリを返します。
func FindCategory(categoryID string) (*Category, bool) {
	for i := range Categories {
		if Categories[i].ID == categoryID {
			return &Categories[i], true
		}
	}
	return nil, false
}

// FindModel はカテゴリ内のモデルを返します。modelID が空の場合は先頭のモデルです。
func FindModel(categoryID, modelID string) (*Model, error) {
	cat, ok := FindCategory(categoryID)
	if !ok {
		return nil, fmt.Errorf("%w: category %q", ErrUnknownModel, categoryID)
	}
	if len(cat.Models) == 0 {
		return nil, fmt.Errorf("%w: category %q has no models", ErrUnknownModel, categoryID)
	}
	if modelID == "" {
		return &cat.Models[0], nil
	}
	for i := range cat.Models {
		if cat.Models[i].ID == modelID {
			return &cat.Models[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q in category %q", ErrUnknownModel, modelID, categoryID)
}

// Resolve はカタログ上の選択（または手入力名）を生成対象モデルに解決します。
// 系統の判定はここで一度だけ行い、以降は Family タグのみで分岐します。
func Resolve(categoryID, modelID, customName string) (domain.Target, error) {
	if categoryID == CustomCategoryID {
		name := strings.TrimSpace(customName)
		if name == "" {
			return domain.Target{}, ErrCustomModelName
		}
		return domain.Target{Name: name, Family: FamilyFromName(name)}, nil
	}

	m, err := FindModel(categoryID, modelID)
	if err != nil {
		return domain.Target{}, err
	}
	return domain.Target{Name: m.Name, Family: m.Family}, nil
}

// FamilyFromName は大文字小文字を無視して系統を推定します。
// モデル名を英字の並びごとに区切り、語頭がトークンに一致するものを採用します
// （"Wan2.2" は Wan、"Swan" や "Taiwan" は一致しない）。
func FamilyFromName(name string) domain.Family {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool { return !unicode.IsLetter(r) })
	for _, ft := range familyTokens {
		for _, w := range words {
			if strings.HasPrefix(w, ft.token) {
				return ft.family
			}
		}
	}
	return domain.FamilyNone
}
