package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/shouni/cineprompt-kit/pkg/catalog"
	"github.com/shouni/cineprompt-kit/pkg/domain"
	"github.com/shouni/cineprompt-kit/pkg/generator"
	"github.com/shouni/cineprompt-kit/pkg/prompt"
)

var (
	// ErrNothingToGenerate はテキストも参照画像も無いことを表します。
	ErrNothingToGenerate = errors.New("nothing to generate from")
	// ErrStale は生成中にシーンがリセットされ、結果を破棄したことを表します。
	ErrStale = errors.New("scene changed during generation")
	// ErrInvalidSlot は未知のフレームスロットです。
	ErrInvalidSlot = errors.New("invalid frame slot")
)

// Recorder は成功した生成結果を履歴に記録します。
type Recorder interface {
	Append(ctx context.Context, result domain.GenerationResult, inputText, modelName string) domain.HistoryEntry
}

// Settings はユーザーが編集する入力欄です。nil のフィールドは変更しません。
type Settings struct {
	Text        *string                   `json:"text,omitempty"`
	CategoryID  *string                   `json:"categoryId,omitempty"`
	ModelID     *string                   `json:"modelId,omitempty"`
	CustomModel *string                   `json:"customModel,omitempty"`
	Options     *domain.GenerationOptions `json:"options,omitempty"`
}

// State は画面に表示するシーンの状態です。
type State struct {
	Text        string                   `json:"text"`
	CategoryID  string                   `json:"categoryId"`
	ModelID     string                   `json:"modelId"`
	CustomModel string                   `json:"customModel"`
	Options     domain.GenerationOptions `json:"options"`
	Start       *domain.ImageAsset       `json:"start,omitempty"`
	End         *domain.ImageAsset       `json:"end,omitempty"`
	Result      *domain.GenerationResult `json:"result,omitempty"`
	Error       string                   `json:"error,omitempty"`
	Busy        bool                     `json:"busy"`
	Epoch       uint64                   `json:"epoch"`
}

// Session は1つの編集中シーンを保持し、生成の流れを取りまとめます。
type Session struct {
	mu       sync.Mutex
	state    State
	gen      generator.PromptGenerator
	recorder Recorder
}

// New は依存関係を注入して Session を初期化します。
func New(gen generator.PromptGenerator, recorder Recorder) (*Session, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("recorder is required")
	}
	return &Session{
		state: State{
			CategoryID: catalog.DefaultCategoryID,
			ModelID:    catalog.DefaultModelID,
			Options:    domain.DefaultOptions(),
		},
		gen:      gen,
		recorder: recorder,
	}, nil
}

// Snapshot は現在の状態のコピーを返します。
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Update は入力欄を更新します。カテゴリを変えてモデルを指定しない場合は先頭のモデルを選びます。
func (s *Session) Update(in Settings) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state
	if in.Text != nil {
		next.Text = *in.Text
	}
	if in.CustomModel != nil {
		next.CustomModel = *in.CustomModel
	}
	if in.Options != nil {
		next.Options = *in.Options
	}
	if in.CategoryID != nil && *in.CategoryID != next.CategoryID {
		next.CategoryID = *in.CategoryID
		next.ModelID = ""
	}
	if in.ModelID != nil {
		next.ModelID = *in.ModelID
	}

	if next.CategoryID != catalog.CustomCategoryID {
		m, err := catalog.FindModel(next.CategoryID, next.ModelID)
		if err != nil {
			return s.state, err
		}
		next.ModelID = m.ID
	} else {
		next.ModelID = ""
	}

	s.state = next
	return s.state, nil
}

// SetFrame はスロットに画像を置きます。既存の画像は置き換えます。
func (s *Session) SetFrame(slot domain.FrameSlot, asset *domain.ImageAsset) error {
	if !slot.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}
	if asset == nil {
		return s.RemoveFrame(slot)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	*s.slotLocked(slot) = asset
	return nil
}

// RemoveFrame はスロットを空にします。
func (s *Session) RemoveFrame(slot domain.FrameSlot) error {
	if !slot.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	*s.slotLocked(slot) = nil
	return nil
}

// SwapFrames は開始フレームと終了フレームを入れ替えます。
// 縦横比の判定結果は画像と一緒に移動します。
func (s *Session) SwapFrames() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Start, s.state.End = s.state.End, s.state.Start
}

// Reset は新しいシーンを始めます。テキスト・画像・結果・エラーを消し、
// 実行中の生成があればその結果は破棄されます。モデル選択とオプションは残します。
func (s *Session) Reset() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Text = ""
	s.state.Start = nil
	s.state.End = nil
	s.state.Result = nil
	s.state.Error = ""
	s.state.Epoch++
	return s.state
}

// Generate は現在のシーンからプロンプトを生成します。
// 成功すると結果を表示状態に反映し履歴に追加します。失敗するとエラー欄に理由を入れます。
func (s *Session) Generate(ctx context.Context) (*domain.GenerationResult, error) {
	s.mu.Lock()
	st := s.state
	if strings.TrimSpace(st.Text) == "" && st.Start == nil && st.End == nil {
		s.mu.Unlock()
		return nil, ErrNothingToGenerate
	}
	if st.Busy || s.gen.Busy() {
		s.mu.Unlock()
		return nil, generator.ErrBusy
	}

	target, err := catalog.Resolve(st.CategoryID, st.ModelID, st.CustomModel)
	if err != nil {
		s.state.Error = UserMessage(err)
		s.mu.Unlock()
		return nil, err
	}

	req := domain.GenerationRequest{
		Text:    st.Text,
		Target:  target,
		Start:   st.Start,
		End:     st.End,
		Options: st.Options,
	}
	epoch := st.Epoch
	s.state.Busy = true
	s.state.Error = ""
	s.state.Result = nil
	s.mu.Unlock()

	res, genErr := s.gen.Generate(ctx, prompt.Build(req))

	s.mu.Lock()
	s.state.Busy = false
	if s.state.Epoch != epoch {
		s.mu.Unlock()
		slog.InfoContext(ctx, "シーンが変更されたため生成結果を破棄しました", "model", target.Name)
		return nil, ErrStale
	}
	if genErr != nil {
		s.state.Error = UserMessage(genErr)
		s.state.Result = nil
		s.mu.Unlock()
		return nil, genErr
	}
	s.state.Result = res
	s.mu.Unlock()

	s.recorder.Append(ctx, *res, req.Text, target.Name)
	return res, nil
}

// ShowEntry は履歴の項目を結果欄に表示します。
func (s *Session) ShowEntry(e domain.HistoryEntry) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := e.GenerationResult
	s.state.Result = &res
	s.state.Error = ""
	return s.state
}

func (s *Session) slotLocked(slot domain.FrameSlot) **domain.ImageAsset {
	if slot == domain.FrameEnd {
		return &s.state.End
	}
	return &s.state.Start
}
