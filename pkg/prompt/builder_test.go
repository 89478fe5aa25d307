package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/cineprompt-kit/pkg/domain"
)

var (
	kling = domain.Target{Name: "Kling O1 Video", Family: domain.FamilyKling}
	veo   = domain.Target{Name: "Veo 3.1", Family: domain.FamilyVeo}
	other = domain.Target{Name: "Runway Gen-4", Family: domain.FamilyNone}
)

func frame() *domain.ImageAsset {
	return domain.NewImageAsset("AAAA", "image/png", 1920, 1080)
}

// allOptions は4つのフラグの全組み合わせを返します。
func allOptions() []domain.GenerationOptions {
	var out []domain.GenerationOptions
	for i := 0; i < 16; i++ {
		out = append(out, domain.GenerationOptions{
			ShortPrompt:       i&1 != 0,
			IncludeTechParams: i&2 != 0,
			FixColorShift:     i&4 != 0,
			HighFidelity:      i&8 != 0,
		})
	}
	return out
}

func imageCombos() []struct {
	name       string
	start, end *domain.ImageAsset
} {
	return []struct {
		name       string
		start, end *domain.ImageAsset
	}{
		{"画像なし", nil, nil},
		{"開始のみ", frame(), nil},
		{"終了のみ", nil, frame()},
		{"開始と終了", frame(), frame()},
	}
}

func containsAllColorPhrases(text string) bool {
	for _, p := range ColorPreservationPhrases {
		if !strings.Contains(text, p) {
			return false
		}
	}
	return true
}

func containsAnyColorPhrase(text string) bool {
	for _, p := range ColorPreservationPhrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func TestBuild_DirectiveProperties(t *testing.T) {
	for _, imgs := range imageCombos() {
		for _, opts := range allOptions() {
			name := fmt.Sprintf("%s/%+v", imgs.name, opts)
			t.Run(name, func(t *testing.T) {
				in := Build(domain.GenerationRequest{
					Text: "a fox runs through snow", Target: kling,
					Start: imgs.start, End: imgs.end, Options: opts,
				})
				hasImages := imgs.start != nil || imgs.end != nil

				// 忠実度と長さは必ずちょうど1つ
				assert.Equal(t, 1, in.Count(KindFidelity))
				assert.Equal(t, 1, in.Count(KindLength))
				assert.Equal(t, opts.HighFidelity, in.Has(KindFidelity, VariantStrict))

				// 色の文言は fixColorShift かつ画像ありの場合のみ
				wantColor := opts.FixColorShift && hasImages
				assert.Equal(t, wantColor, in.Count(KindColorFidelity) == 1)
				if wantColor {
					assert.True(t, containsAllColorPhrases(in.Text()))
				} else {
					assert.False(t, containsAnyColorPhrase(in.Text()))
				}

				// 技術パラメータのバリアント
				assert.Equal(t, opts.IncludeTechParams && hasImages, in.Has(KindTechParams, VariantReverseEngineer))
				assert.Equal(t, opts.IncludeTechParams && !hasImages, in.Has(KindTechParams, VariantInventGear))

				// 長さの免除は短文・色修正・画像ありが揃った場合のみ
				assert.Equal(t, opts.ShortPrompt && opts.FixColorShift && hasImages, in.Has(KindLength, VariantShortExempt))
				assert.Equal(t, !opts.ShortPrompt, in.Has(KindLength, VariantLong))
			})
		}
	}
}

func TestBuild_KlingTextOnlyShort(t *testing.T) {
	in := Build(domain.GenerationRequest{
		Text:    "a samurai walks into a bamboo forest",
		Target:  kling,
		Options: domain.GenerationOptions{ShortPrompt: true},
	})

	assert.True(t, in.Has(KindFamily, VariantTextToVideo))
	assert.Contains(t, in.Text(), "KLING TEXT-TO-VIDEO STRUCTURE")
	assert.True(t, in.Has(KindLength, VariantShort))
	assert.Contains(t, in.Text(), "20-40 words")
	assert.Zero(t, in.Count(KindColorFidelity))
	assert.Zero(t, in.Count(KindTechParams))
	assert.Zero(t, in.Count(KindTask))
	assert.False(t, containsAnyColorPhrase(in.Text()))
}

func TestBuild_KlingStartEndColorFixShort(t *testing.T) {
	in := Build(domain.GenerationRequest{
		Text:    "the flower blooms",
		Target:  kling,
		Start:   frame(),
		End:     frame(),
		Options: domain.GenerationOptions{ShortPrompt: true, FixColorShift: true},
	})
	text := in.Text()

	assert.True(t, in.Has(KindFamily, VariantImageToVideo))
	assert.Contains(t, text, "motion delta")
	assert.Contains(t, text, "Do NOT re-describe static visual content")
	assert.Contains(t, text, "Do NOT instruct any hard scene cut")
	assert.True(t, in.Has(KindLength, VariantShortExempt))
	assert.Contains(t, text, "MAY exceed the short cap")
	assert.True(t, in.Has(KindTask, VariantBridge))
	assert.True(t, containsAllColorPhrases(text))
}

func TestBuild_FamilyDispatch(t *testing.T) {
	t.Run("Veo のテキストモードは物語調なのだ", func(t *testing.T) {
		in := Build(domain.GenerationRequest{Text: "x", Target: veo})
		assert.True(t, in.Has(KindFamily, VariantTextToVideo))
		assert.Contains(t, in.Text(), "flowing cinematic narrative")
	})

	t.Run("Veo の画像モードは差分のみなのだ", func(t *testing.T) {
		in := Build(domain.GenerationRequest{Text: "x", Target: veo, End: frame()})
		assert.True(t, in.Has(KindFamily, VariantImageToVideo))
		assert.Contains(t, in.Text(), "motion delta")
	})

	t.Run("未知の系統には系統ブロックを付けないのだ", func(t *testing.T) {
		in := Build(domain.GenerationRequest{Text: "x", Target: other, Start: frame()})
		assert.Zero(t, in.Count(KindFamily))
	})
}

func TestBuild_TaskDirective(t *testing.T) {
	start := Build(domain.GenerationRequest{Text: "x", Target: kling, Start: frame()})
	assert.True(t, start.Has(KindTask, VariantStartOnly))

	endOnly := Build(domain.GenerationRequest{Text: "x", Target: kling, End: frame()})
	assert.Zero(t, endOnly.Count(KindTask))

	none := Build(domain.GenerationRequest{Text: "x", Target: kling})
	assert.Zero(t, none.Count(KindTask))
}

func TestBuild_BaselineAndOrder(t *testing.T) {
	in := Build(domain.GenerationRequest{
		Text:    "neon rain on a rooftop",
		Target:  kling,
		Start:   frame(),
		Options: domain.GenerationOptions{IncludeTechParams: true, FixColorShift: true},
	})

	require.NotEmpty(t, in.Fragments)
	assert.Equal(t, KindBaseline, in.Fragments[0].Kind)
	assert.Contains(t, in.Fragments[0].Text, `"neon rain on a rooftop"`)
	assert.Contains(t, in.Fragments[0].Text, `"Kling O1 Video"`)

	var kinds []Kind
	for _, f := range in.Fragments {
		kinds = append(kinds, f.Kind)
	}
	assert.Equal(t, []Kind{KindBaseline, KindFamily, KindFidelity, KindLength, KindTechParams, KindColorFidelity, KindTask}, kinds)
}

func TestBuild_Deterministic(t *testing.T) {
	req := domain.GenerationRequest{
		Text: "waves", Target: veo, Start: frame(), End: frame(),
		Options: domain.GenerationOptions{ShortPrompt: true, IncludeTechParams: true, FixColorShift: true, HighFidelity: true},
	}
	assert.Equal(t, Build(req), Build(req))
}

func TestInstruction_Segments(t *testing.T) {
	start, end := frame(), frame()
	in := Build(domain.GenerationRequest{Text: "x", Target: kling, Start: start, End: end})

	segs := in.Segments()
	require.Len(t, segs, 5)
	assert.Same(t, start, segs[0].Image)
	assert.Equal(t, StartFrameMarker, segs[1].Text)
	assert.Same(t, end, segs[2].Image)
	assert.Equal(t, EndFrameMarker, segs[3].Text)
	assert.Equal(t, in.Text(), segs[4].Text)

	textOnly := Build(domain.GenerationRequest{Text: "x", Target: kling})
	assert.Len(t, textOnly.Segments(), 1)
}
