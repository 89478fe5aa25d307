package prompt

import (
	"fmt"
	"strings"

	"github.com/shouni/cineprompt-kit/pkg/domain"
)

// Kind は指示ブロックの種類です。
type Kind int

const (
	KindBaseline Kind = iota
	KindFamily
	KindFidelity
	KindLength
	KindTechParams
	KindColorFidelity
	KindTask
)

// 各ブロックのバリアント名。
const (
	VariantImageToVideo = "image-to-video"
	VariantTextToVideo  = "text-to-video"

	VariantStrict   = "strict"
	VariantCreative = "creative"

	VariantShortExempt = "short-exempt"
	VariantShort       = "short"
	VariantLong        = "long"

	VariantReverseEngineer = "reverse-engineer"
	VariantInventGear      = "invent-gear"

	VariantBridge    = "bridge"
	VariantStartOnly = "start-only"
)

// Fragment は指示テキストの1ブロックです。
type Fragment struct {
	Kind    Kind
	Variant string
	Text    string
}

// Segment は送信順に並べたコンテンツの1要素です。Image か Text のどちらか一方を持ちます。
type Segment struct {
	Image *domain.ImageAsset
	Text  string
}

// Instruction は生成バックエンドへ渡す指示一式です。
// システム指示はここには含めず、生成クライアント側で付与します。
type Instruction struct {
	Fragments []Fragment
	Start     *domain.ImageAsset
	End       *domain.ImageAsset
	Target    domain.Target
	Options   domain.GenerationOptions
}

// HasImages は参照画像が1枚以上あるかを返します。
func (in Instruction) HasImages() bool {
	return in.Start != nil || in.End != nil
}

// Text は全ブロックを順番に連結した指示テキストです。
func (in Instruction) Text() string {
	texts := make([]string, 0, len(in.Fragments))
	for _, f := range in.Fragments {
		texts = append(texts, f.Text)
	}
	return strings.Join(texts, "\n\n")
}

// Count は指定した種類のブロック数を返します。
func (in Instruction) Count(kind Kind) int {
	n := 0
	for _, f := range in.Fragments {
		if f.Kind == kind {
			n++
		}
	}
	return n
}

// Has は指定した種類・バリアントのブロックが含まれるかを返します。
func (in Instruction) Has(kind Kind, variant string) bool {
	for _, f := range in.Fragments {
		if f.Kind == kind && f.Variant == variant {
			return true
		}
	}
	return false
}

// Segments は画像（＋役割マーカー）、最後に指示テキストの順で送信内容を返します。
func (in Instruction) Segments() []Segment {
	var segs []Segment
	if in.Start != nil {
		segs = append(segs, Segment{Image: in.Start}, Segment{Text: StartFrameMarker})
	}
	if in.End != nil {
		segs = append(segs, Segment{Image: in.End}, Segment{Text: EndFrameMarker})
	}
	return append(segs, Segment{Text: in.Text()})
}

// Build はユーザー入力・対象モデル・オプションから指示を組み立てます。
// I/O も状態の変更も行わず、同じ入力には常に同じ結果を返します。
func Build(req domain.GenerationRequest) Instruction {
	hasImages := req.HasImages()
	opts := req.Options

	b := &builder{}

	// 1. 入力テキストと対象モデル
	b.add(KindBaseline, "", fmt.Sprintf(baselineTemplate, req.Text, req.Target.Name, req.Target.Name))

	// 2. 系統ごとのルール
	if rules, ok := familyBlocks[req.Target.Family]; ok {
		if hasImages {
			b.add(KindFamily, VariantImageToVideo, rules.imageToVideo)
		} else {
			b.add(KindFamily, VariantTextToVideo, rules.textToVideo)
		}
	}

	// 3. 忠実度（どちらか一方のみ）
	if opts.HighFidelity {
		b.add(KindFidelity, VariantStrict, strictFidelityDirective)
	} else {
		b.add(KindFidelity, VariantCreative, creativeDirective)
	}

	// 4. 長さ（どれか一つのみ）
	switch {
	case opts.ShortPrompt && opts.FixColorShift && hasImages:
		b.add(KindLength, VariantShortExempt, shortWithColorExemptionDirective)
	case opts.ShortPrompt:
		b.add(KindLength, VariantShort, shortDirective)
	default:
		b.add(KindLength, VariantLong, longDirective)
	}

	// 5. 技術パラメータ
	if opts.IncludeTechParams {
		if hasImages {
			b.add(KindTechParams, VariantReverseEngineer, techFromImageDirective)
		} else {
			b.add(KindTechParams, VariantInventGear, techInventDirective)
		}
	}

	// 6. 色の忠実度は参照画像がある場合のみ意味を持つ
	if opts.FixColorShift && hasImages {
		b.add(KindColorFidelity, "", fmt.Sprintf(colorFidelityTemplate, quoteAll(ColorPreservationPhrases)))
	}

	// 7. タスク
	switch {
	case req.Start != nil && req.End != nil:
		b.add(KindTask, VariantBridge, bridgeTaskDirective)
	case req.Start != nil:
		b.add(KindTask, VariantStartOnly, startOnlyTaskDirective)
	}

	return Instruction{
		Fragments: b.fragments,
		Start:     req.Start,
		End:       req.End,
		Target:    req.Target,
		Options:   opts,
	}
}

type builder struct {
	fragments []Fragment
}

func (b *builder) add(kind Kind, variant, text string) {
	b.fragments = append(b.fragments, Fragment{Kind: kind, Variant: variant, Text: text})
}

func quoteAll(phrases []string) string {
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = `"` + p + `"`
	}
	return strings.Join(quoted, ", ")
}
