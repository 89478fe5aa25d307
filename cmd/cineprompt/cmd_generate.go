package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shouni/cineprompt-kit/pkg/domain"
	"github.com/shouni/cineprompt-kit/pkg/intake"
	"github.com/shouni/cineprompt-kit/pkg/session"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a video prompt once and print it",
	Long: `Build the instruction from text and/or reference frames, call the backend
and print the optimized prompt. The result is appended to the history.`,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.String("text", "", "Idea or scene description")
	f.String("category", "", "Model category id (see 'cineprompt models')")
	f.String("model", "", "Model id inside the category")
	f.String("custom", "", "Model name when --category custom")
	f.String("start", "", "Start frame (file path or http(s) URL)")
	f.String("end", "", "End frame (file path or http(s) URL)")
	f.Bool("short", true, "Short prompt")
	f.Bool("tech", false, "Include technical camera parameters")
	f.Bool("color-fix", false, "Preserve the source color grading")
	f.Bool("fidelity", false, "Strict fidelity to the reference frames")
	f.Bool("json", false, "Print the result as JSON")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	f := cmd.Flags()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	text, _ := f.GetString("text")
	category, _ := f.GetString("category")
	model, _ := f.GetString("model")
	custom, _ := f.GetString("custom")
	short, _ := f.GetBool("short")
	tech, _ := f.GetBool("tech")
	colorFix, _ := f.GetBool("color-fix")
	fidelity, _ := f.GetBool("fidelity")

	settings := session.Settings{
		Text:        &text,
		CustomModel: &custom,
		Options: &domain.GenerationOptions{
			ShortPrompt:       short,
			IncludeTechParams: tech,
			FixColorShift:     colorFix,
			HighFidelity:      fidelity,
		},
	}
	if category != "" {
		settings.CategoryID = &category
	}
	if model != "" {
		settings.ModelID = &model
	}
	if _, err := a.session.Update(settings); err != nil {
		return err
	}

	for slot, flag := range map[domain.FrameSlot]string{domain.FrameStart: "start", domain.FrameEnd: "end"} {
		src, _ := f.GetString(flag)
		if src == "" {
			continue
		}
		asset, err := loadFrame(ctx, a.decoder, src)
		if errors.Is(err, intake.ErrUnsupportedType) {
			slog.WarnContext(ctx, "画像ではないため無視しました", "slot", slot, "source", src)
			continue
		}
		if err != nil {
			return fmt.Errorf("%s frame: %w", flag, err)
		}
		if asset.NonCompliant() {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s frame is %dx%d, not 16:9\n", flag, asset.Width, asset.Height)
		}
		if err := a.session.SetFrame(slot, asset); err != nil {
			return err
		}
	}

	res, err := a.session.Generate(ctx)
	if err != nil {
		return errors.New(session.UserMessage(err))
	}

	asJSON, _ := f.GetBool("json")
	return printResult(cmd.OutOrStdout(), res, asJSON)
}

func loadFrame(ctx context.Context, dec *intake.Decoder, src string) (*domain.ImageAsset, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return dec.DecodeURL(ctx, src)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, err
	}
	return dec.Decode(ctx, intake.File{Name: filepath.Base(src), Data: data})
}

func printResult(w io.Writer, res *domain.GenerationResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	fmt.Fprintf(w, "%s\n\n", res.MainPrompt)
	fmt.Fprintf(w, "Reasoning: %s\n", res.Reasoning)
	if s := res.SuggestedSettings; s != nil {
		fmt.Fprintf(w, "Settings: resolution=%s fps=%s motion=%g\n", s.Resolution, s.FPS, s.MotionScale)
	}
	if res.Fallback {
		fmt.Fprintf(w, "(fallback model: %s)\n", res.BackendModel)
	}
	return nil
}
