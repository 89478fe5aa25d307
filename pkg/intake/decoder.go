package intake

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/shouni/cineprompt-kit/pkg/domain"
	"github.com/shouni/cineprompt-kit/pkg/imgutil"
)

const (
	// DefaultMaxBytes を超える画像は送信前に JPEG へ再圧縮します。
	DefaultMaxBytes         = 4 << 20
	DefaultMaxEdge          = 2048
	ImageCompressionQuality = 85
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmptyFile       = errors.New("empty file")
	ErrUndecodable     = errors.New("image could not be decoded")
)

// File はアップロードやドラッグ&ドロップで受け取ったファイルです。
type File struct {
	Name     string
	MIMEType string // 申告された MIME タイプ。空の場合は中身から判定する
	Data     []byte
}

// First は複数のファイルが渡された場合に先頭のものを返します。
func First(files []File) (File, bool) {
	if len(files) == 0 {
		return File{}, false
	}
	return files[0], true
}

// Decoder は受け取ったファイルを ImageAsset に変換します。
type Decoder struct {
	maxBytes int
	maxEdge  int
	fetcher  Fetcher
}

// Option は Decoder の設定を変更します。
type Option func(*Decoder)

// WithMaxBytes は再圧縮を行うサイズの閾値を設定します。
func WithMaxBytes(n int) Option {
	return func(d *Decoder) { d.maxBytes = n }
}

// WithMaxEdge は再圧縮時の長辺の上限を設定します。
func WithMaxEdge(n int) Option {
	return func(d *Decoder) { d.maxEdge = n }
}

// WithFetcher はリモート画像の取得に使う Fetcher を設定します。
func WithFetcher(f Fetcher) Option {
	return func(d *Decoder) { d.fetcher = f }
}

// NewDecoder は Decoder を初期化します。
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		maxBytes: DefaultMaxBytes,
		maxEdge:  DefaultMaxEdge,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode はファイルを検証し、送信用ペイロードと寸法の両方が揃った ImageAsset を返します。
// ペイロードの変換と寸法の読み取りは並行に行い、両方の完了を待ってから返すため、
// 準拠フラグが未確定の ImageAsset が呼び出し元に見えることはありません。
func (d *Decoder) Decode(ctx context.Context, f File) (*domain.ImageAsset, error) {
	if len(f.Data) == 0 {
		return nil, ErrEmptyFile
	}

	mimeType := strings.ToLower(strings.TrimSpace(f.MIMEType))
	if mimeType == "" {
		mimeType = http.DetectContentType(f.Data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}

	var (
		payload     string
		payloadMIME = mimeType
		width       int
		height      int
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		data := f.Data
		if d.maxBytes > 0 && len(data) > d.maxBytes {
			compressed, err := imgutil.CompressToJPEG(data, ImageCompressionQuality, d.maxEdge)
			if err != nil {
				slog.WarnContext(ctx, "画像の再圧縮に失敗しました。元データのまま送信します", "name", f.Name, "error", err)
			} else {
				data = compressed
				payloadMIME = "image/jpeg"
			}
		}
		payload = base64.StdEncoding.EncodeToString(data)
		return nil
	})
	g.Go(func() error {
		w, h, _, err := imgutil.Dimensions(f.Data)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUndecodable, err)
		}
		width, height = w, h
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	asset := domain.NewImageAsset(payload, payloadMIME, width, height)
	if asset.NonCompliant() {
		slog.InfoContext(ctx, "画像の縦横比が16:9ではありません", "name", f.Name, "width", width, "height", height)
	}
	return asset, nil
}

// DecodeFirst は先頭のファイルのみをデコードします。ファイルが無い場合は nil を返します。
func (d *Decoder) DecodeFirst(ctx context.Context, files []File) (*domain.ImageAsset, error) {
	f, ok := First(files)
	if !ok {
		return nil, nil
	}
	return d.Decode(ctx, f)
}

// DecodeURL はリモートの画像を取得してデコードします。
func (d *Decoder) DecodeURL(ctx context.Context, rawURL string) (*domain.ImageAsset, error) {
	if d.fetcher == nil {
		return nil, fmt.Errorf("remote fetcher is not configured")
	}
	f, err := d.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return d.Decode(ctx, f)
}
