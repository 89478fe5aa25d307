package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/url"
	"path"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultFetchTimeout = 20 * time.Second
	DefaultMaxFetchSize = 20 << 20
)

var (
	ErrUnsafeURL = errors.New("unsafe url")
	// ErrTooLarge は取得した画像がサイズ上限を超えたことを表します。
	ErrTooLarge = errors.New("remote image too large")
)

// Fetcher はリモートの画像を File として取得します。
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (File, error)
}

// RemoteFetcher は SSRF 対策付きで HTTP(S) から画像を取得します。
type RemoteFetcher struct {
	client       *resty.Client
	lookupIP     func(host string) ([]net.IP, error)
	allowPrivate bool
	maxSize      int
}

// FetcherOption は RemoteFetcher の設定を変更します。
type FetcherOption func(*RemoteFetcher)

// WithAllowPrivateNetworks はプライベートアドレスへの接続を許可します。ローカル開発用です。
func WithAllowPrivateNetworks() FetcherOption {
	return func(f *RemoteFetcher) { f.allowPrivate = true }
}

// WithTimeout は取得のタイムアウトを設定します。0 以下の場合は既定値のままです。
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *RemoteFetcher) {
		if d > 0 {
			f.client.SetTimeout(d)
		}
	}
}

// WithMaxSize は取得する本文の上限バイト数を設定します。0 以下の場合は既定値のままです。
func WithMaxSize(n int) FetcherOption {
	return func(f *RemoteFetcher) {
		if n > 0 {
			f.maxSize = n
		}
	}
}

// NewRemoteFetcher は RemoteFetcher を初期化します。
// リダイレクト先の再検証を避けるため、リダイレクトは追跡しません。
func NewRemoteFetcher(opts ...FetcherOption) *RemoteFetcher {
	client := resty.New().
		SetTimeout(DefaultFetchTimeout).
		SetHeader("User-Agent", "cineprompt-kit/1.0").
		SetRedirectPolicy(resty.NoRedirectPolicy())

	f := &RemoteFetcher{
		client:   client,
		lookupIP: net.LookupIP,
		maxSize:  DefaultMaxFetchSize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch は URL を検証した上で画像を取得します。
func (f *RemoteFetcher) Fetch(ctx context.Context, rawURL string) (File, error) {
	if err := f.checkURL(rawURL); err != nil {
		slog.WarnContext(ctx, "SSRFの可能性がある、または不正なURLをブロックしました", "url", rawURL, "error", err)
		return File{}, err
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		return File{}, fmt.Errorf("参照画像のダウンロードに失敗しました: %w", err)
	}
	raw := resp.RawBody()
	if raw == nil {
		return File{}, ErrEmptyFile
	}
	defer raw.Close()

	if resp.IsError() {
		return File{}, fmt.Errorf("参照画像のダウンロードに失敗しました (status %d)", resp.StatusCode())
	}
	if resp.RawResponse != nil && resp.RawResponse.ContentLength > int64(f.maxSize) {
		return File{}, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.RawResponse.ContentLength)
	}

	// 上限 + 1 バイトまで読めば超過を判定できる
	body, err := io.ReadAll(io.LimitReader(raw, int64(f.maxSize)+1))
	if err != nil {
		return File{}, fmt.Errorf("参照画像の読み込みに失敗しました: %w", err)
	}
	if len(body) > f.maxSize {
		return File{}, fmt.Errorf("%w: over %d bytes", ErrTooLarge, f.maxSize)
	}

	mimeType := ""
	if ct := resp.Header().Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil {
			mimeType = mt
		}
	}
	// octet-stream は申告なしとして扱い、中身から判定させる
	if mimeType == "application/octet-stream" {
		mimeType = ""
	}

	name := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		name = path.Base(u.Path)
	}
	return File{Name: name, MIMEType: mimeType, Data: body}, nil
}

// checkURL は許可されたスキーム (http, https) かつ、
// 名前解決されたすべての IP がプライベート・ループバック等でないことを確認します。
func (f *RemoteFetcher) checkURL(rawURL string) error {
	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return fmt.Errorf("%w: URLパース失敗: %v", ErrUnsafeURL, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%w: 不許可スキーム: %s", ErrUnsafeURL, parsedURL.Scheme)
	}
	if f.allowPrivate {
		return nil
	}

	host := parsedURL.Hostname()
	var ips []net.IP
	if ip := net.ParseIP(host); ip != nil {
		ips = []net.IP{ip}
	} else {
		resolved, err := f.lookupIP(host)
		if err != nil {
			return fmt.Errorf("%w: 名前解決失敗: %v", ErrUnsafeURL, err)
		}
		ips = resolved
	}
	if len(ips) == 0 {
		return fmt.Errorf("%w: IPが見つかりません", ErrUnsafeURL)
	}

	for _, ip := range ips {
		if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
			return fmt.Errorf("%w: 制限されたネットワークへのアクセスを検知: %s", ErrUnsafeURL, ip.String())
		}
	}
	return nil
}
