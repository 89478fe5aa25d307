package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/shouni/cineprompt-kit/pkg/catalog"
	"github.com/shouni/cineprompt-kit/pkg/domain"
	"github.com/shouni/cineprompt-kit/pkg/generator"
	"github.com/shouni/cineprompt-kit/pkg/intake"
	"github.com/shouni/cineprompt-kit/pkg/session"
)

const (
	// DefaultMaxUploadBytes はフレームのアップロード1回あたりの本文の上限です。
	DefaultMaxUploadBytes = 32 << 20
	// maxUploadMemory はマルチパートのうちメモリに保持する上限です。
	maxUploadMemory = 8 << 20
)

// FrameDecoder はアップロードや URL から参照画像を作ります。
type FrameDecoder interface {
	DecodeFirst(ctx context.Context, files []intake.File) (*domain.ImageAsset, error)
	DecodeURL(ctx context.Context, rawURL string) (*domain.ImageAsset, error)
}

// HistoryStore は HTTP から参照・削除する履歴です。
type HistoryStore interface {
	All() []domain.HistoryEntry
	Get(id string) (domain.HistoryEntry, bool)
	Clear(ctx context.Context)
}

// Handler は編集中シーンと履歴を HTTP で公開します。
type Handler struct {
	session  *session.Session
	history  HistoryStore
	decoder  FrameDecoder
	validate *validator.Validate

	maxUploadBytes int64
}

// Option は Handler の設定を変更します。
type Option func(*Handler)

// WithMaxUploadBytes はアップロード本文の上限を設定します。0 以下の場合は既定値のままです。
func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// NewHandler は依存関係を注入して Handler を生成します。
func NewHandler(sess *session.Session, history HistoryStore, decoder FrameDecoder, opts ...Option) (*Handler, error) {
	if sess == nil {
		return nil, fmt.Errorf("session is required")
	}
	if history == nil {
		return nil, fmt.Errorf("history store is required")
	}
	if decoder == nil {
		return nil, fmt.Errorf("frame decoder is required")
	}
	h := &Handler{
		session:        sess,
		history:        history,
		decoder:        decoder,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// RegisterRoutes はルーターにエンドポイントを登録します。
func (h *Handler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/models", h.ListModels).Methods(http.MethodGet)

	api.HandleFunc("/scene", h.GetScene).Methods(http.MethodGet)
	api.HandleFunc("/scene", h.UpdateScene).Methods(http.MethodPut)
	api.HandleFunc("/scene/frames/{slot}", h.UploadFrame).Methods(http.MethodPut)
	api.HandleFunc("/scene/frames/{slot}/url", h.FetchFrame).Methods(http.MethodPost)
	api.HandleFunc("/scene/frames/{slot}", h.DeleteFrame).Methods(http.MethodDelete)
	api.HandleFunc("/scene/swap", h.SwapFrames).Methods(http.MethodPost)
	api.HandleFunc("/scene/reset", h.ResetScene).Methods(http.MethodPost)
	api.HandleFunc("/scene/generate", h.Generate).Methods(http.MethodPost)

	api.HandleFunc("/history", h.ListHistory).Methods(http.MethodGet)
	api.HandleFunc("/history", h.ClearHistory).Methods(http.MethodDelete)
	api.HandleFunc("/history/{id}", h.GetHistoryEntry).Methods(http.MethodGet)
	api.HandleFunc("/history/{id}/show", h.ShowHistoryEntry).Methods(http.MethodPost)
}

// ListModels はモデルカタログを返します。
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.Categories)
}

// GetScene は現在のシーンを返します。
func (h *Handler) GetScene(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// UpdateScene はテキスト・モデル選択・オプションを更新します。
func (h *Handler) UpdateScene(w http.ResponseWriter, r *http.Request) {
	var in session.Settings
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	st, err := h.session.Update(in)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// UploadFrame はマルチパートの file フィールドの先頭ファイルをスロットに置きます。
// 画像以外のファイルは無視し、状態を変えずに 204 を返します。
func (h *Handler) UploadFrame(w http.ResponseWriter, r *http.Request) {
	slot, ok := slotFromRequest(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}

	f, err := readFileHeader(headers[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	asset, err := h.decoder.DecodeFirst(r.Context(), []intake.File{f})
	h.applyFrame(w, r, slot, asset, err)
}

type fetchFrameRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// FetchFrame はリモート URL の画像をスロットに置きます。
func (h *Handler) FetchFrame(w http.ResponseWriter, r *http.Request) {
	slot, ok := slotFromRequest(w, r)
	if !ok {
		return
	}
	var req fetchFrameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "url must be a valid URL")
		return
	}
	asset, err := h.decoder.DecodeURL(r.Context(), req.URL)
	h.applyFrame(w, r, slot, asset, err)
}

func (h *Handler) applyFrame(w http.ResponseWriter, r *http.Request, slot domain.FrameSlot, asset *domain.ImageAsset, err error) {
	switch {
	case errors.Is(err, intake.ErrUnsupportedType):
		slog.InfoContext(r.Context(), "画像以外のファイルを無視しました", "slot", slot, "error", err)
		w.WriteHeader(http.StatusNoContent)
		return
	case errors.Is(err, intake.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	case errors.Is(err, intake.ErrUnsafeURL):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		slog.WarnContext(r.Context(), "参照画像の取り込みに失敗しました", "slot", slot, "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case asset == nil:
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	if err := h.session.SetFrame(slot, asset); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// DeleteFrame はスロットを空にします。
func (h *Handler) DeleteFrame(w http.ResponseWriter, r *http.Request) {
	slot, ok := slotFromRequest(w, r)
	if !ok {
		return
	}
	_ = h.session.RemoveFrame(slot)
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// SwapFrames は開始と終了のフレームを入れ替えます。
func (h *Handler) SwapFrames(w http.ResponseWriter, r *http.Request) {
	h.session.SwapFrames()
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// ResetScene は新しいシーンを始めます。
func (h *Handler) ResetScene(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Reset())
}

type generateResponse struct {
	Result *domain.GenerationResult `json:"result,omitempty"`
	Error  string                   `json:"error,omitempty"`
	State  session.State            `json:"state"`
}

// Generate は現在のシーンからプロンプトを生成します。
// 実行中の生成は中断できないため、クライアントが切断しても完了まで続けます。
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	res, err := h.session.Generate(context.WithoutCancel(r.Context()))
	if err != nil {
		writeJSON(w, generateStatus(err), generateResponse{
			Error: session.UserMessage(err),
			State: h.session.Snapshot(),
		})
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{Result: res, State: h.session.Snapshot()})
}

func generateStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrNothingToGenerate),
		errors.Is(err, catalog.ErrCustomModelName),
		errors.Is(err, catalog.ErrUnknownModel):
		return http.StatusBadRequest
	case errors.Is(err, generator.ErrBusy), errors.Is(err, session.ErrStale):
		return http.StatusConflict
	case errors.Is(err, generator.ErrMissingCredential):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// ListHistory は新しい順の履歴を返します。
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.history.All())
}

// GetHistoryEntry は1件の履歴を返します。
func (h *Handler) GetHistoryEntry(w http.ResponseWriter, r *http.Request) {
	e, ok := h.history.Get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "history entry not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// ShowHistoryEntry は履歴の結果をシーンの結果欄に表示します。
func (h *Handler) ShowHistoryEntry(w http.ResponseWriter, r *http.Request) {
	e, ok := h.history.Get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "history entry not found")
		return
	}
	writeJSON(w, http.StatusOK, h.session.ShowEntry(e))
}

// ClearHistory は confirm=true が指定された場合のみ履歴を消去します。
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, http.StatusBadRequest, "confirm=true is required")
		return
	}
	h.history.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func slotFromRequest(w http.ResponseWriter, r *http.Request) (domain.FrameSlot, bool) {
	slot := domain.FrameSlot(mux.Vars(r)["slot"])
	if !slot.Valid() {
		writeError(w, http.StatusNotFound, "unknown frame slot")
		return "", false
	}
	return slot, true
}

func readFileHeader(fh *multipart.FileHeader) (intake.File, error) {
	src, err := fh.Open()
	if err != nil {
		return intake.File{}, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return intake.File{}, fmt.Errorf("read upload: %w", err)
	}
	return intake.File{
		Name:     fh.Filename,
		MIMEType: fh.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}
