package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/cineprompt-kit/pkg/domain"
	"github.com/shouni/cineprompt-kit/pkg/generator"
	"github.com/shouni/cineprompt-kit/pkg/history"
	"github.com/shouni/cineprompt-kit/pkg/intake"
	"github.com/shouni/cineprompt-kit/pkg/prompt"
	"github.com/shouni/cineprompt-kit/pkg/session"
)

type testEnv struct {
	router  *mux.Router
	gen     *mockGenerator
	fetcher *mockFetcher
	history *history.Store
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	gen := &mockGenerator{}
	hist, err := history.New(context.Background(), history.NewMemoryStore())
	require.NoError(t, err)
	sess, err := session.New(gen, hist)
	require.NoError(t, err)
	fetcher := &mockFetcher{}
	h, err := NewHandler(sess, hist, intake.NewDecoder(intake.WithFetcher(fetcher)), opts...)
	require.NoError(t, err)
	return &testEnv{router: NewRouter(h), gen: gen, fetcher: fetcher, history: hist}
}

func (e *testEnv) do(t *testing.T, method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, files map[string][]byte, mimeType string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
		hdr.Set("Content-Type", mimeType)
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf.Bytes(), mw.FormDataContentType()
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) session.State {
	t.Helper()
	var st session.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	return st
}

func TestNewHandler(t *testing.T) {
	_, err := NewHandler(nil, nil, nil)
	assert.Error(t, err)
}

func TestHandler_Models(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/models", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kling"`)
	assert.Contains(t, rec.Body.String(), `"custom"`)
}

func TestHandler_Frames(t *testing.T) {
	t.Run("アップロードした画像がスロットに入るのだ", func(t *testing.T) {
		env := newTestEnv(t)
		body, ct := multipartBody(t, map[string][]byte{"a.png": pngBytes(t, 160, 90)}, "image/png")

		rec := env.do(t, http.MethodPut, "/api/scene/frames/start", body, ct)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		st := decodeState(t, rec)
		require.NotNil(t, st.Start)
		assert.True(t, st.Start.Compliant)
		assert.Nil(t, st.End)
	})

	t.Run("画像以外は無視して状態を変えないのだ", func(t *testing.T) {
		env := newTestEnv(t)
		body, ct := multipartBody(t, map[string][]byte{"a.txt": []byte("hello")}, "text/plain")

		rec := env.do(t, http.MethodPut, "/api/scene/frames/end", body, ct)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		st := decodeState(t, env.do(t, http.MethodGet, "/api/scene", nil, ""))
		assert.Nil(t, st.End)
	})

	t.Run("未知のスロットは404なのだ", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodDelete, "/api/scene/frames/middle", nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("URL から取り込んで入れ替えと削除ができるのだ", func(t *testing.T) {
		env := newTestEnv(t)
		data := pngBytes(t, 100, 100)
		env.fetcher.fetchFunc = func(ctx context.Context, rawURL string) (intake.File, error) {
			return intake.File{Name: rawURL, MIMEType: "image/png", Data: data}, nil
		}

		rec := env.do(t, http.MethodPost, "/api/scene/frames/start/url", []byte(`{"url":"https://example.com/a.png"}`), "application/json")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.False(t, decodeState(t, rec).Start.Compliant)

		st := decodeState(t, env.do(t, http.MethodPost, "/api/scene/swap", nil, ""))
		assert.Nil(t, st.Start)
		require.NotNil(t, st.End)

		st = decodeState(t, env.do(t, http.MethodDelete, "/api/scene/frames/end", nil, ""))
		assert.Nil(t, st.End)
	})

	t.Run("上限を超えるアップロードは413で状態を変えないのだ", func(t *testing.T) {
		env := newTestEnv(t, WithMaxUploadBytes(1<<10))
		body, ct := multipartBody(t, map[string][]byte{"big.png": bytes.Repeat([]byte{0x89}, 8<<10)}, "image/png")

		rec := env.do(t, http.MethodPut, "/api/scene/frames/start", body, ct)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		st := decodeState(t, env.do(t, http.MethodGet, "/api/scene", nil, ""))
		assert.Nil(t, st.Start)
	})

	t.Run("URL 先の画像が大きすぎれば413なのだ", func(t *testing.T) {
		env := newTestEnv(t)
		env.fetcher.fetchFunc = func(ctx context.Context, rawURL string) (intake.File, error) {
			return intake.File{}, fmt.Errorf("%w: over 1024 bytes", intake.ErrTooLarge)
		}
		rec := env.do(t, http.MethodPost, "/api/scene/frames/start/url", []byte(`{"url":"https://example.com/huge.png"}`), "application/json")
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("URL が不正なら400なのだ", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/api/scene/frames/start/url", []byte(`{"url":"not a url"}`), "application/json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("安全でない URL は400なのだ", func(t *testing.T) {
		env := newTestEnv(t)
		env.fetcher.fetchFunc = func(ctx context.Context, rawURL string) (intake.File, error) {
			return intake.File{}, fmt.Errorf("%w: loopback", intake.ErrUnsafeURL)
		}
		rec := env.do(t, http.MethodPost, "/api/scene/frames/start/url", []byte(`{"url":"http://127.0.0.1/a.png"}`), "application/json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_Generate(t *testing.T) {
	t.Run("何も入力が無ければ400なのだ", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/api/scene/generate", nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("生成すると結果を返し履歴に残るのだ", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPut, "/api/scene", []byte(`{"text":"a cat on a roof","categoryId":"veo"}`), "application/json")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = env.do(t, http.MethodPost, "/api/scene/generate", nil, "")

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp generateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "generated", resp.Result.MainPrompt)

		rec = env.do(t, http.MethodGet, "/api/history", nil, "")
		var entries []domain.HistoryEntry
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
		require.Len(t, entries, 1)
		assert.Equal(t, "Veo 3.1", entries[0].Model)
		assert.Equal(t, "a cat on a roof", entries[0].OriginalInput)

		rec = env.do(t, http.MethodGet, "/api/history/"+entries[0].ID, nil, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("クライアントが切断しても生成は中断されないのだ", func(t *testing.T) {
		env := newTestEnv(t)
		var genErr error
		env.gen.generateFunc = func(ctx context.Context, in prompt.Instruction) (*domain.GenerationResult, error) {
			genErr = ctx.Err()
			return &domain.GenerationResult{MainPrompt: "kept", Reasoning: "r"}, nil
		}
		env.do(t, http.MethodPut, "/api/scene", []byte(`{"text":"x"}`), "application/json")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		req := httptest.NewRequest(http.MethodPost, "/api/scene/generate", nil).WithContext(ctx)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.NoError(t, genErr)
		assert.Equal(t, 1, env.history.Len())
	})

	t.Run("認証情報が無ければ設定を促す文言を返すのだ", func(t *testing.T) {
		env := newTestEnv(t)
		env.gen.generateFunc = func(ctx context.Context, in prompt.Instruction) (*domain.GenerationResult, error) {
			return nil, generator.ErrMissingCredential
		}
		env.do(t, http.MethodPut, "/api/scene", []byte(`{"text":"x"}`), "application/json")

		rec := env.do(t, http.MethodPost, "/api/scene/generate", nil, "")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var resp generateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, session.UserMessage(generator.ErrMissingCredential), resp.Error)
		assert.Equal(t, resp.Error, resp.State.Error)
	})
}

func TestHandler_History(t *testing.T) {
	t.Run("confirm なしでは消去しないのだ", func(t *testing.T) {
		env := newTestEnv(t)
		env.history.Append(context.Background(), domain.GenerationResult{MainPrompt: "p", Reasoning: "r"}, "x", "m")

		rec := env.do(t, http.MethodDelete, "/api/history", nil, "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, 1, env.history.Len())
	})

	t.Run("confirm=true で消去するのだ", func(t *testing.T) {
		env := newTestEnv(t)
		env.history.Append(context.Background(), domain.GenerationResult{MainPrompt: "p", Reasoning: "r"}, "x", "m")

		rec := env.do(t, http.MethodDelete, "/api/history?confirm=true", nil, "")

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Zero(t, env.history.Len())
	})

	t.Run("履歴の結果を結果欄に表示できるのだ", func(t *testing.T) {
		env := newTestEnv(t)
		e := env.history.Append(context.Background(), domain.GenerationResult{MainPrompt: "old", Reasoning: "r"}, "x", "m")

		rec := env.do(t, http.MethodPost, "/api/history/"+e.ID+"/show", nil, "")

		require.Equal(t, http.StatusOK, rec.Code)
		st := decodeState(t, rec)
		require.NotNil(t, st.Result)
		assert.Equal(t, "old", st.Result.MainPrompt)
	})

	t.Run("存在しない ID は404なのだ", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodGet, "/api/history/"+strings.Repeat("x", 8), nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
