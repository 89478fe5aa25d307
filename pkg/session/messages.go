package session

import (
	"errors"

	"github.com/shouni/cineprompt-kit/pkg/catalog"
	"github.com/shouni/cineprompt-kit/pkg/generator"
)

const (
	msgMissingCredential = "API Key mancante. Assicurati che GEMINI_API_KEY sia configurato."
	msgCustomModelName   = "Inserisci il nome del modello personalizzato."
	msgGeneric           = "Si è verificato un errore durante la generazione."
	msgBusy              = "Generazione già in corso."
)

// UserMessage はエラーを画面に表示する文言に変換します。
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, generator.ErrMissingCredential):
		return msgMissingCredential
	case errors.Is(err, catalog.ErrCustomModelName):
		return msgCustomModelName
	case errors.Is(err, generator.ErrBusy):
		return msgBusy
	case errors.Is(err, generator.ErrEmptyResponse), errors.Is(err, generator.ErrMalformedResponse):
		return msgGeneric
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return msgGeneric
}
