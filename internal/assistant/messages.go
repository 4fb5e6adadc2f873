package assistant

import (
	"errors"

	"ninuska/internal/backend"
	"ninuska/internal/vision"
	"ninuska/pkg/stt"
)

// Phrases spoken by the assistant. Everything the user hears is Czech.
const (
	phraseGreeting   = "Jsem Ninuška. Jak ti mohu pomoci?"
	phraseVisionHint = "Řekni 'podívej se' pro analýzu obrazu z kamery."
	phraseListening  = "Poslouchám."
	phraseProcessing = "Zpracovávám."
	phraseCapturing  = "Zachycuji obraz z kamery."
	phraseAnalyzing  = "Analyzuji obraz."

	msgNoMatch        = "Nerozuměl jsem."
	msgRecognition    = "Chyba při rozpoznávání řeči: "
	msgCamera         = "Nebyla nalezena žádná kamera."
	msgBackend        = "Chyba při volání asistenta: "
	msgBackendTimeout = "Asistent neodpověděl včas."
	msgGeneric        = "Nastala chyba: "
)

// ListeningPhrase is the spoken listening cue.
const ListeningPhrase = phraseListening

// Message turns a failed turn into the sentence spoken to the user. Any
// diagnostic included is cut to backend.DiagLimit characters.
func Message(err error) string {
	var (
		se *stt.ServiceError
		be *backend.Error
	)
	switch {
	case errors.Is(err, stt.ErrNoMatch):
		return msgNoMatch
	case errors.As(err, &se):
		return msgRecognition + diag(se.Err)
	case errors.Is(err, vision.ErrCameraUnavailable):
		return msgCamera
	case errors.As(err, &be):
		if be.Timeout {
			return msgBackendTimeout
		}
		return msgBackend + be.Diag
	default:
		return msgGeneric + diag(err)
	}
}

// Category names the failure for logs.
func Category(err error) string {
	var (
		se *stt.ServiceError
		be *backend.Error
	)
	switch {
	case errors.Is(err, stt.ErrNoMatch):
		return "recognition_no_match"
	case errors.As(err, &se):
		return "recognition_service"
	case errors.Is(err, vision.ErrCameraUnavailable):
		return "camera_unavailable"
	case errors.As(err, &be):
		return "backend"
	default:
		return "other"
	}
}

func diag(err error) string {
	if err == nil {
		return ""
	}
	return backend.Truncate(err.Error(), backend.DiagLimit)
}
