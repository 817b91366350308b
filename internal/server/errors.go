package server

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/sync/semaphore"

	"github.com/spigell/matchcv/internal/ai"
	"github.com/spigell/matchcv/internal/document"
)

// EmptyInputError rejects a score or adapt request with a blank text.
type EmptyInputError struct {
	Field string
}

func (e *EmptyInputError) Error() string {
	if e.Field != "" {
		return "CV et offre requis (" + e.Field + " vide)."
	}
	return "CV et offre requis."
}

// operationError carries the French prefix of the failing operation.
type operationError struct {
	prefix string
	err    error
}

func (e *operationError) Error() string { return e.prefix + " : " + e.err.Error() }

func (e *operationError) Unwrap() error { return e.err }

// HTTPStatus maps an error returned by the core packages to a response status.
func HTTPStatus(err error) int {
	var (
		emptyErr       *EmptyInputError
		unsupportedErr *document.UnsupportedDocumentError
		tooLargeErr    *document.DocumentTooLargeError
		exhaustedErr   *ai.AllProvidersFailedError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &emptyErr), errors.As(err, &unsupportedErr):
		return http.StatusBadRequest
	case errors.As(err, &tooLargeErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, document.ErrNoExtractableText):
		return http.StatusUnprocessableEntity
	case errors.As(err, &exhaustedErr), errors.Is(err, errBusy):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var errBusy = errors.New("trop d'adaptations en cours, réessayez plus tard")

// detail renders the human readable cause sent to clients.
func detail(err error) string {
	var (
		unsupportedErr *document.UnsupportedDocumentError
		tooLargeErr    *document.DocumentTooLargeError
	)

	switch {
	case errors.As(err, &unsupportedErr):
		return "Le fichier doit être un PDF."
	case errors.As(err, &tooLargeErr):
		return "Fichier trop volumineux (max 10 MB)."
	case errors.Is(err, document.ErrNoExtractableText):
		return "Impossible d'extraire du texte (PDF scanné ou protégé)."
	default:
		return err.Error()
	}
}

// acquire waits for a free adaptation slot or for the request to go away.
func acquire(ctx context.Context, sem *semaphore.Weighted) error {
	if sem == nil {
		return nil
	}
	if err := sem.Acquire(ctx, 1); err != nil {
		return errors.Join(errBusy, err)
	}
	return nil
}
