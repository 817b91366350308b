package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/spigell/matchcv/internal/ai"
	"github.com/spigell/matchcv/internal/document"
)

// textsRequest is the body of /api/score and /api/adapt.
type textsRequest struct {
	CVText    string `json:"cv_text" binding:"required"`
	OfferText string `json:"offer_text" binding:"required"`
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "MatchCV API v1.0"})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// bindTexts decodes the body and rejects blank texts.
func bindTexts(c *gin.Context) (*textsRequest, error) {
	var req textsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			return nil, &EmptyInputError{Field: jsonField(validationErrs[0].Field())}
		}
		return nil, &EmptyInputError{}
	}

	switch {
	case strings.TrimSpace(req.CVText) == "":
		return nil, &EmptyInputError{Field: "cv_text"}
	case strings.TrimSpace(req.OfferText) == "":
		return nil, &EmptyInputError{Field: "offer_text"}
	}
	return &req, nil
}

func jsonField(field string) string {
	switch field {
	case "CVText":
		return "cv_text"
	case "OfferText":
		return "offer_text"
	default:
		return field
	}
}

// maxUploadBody leaves room for the multipart envelope around the file.
const maxUploadBody = document.MaxSize + 1<<20

func (s *Server) parsePDF(c *gin.Context) {
	tooLarge := &document.DocumentTooLargeError{Size: c.Request.ContentLength, Limit: document.MaxSize}
	if c.Request.ContentLength > maxUploadBody {
		c.Error(tooLarge)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBody)

	header, err := c.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			c.Error(tooLarge)
			return
		}
		c.Error(&document.UnsupportedDocumentError{})
		return
	}
	if header.Size > document.MaxSize {
		c.Error(&document.DocumentTooLargeError{Size: header.Size, Limit: document.MaxSize})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.Error(&operationError{prefix: "Erreur parsing PDF", err: err})
		return
	}
	defer file.Close()

	// One byte over the limit is enough to reject the upload.
	data, err := io.ReadAll(io.LimitReader(file, document.MaxSize+1))
	if err != nil {
		c.Error(&operationError{prefix: "Erreur parsing PDF", err: err})
		return
	}

	text, err := document.Extract(header.Filename, data)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, text)
}

func (s *Server) score(c *gin.Context) {
	req, err := bindTexts(c)
	if err != nil {
		c.Error(err)
		return
	}

	result, err := s.scorer.Score(c.Request.Context(), req.CVText, req.OfferText)
	if err != nil {
		c.Error(&operationError{prefix: "Erreur calcul ATS", err: err})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) adapt(c *gin.Context) {
	req, err := bindTexts(c)
	if err != nil {
		c.Error(err)
		return
	}

	ctx := c.Request.Context()
	if err := acquire(ctx, s.slots); err != nil {
		c.Error(err)
		return
	}
	defer s.slots.Release(1)

	adaptation, err := s.adapter.Adapt(ctx, req.CVText, req.OfferText)
	if err != nil {
		var exhausted *ai.AllProvidersFailedError
		if !errors.As(err, &exhausted) {
			err = fmt.Errorf("adaptation interrompue : %w", err)
		}
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, adaptation)
}

func (s *Server) providers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": ai.Describe(s.adapter.Specs())})
}
