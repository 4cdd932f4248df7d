// Package session sequences the generation pipelines for one user action:
// refinement, an optional background image and, on request, a video.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"postergen/internal/domain"
	"postergen/internal/failure"
	"postergen/internal/infra"
	"postergen/internal/metrics"
	"postergen/internal/providers/image"
	"postergen/internal/providers/prompt"
	"postergen/internal/providers/video"
	"postergen/internal/retry"
)

// InvalidCredentialMessage replaces "Requested entity was not found", which
// the API returns when the selected key belongs to no usable project.
const InvalidCredentialMessage = "The selected API key is not valid for this model. Select a key from a billing-enabled Google Cloud project."

const notFoundSignal = "requested entity was not found"

// Input is one "generate poster" action.
type Input struct {
	RawText string
	// Image is a user-supplied background. When set no image is generated.
	Image       *domain.ImageAsset
	Contact     string
	Link        string
	AccentColor string
	Locale      string
}

// VideoGenerator is satisfied by *video.Orchestrator.
type VideoGenerator interface {
	Generate(ctx context.Context, req video.Request) (domain.VideoAsset, error)
}

type Options struct {
	Refiner prompt.Refiner
	Images  image.Generator
	Videos  VideoGenerator
	Logger  *infra.Logger
}

type Session struct {
	refiner prompt.Refiner
	images  image.Generator
	videos  VideoGenerator
	logger  *infra.Logger
}

func New(opts Options) (*Session, error) {
	if opts.Refiner == nil {
		return nil, errors.New("session: refiner is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &Session{
		refiner: opts.Refiner,
		images:  opts.Images,
		videos:  opts.Videos,
		logger:  logger,
	}, nil
}

// Generate refines the raw text and, when the caller brought no image,
// tries to generate a background. Image failures never fail the call.
func (s *Session) Generate(ctx context.Context, in Input) (doc *domain.Document, err error) {
	start := time.Now()
	defer func() { observe("poster", start, err) }()

	if strings.TrimSpace(in.RawText) == "" {
		return nil, failure.Classify(domain.NewUserError(domain.ErrEmptyInput, prompt.EmptyInputMessage))
	}
	ctx = prompt.WithLocale(ctx, in.Locale)

	content, err := s.refiner.Refine(ctx, in.RawText)
	if err != nil {
		return nil, translate(err)
	}

	doc = &domain.Document{
		StructuredContent: content,
		Contact:           strings.TrimSpace(in.Contact),
		Link:              strings.TrimSpace(in.Link),
		AccentColor:       strings.TrimSpace(in.AccentColor),
	}
	if doc.AccentColor == "" {
		doc.AccentColor = domain.DefaultAccentColor
	}

	if in.Image != nil && !in.Image.Empty() {
		img := *in.Image
		img.Data = bytes.Clone(in.Image.Data)
		doc.Image = &img
		return doc, nil
	}
	if s.images == nil {
		return doc, nil
	}
	asset, imgErr := s.images.Generate(ctx, image.PromptSeed(content.Title, in.RawText))
	if imgErr != nil {
		metrics.ImageFallbacks.Inc()
		s.logger.Warn().
			Err(imgErr).
			Str("kind", failure.KindOf(imgErr).String()).
			Msg("session: background image skipped")
		return doc, nil
	}
	doc.Image = &asset
	doc.ImageGenerated = true
	return doc, nil
}

// GenerateVideo makes a short vertical video for an existing document and
// attaches it.
func (s *Session) GenerateVideo(ctx context.Context, doc *domain.Document) (asset *domain.VideoAsset, err error) {
	start := time.Now()
	defer func() { observe("video", start, err) }()

	if doc == nil || strings.TrimSpace(doc.Title) == "" || strings.TrimSpace(doc.Description) == "" {
		return nil, failure.Classify(domain.NewUserError(domain.ErrDocumentIncomplete, "Generate the poster text before requesting a video."))
	}
	if s.videos == nil {
		return nil, failure.Classify(errors.New("video generation is not configured"))
	}
	req := video.Request{Title: doc.Title, Description: doc.Description}
	if doc.Image != nil && !doc.Image.Empty() {
		req.Reference = doc.Image.DataURL()
	}
	v, err := s.videos.Generate(ctx, req)
	if err != nil {
		return nil, translate(err)
	}
	doc.Video = &v
	return &v, nil
}

// translate applies the user-facing wording rules shared by every pipeline.
func translate(err error) error {
	classified := failure.Classify(err)
	if classified == nil {
		return nil
	}
	if classified.Kind == failure.QuotaExhausted {
		return classified.WithMessage(retry.QuotaMessage)
	}
	if strings.Contains(strings.ToLower(classified.Error()), notFoundSignal) {
		return failure.Classify(&domain.UserError{
			Message: InvalidCredentialMessage,
			Err:     fmt.Errorf("%w: %v", domain.ErrInvalidCredential, classified),
		})
	}
	return classified
}

func observe(pipeline string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = failure.KindOf(err).String()
	}
	metrics.GenerationDuration.WithLabelValues(pipeline, outcome).Observe(time.Since(start).Seconds())
}
