package services

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/khliu/go-imagebot-backend/internal/config"
	"github.com/khliu/go-imagebot-backend/internal/generation"
)

// ContentFetcher retrieves an uploaded image's bytes by message ID.
type ContentFetcher interface {
	GetMessageContent(ctx context.Context, messageID string) ([]byte, error)
}

// Generator runs one instruction-plus-image generation call and returns the
// raw reply body.
type Generator interface {
	Generate(ctx context.Context, instruction string, image []byte) ([]byte, error)
}

// ImageHost publishes binary image artifacts and returns a public URL.
type ImageHost interface {
	Configured() bool
	Upload(ctx context.Context, data []byte) (string, error)
}

// GenerationService runs one generation request end to end: fetch the
// uploaded image, call the generation collaborator, normalize the reply,
// and publish binary artifacts so the result can travel as a URL.
type GenerationService struct {
	Content   ContentFetcher
	Generator Generator
	Host      ImageHost
	Cfg       config.GenerationConfig
}

// NewGenerationService wires the orchestrator.
func NewGenerationService(content ContentFetcher, gen Generator, host ImageHost, cfg config.GenerationConfig) *GenerationService {
	return &GenerationService{Content: content, Generator: gen, Host: host, Cfg: cfg}
}

// Run executes one generation for the user's pending image and instruction.
// The returned Result is always deliverable: a URL, or text. Errors carry a
// service sentinel so the engine can pick the right user message.
func (s *GenerationService) Run(ctx context.Context, userID, imageID, instruction string) (*generation.Result, error) {
	tr := otel.Tracer("services/GenerationService")
	ctx, span := tr.Start(ctx, "Run",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("image.id", imageID),
		),
	)
	defer span.End()

	image, err := s.Content.GetMessageContent(ctx, imageID)
	if err != nil {
		generationsTotal.WithLabelValues("input_unavailable").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInputUnavailable, err)
	}

	genCtx := ctx
	if s.Cfg.Timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.Cfg.Timeout)
		defer cancel()
	}

	body, err := s.Generator.Generate(genCtx, instruction, image)
	if err != nil {
		generationsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	res := generation.Extract(body)
	return s.publish(ctx, res)
}

// publish turns a bytes result into a hosted URL. URL and text results pass
// through unchanged. A hosting failure degrades to an explanatory text
// result rather than an error: the artifact existed, it just cannot travel.
func (s *GenerationService) publish(ctx context.Context, res *generation.Result) (*generation.Result, error) {
	switch res.Kind {
	case generation.KindURL:
		generationsTotal.WithLabelValues("image").Inc()
		return res, nil
	case generation.KindBytes:
		if !s.Host.Configured() {
			generationsTotal.WithLabelValues("hosting_failed").Inc()
			return generation.TextResult(msgHostingFailed), nil
		}
		url, err := s.Host.Upload(ctx, res.Bytes)
		if err != nil {
			generationsTotal.WithLabelValues("hosting_failed").Inc()
			return generation.TextResult(msgHostingFailed), nil
		}
		generationsTotal.WithLabelValues("image").Inc()
		return generation.URLResult(url), nil
	default:
		generationsTotal.WithLabelValues("text").Inc()
		return res, nil
	}
}

// IsUserFacing reports whether err maps to one of the canned failure
// messages (as opposed to an internal fault worth logging at error level).
func IsUserFacing(err error) bool {
	return errors.Is(err, ErrInputUnavailable) ||
		errors.Is(err, ErrGenerationFailed) ||
		errors.Is(err, ErrPaymentFailed)
}
