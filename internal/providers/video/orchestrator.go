// Package video drives long-running video generation jobs: submit, poll
// until the job settles or the poll budget runs out, then download.
package video

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"postergen/internal/domain"
	"postergen/internal/failure"
	"postergen/internal/infra"
	"postergen/internal/metrics"
	"postergen/internal/providers/genai"
	"postergen/internal/retry"
)

const (
	AspectRatio = "9:16"
	Resolution  = "720p"

	DefaultPollInterval = 10 * time.Second
	DefaultQuotaBackoff = 15 * time.Second
	DefaultMaxPolls     = 80
)

const (
	TimeoutMessage        = "Video generation did not complete in time. Please try again later."
	NoVideoMessage        = "The AI did not return a video. Please try again."
	DownloadQuotaMessage  = "Quota error while downloading the video. Select your own API key to continue."
	DownloadFailedMessage = "Could not download the video file."
)

// Request describes the poster a video is made for. Reference is an
// optional image data URL; an unparsable value is ignored.
type Request struct {
	Title       string
	Description string
	Reference   string
}

type Options struct {
	Clients      *genai.Factory
	Model        string
	Retry        *retry.Executor
	Classifier   *failure.Classifier
	PollInterval time.Duration
	QuotaBackoff time.Duration
	MaxPolls     int
	Sleep        retry.SleepFunc
	Logger       *infra.Logger
}

// Orchestrator owns no job state; every Generate call runs one job to
// completion in the caller's goroutine.
type Orchestrator struct {
	clients      *genai.Factory
	model        string
	retry        *retry.Executor
	classifier   *failure.Classifier
	pollInterval time.Duration
	quotaBackoff time.Duration
	maxPolls     int
	sleep        retry.SleepFunc
	logger       *infra.Logger
}

func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Clients == nil {
		return nil, errors.New("gemini client factory is required")
	}
	o := &Orchestrator{
		clients:      opts.Clients,
		model:        strings.TrimSpace(opts.Model),
		retry:        opts.Retry,
		classifier:   opts.Classifier,
		pollInterval: opts.PollInterval,
		quotaBackoff: opts.QuotaBackoff,
		maxPolls:     opts.MaxPolls,
		sleep:        opts.Sleep,
		logger:       opts.Logger,
	}
	if o.model == "" {
		o.model = "veo-3.1-fast-generate-preview"
	}
	if o.logger == nil {
		o.logger = infra.DiscardLogger()
	}
	if o.retry == nil {
		o.retry = retry.New(o.logger)
	}
	if o.classifier == nil {
		o.classifier = failure.Default
	}
	if o.pollInterval <= 0 {
		o.pollInterval = DefaultPollInterval
	}
	if o.quotaBackoff <= 0 {
		o.quotaBackoff = DefaultQuotaBackoff
	}
	if o.maxPolls <= 0 {
		o.maxPolls = DefaultMaxPolls
	}
	if o.sleep == nil {
		o.sleep = retry.SleepContext
	}
	return o, nil
}

// Generate runs submit, poll and download. Every error is a
// *failure.Error.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (domain.VideoAsset, error) {
	job, err := o.Submit(ctx, req)
	if err != nil {
		return domain.VideoAsset{}, err
	}
	job, err = o.Await(ctx, job)
	if err != nil {
		return domain.VideoAsset{}, err
	}
	return o.Download(ctx, job)
}

// Submit starts a job. Submission is retried like any other remote call.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (domain.VideoJob, error) {
	instance := genai.VideoInstance{Prompt: BuildVideoPrompt(req.Title, req.Description)}
	if ref := strings.TrimSpace(req.Reference); ref != "" {
		if asset, err := domain.ParseDataURL(ref); err == nil {
			blob := genai.InlineBlob(asset.MIME, asset.Data)
			instance.Image = &genai.VideoImage{BytesBase64Encoded: blob.Data, MimeType: blob.MimeType}
		} else {
			o.logger.Debug().Err(err).Msg("video: ignoring unparsable reference image")
		}
	}
	payload := genai.PredictRequest{
		Instances: []genai.VideoInstance{instance},
		Parameters: genai.VideoParameters{
			AspectRatio:    AspectRatio,
			Resolution:     Resolution,
			NumberOfVideos: 1,
		},
	}
	return retry.Do(ctx, o.retry, "video_submit", func(ctx context.Context) (domain.VideoJob, error) {
		client, err := o.clients.Client(ctx)
		if err != nil {
			return domain.VideoJob{}, err
		}
		op, err := client.PredictLongRunning(ctx, o.model, payload)
		if err != nil {
			return domain.VideoJob{}, err
		}
		return jobFromOperation(op)
	})
}

// Await polls job until it leaves the pending state. At most MaxPolls polls
// are issued; quota-throttled polls count toward that budget and stretch the
// following wait to the quota backoff. Any other poll failure is fatal. The
// remote job is abandoned, never cancelled, when Await gives up.
func (o *Orchestrator) Await(ctx context.Context, job domain.VideoJob) (domain.VideoJob, error) {
	wait := o.pollInterval
	polls := 0
	for job.State() == domain.JobPending {
		if polls == o.maxPolls {
			metrics.VideoPolls.WithLabelValues("timeout").Inc()
			o.logger.Warn().
				Str("operation", job.Handle()).
				Int("polls", polls).
				Msg("video: poll budget exhausted, abandoning job")
			return job, o.classifier.Classify(domain.NewUserError(domain.ErrVideoTimeout, TimeoutMessage))
		}
		if err := o.sleep(ctx, wait); err != nil {
			return job, o.classifier.Classify(err)
		}
		polls++

		next, err := o.poll(ctx, job.Handle())
		if err != nil {
			classified := o.classifier.Classify(err)
			if classified.Kind == failure.QuotaExhausted {
				metrics.VideoPolls.WithLabelValues("quota").Inc()
				o.logger.Warn().
					Err(err).
					Str("operation", job.Handle()).
					Int("poll", polls).
					Dur("wait", o.quotaBackoff).
					Msg("video: poll throttled, backing off")
				wait = o.quotaBackoff
				continue
			}
			metrics.VideoPolls.WithLabelValues("error").Inc()
			return job, classified
		}
		wait = o.pollInterval
		job = next
		metrics.VideoPolls.WithLabelValues(job.State().String()).Inc()
		o.logger.Debug().
			Str("operation", job.Handle()).
			Int("poll", polls).
			Str("state", job.State().String()).
			Msg("video: polled job")
	}

	if reason, failed := job.Reason(); failed {
		return job, o.classifier.Classify(domain.NewUserError(domain.ErrVideoJobFailed, "Generation failed: "+reason))
	}
	return job, nil
}

func (o *Orchestrator) poll(ctx context.Context, handle string) (domain.VideoJob, error) {
	client, err := o.clients.Client(ctx)
	if err != nil {
		return domain.VideoJob{}, err
	}
	op, err := client.GetOperation(ctx, handle)
	if err != nil {
		return domain.VideoJob{}, err
	}
	return jobFromOperation(op)
}

// Download fetches the finished video. It is a single attempt: a 429 here
// carries its own message and is not retried.
func (o *Orchestrator) Download(ctx context.Context, job domain.VideoJob) (domain.VideoAsset, error) {
	locator, ok := job.Locator()
	if !ok {
		return domain.VideoAsset{}, o.classifier.Classify(domain.NewUserError(domain.ErrNoVideo, NoVideoMessage))
	}
	client, err := o.clients.Client(ctx)
	if err != nil {
		return domain.VideoAsset{}, o.classifier.Classify(err)
	}
	data, mime, err := client.Download(ctx, locator)
	if err != nil {
		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 429 {
			return domain.VideoAsset{}, o.classifier.Classify(&domain.UserError{
				Message: DownloadQuotaMessage,
				Err:     fmt.Errorf("%w: %w", domain.ErrDownloadQuota, err),
			})
		}
		return domain.VideoAsset{}, o.classifier.Classify(&domain.UserError{
			Message: DownloadFailedMessage,
			Err:     fmt.Errorf("%w: %w", domain.ErrDownloadFailed, err),
		})
	}
	if len(data) == 0 {
		return domain.VideoAsset{}, o.classifier.Classify(domain.NewUserError(domain.ErrDownloadFailed, DownloadFailedMessage))
	}
	if !strings.HasPrefix(mime, "video/") {
		mime = domain.DefaultVideoMIME
	}
	o.logger.Debug().
		Str("operation", job.Handle()).
		Int("bytes", len(data)).
		Msg("video: downloaded")
	return domain.VideoAsset{Data: data, MIME: mime}, nil
}

func jobFromOperation(op *genai.Operation) (domain.VideoJob, error) {
	switch {
	case op.Error != nil:
		reason := op.Error.Message
		if reason == "" {
			reason = fmt.Sprintf("status %d", op.Error.Code)
		}
		return domain.FailedJob(op.Name, reason), nil
	case !op.Done:
		return domain.PendingJob(op.Name), nil
	}
	uri := op.VideoURI()
	if uri == "" {
		return domain.VideoJob{}, domain.NewUserError(domain.ErrNoVideo, NoVideoMessage)
	}
	return domain.DoneJob(op.Name, uri), nil
}

// BuildVideoPrompt describes the advert to the video model.
func BuildVideoPrompt(title, description string) string {
	return fmt.Sprintf("A professional vertical advertising video for %s. %s. High energy, modern aesthetic, motion graphics style. 9:16.",
		strings.TrimSpace(title), strings.TrimSuffix(strings.TrimSpace(description), "."))
}
