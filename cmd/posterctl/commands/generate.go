package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"postergen/internal/bootstrap"
	"postergen/internal/domain"
	"postergen/internal/domain/jsoncfg"
	"postergen/internal/export"
	"postergen/internal/infra"
	"postergen/internal/infra/credentials"
	"postergen/internal/session"
	"postergen/internal/storage"
)

type generateOptions struct {
	text        string
	file        string
	image       string
	contact     string
	link        string
	accentColor string
	locale      string
	apiKey      string
	video       bool
	bundle      bool
	verbose     bool
}

func newGenerateCommand() *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:     "generate [text]",
		Aliases: []string{"gen"},
		Args:    cobra.MaximumNArgs(1),
		Short:   "Generate a poster and save it to storage",
		Long: `Refines the text into poster copy, generates a background image unless
one is given, optionally renders a short video, and writes everything under
a new prefix in the configured storage.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.text = args[0]
			}
			return runGenerate(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "read the text from a file (- for stdin)")
	f.StringVarP(&opts.image, "image", "i", "", "background image to use instead of generating one")
	f.StringVar(&opts.contact, "contact", "", "contact line printed on the poster")
	f.StringVar(&opts.link, "link", "", "link printed on the poster")
	f.StringVar(&opts.accentColor, "accent", "", "accent color, e.g. "+domain.DefaultAccentColor)
	f.StringVarP(&opts.locale, "locale", "l", "", "output language (pt-BR, en, es)")
	f.StringVar(&opts.apiKey, "api-key", "", "Gemini API key for this run only")
	f.BoolVar(&opts.video, "video", false, "also generate a short video")
	f.BoolVar(&opts.bundle, "zip", false, "also write a zip bundle of all files")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	return cmd
}

func runGenerate(ctx context.Context, stdin io.Reader, stdout io.Writer, opts *generateOptions) error {
	cfg, err := infra.LoadConfig()
	if err != nil {
		return err
	}
	req, err := buildRequest(stdin, opts, cfg.DefaultLocale)
	if err != nil {
		return err
	}

	logger := infra.NewCLILogger(opts.verbose)
	pipeline, err := bootstrap.Build(ctx, cfg, &logger)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	store, err := storage.New(ctx, cfg)
	if err != nil {
		return err
	}

	ctx = credentials.WithOverride(ctx, credentials.ProviderGemini, opts.apiKey)

	in := session.Input{
		RawText:     req.Text,
		Contact:     req.Contact,
		Link:        req.Link,
		AccentColor: req.AccentColor,
		Locale:      req.Locale,
	}
	if req.Image != "" {
		img, _ := domain.ParseDataURL(req.Image)
		in.Image = &img
	}

	logger.Info().Str("locale", req.Locale).Msg("refining text")
	doc, err := pipeline.Session.Generate(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s\n%s\n\n%s\n%s\n", doc.Title, doc.Subtitle, doc.Description, doc.CallToAction)
	if !doc.ImageGenerated && in.Image == nil {
		fmt.Fprintln(stdout, "(no background image could be generated)")
	}

	var videoErr error
	if opts.video {
		logger.Info().Msg("rendering video, this can take several minutes")
		_, videoErr = pipeline.Session.GenerateVideo(ctx, doc)
	}

	prefix := storage.BundlePrefix(time.Now())
	keys, err := export.Save(ctx, store, prefix, doc, opts.bundle)
	if err != nil {
		return errors.Join(err, videoErr)
	}
	fmt.Fprintln(stdout)
	for _, k := range keys {
		fmt.Fprintln(stdout, "wrote", k)
	}
	if videoErr != nil {
		return fmt.Errorf("video: %w", videoErr)
	}
	return nil
}

// buildRequest collects the text and optional image and runs them through
// the same contract checks as the HTTP API.
func buildRequest(stdin io.Reader, opts *generateOptions, defaultLocale string) (jsoncfg.PosterJSON, error) {
	text, err := readText(stdin, opts)
	if err != nil {
		return jsoncfg.PosterJSON{}, err
	}
	req := jsoncfg.PosterJSON{
		Text:        text,
		Contact:     opts.contact,
		Link:        opts.link,
		AccentColor: opts.accentColor,
		Locale:      opts.locale,
	}
	if opts.image != "" {
		data, err := os.ReadFile(opts.image)
		if err != nil {
			return req, fmt.Errorf("read image: %w", err)
		}
		img := domain.ImageAsset{Data: data, MIME: http.DetectContentType(data)}
		if !strings.HasPrefix(img.MIME, "image/") {
			return req, fmt.Errorf("%s is not an image (%s)", opts.image, img.MIME)
		}
		req.Image = img.DataURL()
	}
	req.Normalize(defaultLocale)
	if err := req.Validate(); err != nil {
		return req, err
	}
	return req, nil
}

func readText(stdin io.Reader, opts *generateOptions) (string, error) {
	switch {
	case opts.file == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	case opts.file != "":
		b, err := os.ReadFile(opts.file)
		if err != nil {
			return "", fmt.Errorf("read text: %w", err)
		}
		return string(b), nil
	default:
		return opts.text, nil
	}
}
