package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"inkwell/internal/config"
	"inkwell/internal/fileutil"
	"inkwell/internal/lineage"
	"inkwell/internal/services"
	"inkwell/internal/textutil"
)

// Request identifies a chapter to load.
type Request struct {
	Kind      lineage.SourceKind
	Location  string // URL for web, path for file
	Title     string // optional; web loads fall back to the page title
	ChapterID string // optional; derived from the title when empty
}

// Result is a loaded chapter ready to be stored as the original version.
type Result struct {
	ChapterID string
	Title     string
	Text      string
	Location  string
	RawPath   string // where the raw text was persisted
}

// Loader fetches and extracts chapter text.
type Loader struct {
	cfg        *config.Config
	httpClient *http.Client
}

// Option customizes the loader.
type Option func(*Loader)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		if client != nil {
			l.httpClient = client
		}
	}
}

// NewLoader constructs a Loader from configuration.
func NewLoader(cfg *config.Config, opts ...Option) *Loader {
	timeout := time.Duration(cfg.Source.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	loader := &Loader{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(loader)
	}
	return loader
}

const stageLabel = "Fetched"

// Load obtains the chapter text for the request, writes the raw text under
// the downloads directory, and returns the loaded chapter.
func (l *Loader) Load(ctx context.Context, req Request) (*Result, error) {
	location := strings.TrimSpace(req.Location)
	if location == "" {
		return nil, services.Wrap(services.ErrValidation, stageLabel, "load", "source location required", nil)
	}

	var (
		title string
		text  string
		err   error
	)
	switch req.Kind {
	case lineage.SourceWeb:
		title, text, err = l.loadWeb(ctx, location)
	case lineage.SourceFile:
		title, text, err = l.loadFile(location)
	default:
		return nil, services.Wrap(services.ErrValidation, stageLabel, "load", fmt.Sprintf("unknown source kind %q", req.Kind), nil)
	}
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Title) != "" {
		title = strings.TrimSpace(req.Title)
	}
	if title == "" {
		title = "Untitled Chapter"
	}

	chapterID := strings.TrimSpace(req.ChapterID)
	if chapterID == "" {
		chapterID = textutil.Slug(title)
	}

	rawPath := filepath.Join(l.cfg.Paths.DownloadDir, textutil.SanitizeFileName(chapterID)+".txt")
	if err := fileutil.WriteText(rawPath, text); err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, stageLabel, "persist raw text", "", err)
	}

	return &Result{
		ChapterID: chapterID,
		Title:     title,
		Text:      text,
		Location:  location,
		RawPath:   rawPath,
	}, nil
}

func (l *Loader) loadWeb(ctx context.Context, pageURL string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", "", services.Wrap(services.ErrFetch, stageLabel, "build request", pageURL, err)
	}
	req.Header.Set("User-Agent", l.cfg.Source.UserAgent)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", "", services.Wrap(services.ErrFetch, stageLabel, "get page", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", services.Wrap(services.ErrFetch, stageLabel, "get page", fmt.Sprintf("%s: http %d", pageURL, resp.StatusCode), nil)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", "", services.Wrap(services.ErrFetch, stageLabel, "parse page", pageURL, err)
	}

	title := strings.TrimSpace(doc.Find(l.cfg.Source.TitleSelector).First().Text())

	content := doc.Find(l.cfg.Source.ContentSelector)
	if content.Length() == 0 {
		return "", "", services.Wrap(services.ErrFetch, stageLabel, "extract content",
			fmt.Sprintf("selector %q matched nothing at %s", l.cfg.Source.ContentSelector, pageURL), nil)
	}

	text := textutil.NormalizeBlankLines(content.Text())
	if text == "" {
		return "", "", services.Wrap(services.ErrFetch, stageLabel, "extract content",
			fmt.Sprintf("selector %q yielded empty text at %s", l.cfg.Source.ContentSelector, pageURL), nil)
	}
	return title, text, nil
}

func (l *Loader) loadFile(path string) (string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", "", services.Wrap(services.ErrNotFound, stageLabel, "read file", path, err)
		}
		return "", "", services.Wrap(services.ErrFetch, stageLabel, "read file", path, err)
	}
	text := textutil.NormalizeBlankLines(string(data))
	if text == "" {
		return "", "", services.Wrap(services.ErrValidation, stageLabel, "read file", fmt.Sprintf("%s: file is empty", path), nil)
	}
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return textutil.DisplayTitle(title), text, nil
}
