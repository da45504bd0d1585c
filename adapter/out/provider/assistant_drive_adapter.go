package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"assistant_server/core/domain"
	"assistant_server/pkg/httputil"
)

// DriveAdapter implements out.FileStorePort against the Google Drive API.
type DriveAdapter struct {
	config *oauth2.Config
	cb     *gobreaker.CircuitBreaker
}

// NewDriveAdapter creates a new Drive adapter.
func NewDriveAdapter(cfg *GoogleConfig) *DriveAdapter {
	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes: []string{
			drive.DriveReadonlyScope,
		},
		Endpoint: google.Endpoint,
	}

	return &DriveAdapter{
		config: config,
		cb:     gobreaker.NewCircuitBreaker(newBreakerSettings("drive-api")),
	}
}

// FindByName returns files whose name matches exactly.
func (a *DriveAdapter) FindByName(ctx context.Context, token *oauth2.Token, name string) ([]domain.FileCandidate, error) {
	query := fmt.Sprintf("name = '%s' and trashed = false", escapeQuery(name))
	return a.search(ctx, token, query, 1)
}

// SearchByName returns up to max files whose name contains the given text.
func (a *DriveAdapter) SearchByName(ctx context.Context, token *oauth2.Token, name string, max int) ([]domain.FileCandidate, error) {
	if max <= 0 {
		max = 5
	}
	query := fmt.Sprintf("name contains '%s' and trashed = false", escapeQuery(name))
	return a.search(ctx, token, query, max)
}

func (a *DriveAdapter) search(ctx context.Context, token *oauth2.Token, query string, max int) ([]domain.FileCandidate, error) {
	svc, err := a.getService(ctx, token)
	if err != nil {
		return nil, err
	}

	var listed *drive.FileList
	cbErr := executeWithCircuitBreaker(a.cb, func() error {
		var apiErr error
		listed, apiErr = svc.Files.List().
			Q(query).
			PageSize(int64(max)).
			Fields("files(id, name)").
			Context(ctx).Do()
		return apiErr
	})
	if cbErr != nil {
		return nil, fmt.Errorf("failed to search files: %w", cbErr)
	}

	candidates := make([]domain.FileCandidate, 0, len(listed.Files))
	for _, f := range listed.Files {
		candidates = append(candidates, domain.FileCandidate{ID: f.Id, Name: f.Name})
	}

	return candidates, nil
}

func (a *DriveAdapter) getService(ctx context.Context, token *oauth2.Token) (*drive.Service, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, httputil.GoogleClient())

	return drive.NewService(ctx, option.WithTokenSource(
		a.config.TokenSource(ctx, token),
	))
}

// escapeQuery escapes single quotes in a Drive query literal.
func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}
