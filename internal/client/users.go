package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/comment-sync-api/internal/models"
)

// UserDirectory resolves a commenter's display data. Creation broadcasts
// carry only the commenter id; the session enriches them through this
// lookup before showing the comment.
type UserDirectory interface {
	GetPublic(ctx context.Context, userID string) (*models.UserPublic, error)
}

// httpUserDirectory fetches commenter data from the public user endpoint
type httpUserDirectory struct {
	baseURL string
	client  *http.Client
}

// NewHTTPUserDirectory creates a UserDirectory backed by the API
func NewHTTPUserDirectory(baseURL string, client *http.Client) UserDirectory {
	return &httpUserDirectory{baseURL: baseURL, client: client}
}

func (d *httpUserDirectory) GetPublic(ctx context.Context, userID string) (*models.UserPublic, error) {
	endpoint := fmt.Sprintf("%s/v1/users/%s/public", d.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user lookup: unexpected status %d", resp.StatusCode)
	}

	var public models.UserPublic
	if err := json.NewDecoder(resp.Body).Decode(&public); err != nil {
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	return &public, nil
}
