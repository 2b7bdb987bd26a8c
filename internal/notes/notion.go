package notes

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	notionBaseURL = "https://api.notion.com"
	notionVersion = "2022-06-28"
)

// NotionConfig selects the parent under which pages are created. DatabaseID
// takes precedence over PageID.
type NotionConfig struct {
	Token         string
	DatabaseID    string
	PageID        string
	TitleProperty string // database title column, "Name" when empty
	BaseURL       string
	Timeout       time.Duration
}

// NotionStore implements DocumentStore against the Notion REST API.
type NotionStore struct {
	client    *resty.Client
	parent    map[string]string
	titleProp string
}

// NewNotionStore returns ErrNotConfigured when the token or parent is missing.
func NewNotionStore(cfg NotionConfig) (*NotionStore, error) {
	if cfg.Token == "" || (cfg.DatabaseID == "" && cfg.PageID == "") {
		return nil, ErrNotConfigured
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = notionBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	s := &NotionStore{
		client: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout).
			SetAuthToken(cfg.Token).
			SetHeader("Notion-Version", notionVersion).
			SetHeader("Content-Type", "application/json"),
	}
	if cfg.DatabaseID != "" {
		s.parent = map[string]string{"database_id": cfg.DatabaseID}
		s.titleProp = cfg.TitleProperty
		if s.titleProp == "" {
			s.titleProp = "Name"
		}
	} else {
		// page parents only accept the built-in title property
		s.parent = map[string]string{"page_id": cfg.PageID}
		s.titleProp = "title"
	}
	return s, nil
}

type titleProperty struct {
	Title []RichText `json:"title"`
}

type createPageRequest struct {
	Parent     map[string]string        `json:"parent"`
	Properties map[string]titleProperty `json:"properties"`
	Children   []Block                  `json:"children,omitempty"`
}

type appendChildrenRequest struct {
	Children []Block `json:"children"`
}

type notionPage struct {
	ID string `json:"id"`
}

type notionError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *notionError) Error() string {
	return fmt.Sprintf("notion %d %s: %s", e.Status, e.Code, e.Message)
}

// CreatePage creates a page under the configured parent with children as its
// initial content and returns the new page id.
func (s *NotionStore) CreatePage(ctx context.Context, title string, children []Block) (string, error) {
	body := createPageRequest{
		Parent: s.parent,
		Properties: map[string]titleProperty{
			s.titleProp: {Title: []RichText{textRun(title)}},
		},
		Children: children,
	}

	var page notionPage
	var apiErr notionError
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&page).
		SetError(&apiErr).
		Post("/v1/pages")
	if err != nil {
		return "", fmt.Errorf("notion create page: %w", err)
	}
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		return "", &apiErr
	}
	if page.ID == "" {
		return "", fmt.Errorf("notion create page: response has no page id")
	}
	return page.ID, nil
}

// AppendChildren appends children to the end of the page in one request.
func (s *NotionStore) AppendChildren(ctx context.Context, pageID string, children []Block) error {
	var apiErr notionError
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("id", pageID).
		SetBody(appendChildrenRequest{Children: children}).
		SetError(&apiErr).
		Patch("/v1/blocks/{id}/children")
	if err != nil {
		return fmt.Errorf("notion append children: %w", err)
	}
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		return &apiErr
	}
	return nil
}
