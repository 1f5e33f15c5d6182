// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pdiddy/cvlens/internal/backoff"
	"github.com/pdiddy/cvlens/pkg/types"
)

// apiBase is the Microsoft Graph endpoint. Declared as a var so tests can
// substitute an httptest server.
var apiBase = "https://graph.microsoft.com/v1.0"

// Client implements Source against the Microsoft Graph REST API. It does
// not retry on its own: rate-limit and server errors come back marked
// transient so the caller's backoff policy owns the retry decision (and
// can log each retry).
type Client struct {
	http      *http.Client
	token     string
	userAgent string
}

// NewClient builds a Graph client with the given bearer token. The token
// comes from the authentication collaborator; this package never initiates
// an OAuth flow.
func NewClient(token string, cfg types.HTTPConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		token:     token,
		userAgent: cfg.UserAgent,
	}
}

// graphList is the common OData collection envelope.
type graphList[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

type graphMessage struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject"`
	ReceivedAt time.Time `json:"receivedDateTime"`
	From       struct {
		EmailAddress struct {
			Name    string `json:"name"`
			Address string `json:"address"`
		} `json:"emailAddress"`
	} `json:"from"`
}

type graphAttachment struct {
	ODataType    string `json:"@odata.type"`
	ID           string `json:"id"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ContentBytes string `json:"contentBytes"`
}

// ChildFolders lists the immediate subfolders of folderID.
func (c *Client) ChildFolders(ctx context.Context, folderID string) ([]Folder, error) {
	if folderID == "" {
		return nil, fmt.Errorf("folder ID is required")
	}
	var folders []Folder
	next := fmt.Sprintf("%s/me/mailFolders/%s/childFolders", apiBase, url.PathEscape(folderID))
	for next != "" {
		var page graphList[Folder]
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, fmt.Errorf("listing subfolders of %s: %w", folderID, err)
		}
		folders = append(folders, page.Value...)
		next = page.NextLink
	}
	return folders, nil
}

// Messages lists messages with attachments in folderID received at or
// after since. The hasAttachments filter is applied server-side; the
// caller still verifies attachment policy itself.
func (c *Client) Messages(ctx context.Context, folderID string, since time.Time) ([]Message, error) {
	if folderID == "" {
		return nil, fmt.Errorf("folder ID is required")
	}

	filter := fmt.Sprintf("receivedDateTime ge %s and hasAttachments eq true",
		since.UTC().Format("2006-01-02T15:04:05Z"))
	q := url.Values{}
	q.Set("$filter", filter)
	q.Set("$select", "id,subject,receivedDateTime,from")

	var messages []Message
	next := fmt.Sprintf("%s/me/mailFolders/%s/messages?%s", apiBase, url.PathEscape(folderID), q.Encode())
	for next != "" {
		var page graphList[graphMessage]
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, fmt.Errorf("listing messages in %s: %w", folderID, err)
		}
		for _, m := range page.Value {
			messages = append(messages, Message{
				ID:          m.ID,
				Subject:     m.Subject,
				ReceivedAt:  m.ReceivedAt,
				SenderName:  m.From.EmailAddress.Name,
				SenderEmail: m.From.EmailAddress.Address,
			})
		}
		next = page.NextLink
	}
	return messages, nil
}

// Attachments lists file attachments for one message. Non-file attachment
// types (items, references) are dropped.
func (c *Client) Attachments(ctx context.Context, messageID string) ([]Attachment, error) {
	var attachments []Attachment
	q := url.Values{}
	q.Set("$select", "id,name,size")
	next := fmt.Sprintf("%s/me/messages/%s/attachments?%s", apiBase, url.PathEscape(messageID), q.Encode())
	for next != "" {
		var page graphList[graphAttachment]
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, fmt.Errorf("listing attachments of %s: %w", messageID, err)
		}
		for _, a := range page.Value {
			if a.ODataType != "" && a.ODataType != "#microsoft.graph.fileAttachment" {
				continue
			}
			attachments = append(attachments, Attachment{ID: a.ID, Name: a.Name, Size: a.Size})
		}
		next = page.NextLink
	}
	return attachments, nil
}

// Download fetches one attachment's raw bytes via its contentBytes field.
func (c *Client) Download(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	u := fmt.Sprintf("%s/me/messages/%s/attachments/%s",
		apiBase, url.PathEscape(messageID), url.PathEscape(attachmentID))

	var att graphAttachment
	if err := c.getJSON(ctx, u, &att); err != nil {
		return nil, fmt.Errorf("fetching attachment %s: %w", attachmentID, err)
	}

	data, err := base64.StdEncoding.DecodeString(att.ContentBytes)
	if err != nil {
		return nil, fmt.Errorf("decoding attachment %s: %w", attachmentID, err)
	}
	return data, nil
}

// ListTree walks the folder tree under rootID (or all top-level folders
// when rootID is empty) and returns folders with slash-joined full names.
func (c *Client) ListTree(ctx context.Context, rootID string) ([]Folder, error) {
	var out []Folder

	var walk func(id, parentPath string, level int) error
	walk = func(id, parentPath string, level int) error {
		children, err := c.ChildFolders(ctx, id)
		if err != nil {
			return err
		}
		for _, f := range children {
			if parentPath != "" {
				f.FullName = parentPath + "/" + f.Name
			} else {
				f.FullName = f.Name
			}
			f.Level = level
			out = append(out, f)
			if f.Children > 0 {
				if err := walk(f.ID, f.FullName, level+1); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if rootID == "" {
		// Top-level folders hang off a different collection.
		next := apiBase + "/me/mailFolders"
		var roots []Folder
		for next != "" {
			var page graphList[Folder]
			if err := c.getJSON(ctx, next, &page); err != nil {
				return nil, fmt.Errorf("listing mail folders: %w", err)
			}
			roots = append(roots, page.Value...)
			next = page.NextLink
		}
		for _, f := range roots {
			f.FullName = f.Name
			out = append(out, f)
			if f.Children > 0 {
				if err := walk(f.ID, f.Name, 1); err != nil {
					return nil, err
				}
			}
		}
		return out, nil
	}
	if err := walk(rootID, "", 0); err != nil {
		return nil, err
	}
	return out, nil
}

// getJSON performs one authenticated GET and decodes the JSON response.
// HTTP 429 and 5xx responses are returned as transient errors so the
// caller's backoff policy can retry them; other failures are permanent.
func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return backoff.Transient(fmt.Errorf("graph request: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return backoff.Transient(fmt.Errorf("graph rate limited (HTTP 429)"))
	case resp.StatusCode >= 500:
		return backoff.Transient(fmt.Errorf("graph server error (HTTP %d)", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("graph returned HTTP %d for %s", resp.StatusCode, rawURL)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing graph response: %w", err)
	}
	return nil
}
