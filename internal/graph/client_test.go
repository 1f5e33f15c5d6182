// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cvlens/internal/backoff"
	"github.com/pdiddy/cvlens/pkg/types"
)

// withTestServer points the client at an httptest server for the test's
// duration.
func withTestServer(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	prev := apiBase
	apiBase = ts.URL
	t.Cleanup(func() { apiBase = prev })

	return NewClient("test-token", types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "cvlens-test"})
}

func TestChildFolders_Paginates(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/me/mailFolders/root-1/childFolders", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Query().Get("page") == "2" {
			json.NewEncoder(w).Encode(map[string]any{
				"value": []map[string]any{{"id": "f-2", "displayName": "Archive", "childFolderCount": 0}},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"value":           []map[string]any{{"id": "f-1", "displayName": "Screening", "childFolderCount": 1}},
			"@odata.nextLink": fmt.Sprintf("%s/me/mailFolders/root-1/childFolders?page=2", apiBase),
		})
	})
	c := withTestServer(t, mux)

	folders, err := c.ChildFolders(context.Background(), "root-1")
	require.NoError(t, err)

	require.Len(t, folders, 2)
	assert.Equal(t, "Screening", folders[0].Name)
	assert.Equal(t, 1, folders[0].Children)
	assert.Equal(t, "f-2", folders[1].ID)
	assert.Equal(t, "Bearer test-token", gotAuth)
}

func TestChildFolders_RequiresFolderID(t *testing.T) {
	c := NewClient("tok", types.HTTPConfig{})
	_, err := c.ChildFolders(context.Background(), "")
	assert.Error(t, err)
}

func TestMessages_FiltersServerSide(t *testing.T) {
	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	var gotFilter string
	mux := http.NewServeMux()
	mux.HandleFunc("/me/mailFolders/f-1/messages", func(w http.ResponseWriter, r *http.Request) {
		gotFilter = r.URL.Query().Get("$filter")
		json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]any{{
				"id":               "m-1",
				"subject":          "Application for Backend Engineer",
				"receivedDateTime": "2026-08-15T09:30:00Z",
				"from": map[string]any{
					"emailAddress": map[string]any{"name": "Jane Doe", "address": "jane@example.com"},
				},
			}},
		})
	})
	c := withTestServer(t, mux)

	messages, err := c.Messages(context.Background(), "f-1", since)
	require.NoError(t, err)

	require.Len(t, messages, 1)
	assert.Equal(t, "m-1", messages[0].ID)
	assert.Equal(t, "jane@example.com", messages[0].SenderEmail)
	assert.Equal(t, "Jane Doe", messages[0].SenderName)
	assert.Contains(t, gotFilter, "receivedDateTime ge 2026-08-01T00:00:00Z")
	assert.Contains(t, gotFilter, "hasAttachments eq true")
}

func TestAttachments_DropsNonFileTypes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me/messages/m-1/attachments", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]any{
				{"@odata.type": "#microsoft.graph.fileAttachment", "id": "a-1", "name": "resume.pdf", "size": 1024},
				{"@odata.type": "#microsoft.graph.itemAttachment", "id": "a-2", "name": "forwarded message"},
			},
		})
	})
	c := withTestServer(t, mux)

	attachments, err := c.Attachments(context.Background(), "m-1")
	require.NoError(t, err)

	require.Len(t, attachments, 1)
	assert.Equal(t, "resume.pdf", attachments[0].Name)
	assert.Equal(t, int64(1024), attachments[0].Size)
}

func TestDownload_DecodesContentBytes(t *testing.T) {
	raw := []byte("%PDF-1.7 fake resume")
	mux := http.NewServeMux()
	mux.HandleFunc("/me/messages/m-1/attachments/a-1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id":           "a-1",
			"name":         "resume.pdf",
			"contentBytes": base64.StdEncoding.EncodeToString(raw),
		})
	})
	c := withTestServer(t, mux)

	data, err := c.Download(context.Background(), "m-1", "a-1")
	require.NoError(t, err)
	assert.Equal(t, raw, data)
}

func TestGetJSON_RateLimitIsTransient(t *testing.T) {
	c := withTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := c.ChildFolders(context.Background(), "f-1")
	require.Error(t, err)
	assert.True(t, backoff.IsTransient(err))
}

func TestGetJSON_ServerErrorIsTransient(t *testing.T) {
	c := withTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := c.ChildFolders(context.Background(), "f-1")
	require.Error(t, err)
	assert.True(t, backoff.IsTransient(err))
}

func TestGetJSON_ClientErrorIsPermanent(t *testing.T) {
	c := withTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.ChildFolders(context.Background(), "f-1")
	require.Error(t, err)
	assert.False(t, backoff.IsTransient(err))
}

func TestListTree_BuildsFullNames(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me/mailFolders", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]any{
				{"id": "in", "displayName": "Inbox", "childFolderCount": 1},
			},
		})
	})
	mux.HandleFunc("/me/mailFolders/in/childFolders", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]any{
				{"id": "rec", "displayName": "Recruiting", "childFolderCount": 1},
			},
		})
	})
	mux.HandleFunc("/me/mailFolders/rec/childFolders", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]any{
				{"id": "res", "displayName": "Resumes", "childFolderCount": 0},
			},
		})
	})
	c := withTestServer(t, mux)

	folders, err := c.ListTree(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, folders, 3)
	assert.Equal(t, "Inbox", folders[0].FullName)
	assert.Equal(t, 0, folders[0].Level)
	assert.Equal(t, "Inbox/Recruiting", folders[1].FullName)
	assert.Equal(t, "Inbox/Recruiting/Resumes", folders[2].FullName)
	assert.Equal(t, 2, folders[2].Level)
}
