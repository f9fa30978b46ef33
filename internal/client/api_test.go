package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/digitalforest/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIClient_IssueUploadURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/issue-upload-url", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req models.IssueUploadURLRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "T1", req.TreeID)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"uploadUrl":"https://store/put","objectKey":"tree-media/T1/a.jpg","expiresIn":300,"bucket":"b","maxFileSize":52428800,"headers":{"Content-Type":"image/jpeg"}}`))
	}))
	defer server.Close()

	c := NewAPIClient(server.URL + "/api/v1/")
	resp, err := c.IssueUploadURL(context.Background(), &models.IssueUploadURLRequest{
		TreeID: "T1", FileName: "a.jpg", MimeType: "image/jpeg", FileSizeBytes: 10,
	})

	require.NoError(t, err)
	assert.Equal(t, "tree-media/T1/a.jpg", resp.ObjectKey)
	assert.Equal(t, 300, resp.ExpiresIn)
	assert.Equal(t, "image/jpeg", resp.Headers["Content-Type"])
}

func TestAPIClient_ErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Uploaded object could not be verified"}`))
	}))
	defer server.Close()

	c := NewAPIClient(server.URL)
	_, err := c.RecordUpload(context.Background(), &models.RecordUploadRequest{TreeID: "T1"})

	var tErr *TransportError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, http.StatusBadRequest, tErr.StatusCode)
	assert.Equal(t, "Uploaded object could not be verified", err.Error())
}

func TestAPIClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewAPIClient(url).IssueUploadURL(context.Background(), &models.IssueUploadURLRequest{})

	var tErr *TransportError
	require.True(t, errors.As(err, &tErr))
	assert.Zero(t, tErr.StatusCode)
	assert.Error(t, tErr.Err)
}

func TestAPIClient_PutObject(t *testing.T) {
	var (
		gotBody        string
		gotContentType string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		gotContentType = r.Header.Get("Content-Type")
		if r.URL.Query().Get("expired") == "1" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewAPIClient("http://unused")
	headers := map[string]string{"Content-Type": "image/png"}

	err := c.PutObject(context.Background(), server.URL+"/bucket/key", headers, strings.NewReader("png"), 3)
	require.NoError(t, err)
	assert.Equal(t, "png", gotBody)
	assert.Equal(t, "image/png", gotContentType)

	err = c.PutObject(context.Background(), server.URL+"/bucket/key?expired=1", headers, strings.NewReader("png"), 3)
	var tErr *TransportError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, http.StatusForbidden, tErr.StatusCode)
}

func TestAPIClient_UploadViaProxy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload-proxy", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "T1", r.FormValue("treeId"))
		assert.Equal(t, "leaf.png", r.FormValue("fileName"))
		assert.Equal(t, "image/png", r.FormValue("mimeType"))
		assert.Equal(t, "4", r.FormValue("fileSizeBytes"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "data", string(data))
		assert.Equal(t, "leaf.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))

		w.Write([]byte(`{"media":{"id":"m1","treeId":"T1","status":"pending"}}`))
	}))
	defer server.Close()

	c := NewAPIClient(server.URL)
	media, err := c.UploadViaProxy(context.Background(), &ProxyUpload{
		TreeID: "T1", FileName: "leaf.png", MimeType: "image/png", Size: 4,
	}, strings.NewReader("data"))

	require.NoError(t, err)
	assert.Equal(t, "m1", media.ID)
	assert.Equal(t, models.MediaStatusPending, media.Status)
}

func TestAPIClient_Review(t *testing.T) {
	var payloads []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "mod-key", r.Header.Get("X-API-Key"))
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		payloads = append(payloads, payload)

		if payload["action"] == "update" {
			w.Write([]byte(`{"media":{"id":"m1","status":"flagged"}}`))
			return
		}
		w.Write([]byte(`{"items":[{"id":"m1","status":"pending"}],"count":7,"status":"pending"}`))
	}))
	defer server.Close()

	c := NewAPIClient(server.URL, WithAPIKey("mod-key"))

	list, err := c.ListMedia(context.Background(), &models.ListMediaRequest{Status: "pending", Limit: 1, TreeIDs: []string{"T1"}})
	require.NoError(t, err)
	assert.Equal(t, 7, list.Count)
	require.Len(t, list.Items, 1)

	item, err := c.UpdateStatus(context.Background(), "m1", models.MediaStatusFlagged)
	require.NoError(t, err)
	assert.Equal(t, models.MediaStatusFlagged, item.Status)

	require.Len(t, payloads, 2)
	assert.Equal(t, "list", payloads[0]["action"])
	assert.Equal(t, float64(1), payloads[0]["limit"])
	assert.Equal(t, []any{"T1"}, payloads[0]["treeIds"])
	assert.Equal(t, map[string]any{"action": "update", "id": "m1", "status": "flagged"}, payloads[1])
}

func TestAPIClient_ListTreeMedia(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/trees/oak 7/media", r.URL.Path)
		w.Write([]byte(`{"items":[{"id":"m1","status":"approved"}]}`))
	}))
	defer server.Close()

	items, err := NewAPIClient(server.URL).ListTreeMedia(context.Background(), "oak 7")

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.MediaStatusApproved, items[0].Status)
}

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "leaf.PNG")
	require.NoError(t, os.WriteFile(pngPath, []byte("not really a png"), 0o600))

	f, err := OpenFile(pngPath)
	require.NoError(t, err)
	assert.Equal(t, "leaf.PNG", f.Name)
	assert.Equal(t, "image/png", f.MimeType)
	assert.Equal(t, int64(16), f.Size)

	rc, err := f.Open()
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "not really a png", string(data))

	sniffPath := filepath.Join(dir, "photo")
	require.NoError(t, os.WriteFile(sniffPath, []byte("\x89PNG\r\n\x1a\n0000"), 0o600))
	f, err = OpenFile(sniffPath)
	require.NoError(t, err)
	assert.Equal(t, "image/png", f.MimeType)

	_, err = OpenFile(filepath.Join(dir, "missing.jpg"))
	assert.Error(t, err)
}
