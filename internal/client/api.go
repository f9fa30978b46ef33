// Package client talks to the tree media API and drives uploads from the client side
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/digitalforest/backend/internal/models"
)

const defaultTimeout = 60 * time.Second

// TransportError is any failed call to the API or the object store
type TransportError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProxyUpload describes a file sent through the upload proxy
type ProxyUpload struct {
	TreeID   string
	FileName string
	MimeType string
	Size     int64
	Status   models.MediaStatus
}

// APIClient calls the tree media HTTP API
type APIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures an APIClient
type Option func(*APIClient)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(a *APIClient) {
		a.httpClient = c
	}
}

// WithAPIKey sends key in the X-API-Key header of every API call
func WithAPIKey(key string) Option {
	return func(a *APIClient) {
		a.apiKey = key
	}
}

// NewAPIClient creates a client for the API rooted at baseURL, e.g. http://localhost:8080/api/v1
func NewAPIClient(baseURL string, opts ...Option) *APIClient {
	c := &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IssueUploadURL requests a presigned upload URL
func (c *APIClient) IssueUploadURL(ctx context.Context, req *models.IssueUploadURLRequest) (*models.IssueUploadURLResponse, error) {
	var resp models.IssueUploadURLResponse
	if err := c.postJSON(ctx, "issue-upload-url", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PutObject writes body to a presigned URL with the headers the issuer returned
func (c *APIClient) PutObject(ctx context.Context, uploadURL string, headers map[string]string, body io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return &TransportError{Op: "put object", Err: err}
	}
	req.ContentLength = size
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: "put object", Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{
			Op:         "put object",
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("object store rejected upload with status %d", resp.StatusCode),
		}
	}
	return nil
}

// RecordUpload records an object written through a presigned URL
func (c *APIClient) RecordUpload(ctx context.Context, req *models.RecordUploadRequest) (*models.MediaItem, error) {
	var resp models.MediaResponse
	if err := c.postJSON(ctx, "record-upload", req, &resp); err != nil {
		return nil, err
	}
	return resp.Media, nil
}

// UploadViaProxy sends the file bytes through the server in a multipart request
func (c *APIClient) UploadViaProxy(ctx context.Context, upload *ProxyUpload, body io.Reader) (*models.MediaItem, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeProxyForm(mw, upload, body))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("upload-proxy"), pr)
	if err != nil {
		pr.Close()
		return nil, &TransportError{Op: "upload proxy", Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp models.MediaResponse
	if err := c.do(req, "upload proxy", &resp); err != nil {
		pr.Close()
		return nil, err
	}
	return resp.Media, nil
}

func writeProxyForm(mw *multipart.Writer, upload *ProxyUpload, body io.Reader) error {
	fields := [][2]string{
		{"treeId", upload.TreeID},
		{"fileName", upload.FileName},
		{"mimeType", upload.MimeType},
	}
	if upload.Size > 0 {
		fields = append(fields, [2]string{"fileSizeBytes", strconv.FormatInt(upload.Size, 10)})
	}
	if upload.Status != "" {
		fields = append(fields, [2]string{"status", string(upload.Status)})
	}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, upload.FileName))
	if upload.MimeType != "" {
		header.Set("Content-Type", upload.MimeType)
	}
	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, body); err != nil {
		return err
	}
	return mw.Close()
}

// ListMedia pages through the moderation queue
func (c *APIClient) ListMedia(ctx context.Context, req *models.ListMediaRequest) (*models.ListMediaResponse, error) {
	payload := struct {
		Action string `json:"action"`
		*models.ListMediaRequest
	}{Action: models.ReviewActionList, ListMediaRequest: req}

	var resp models.ListMediaResponse
	if err := c.postJSON(ctx, "review-media", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateStatus moves a media item to another status
func (c *APIClient) UpdateStatus(ctx context.Context, id string, status models.MediaStatus) (*models.MediaItem, error) {
	payload := struct {
		Action string             `json:"action"`
		ID     string             `json:"id"`
		Status models.MediaStatus `json:"status"`
	}{Action: models.ReviewActionUpdate, ID: id, Status: status}

	var resp models.MediaResponse
	if err := c.postJSON(ctx, "review-media", payload, &resp); err != nil {
		return nil, err
	}
	return resp.Media, nil
}

// ListTreeMedia returns the approved media of a tree
func (c *APIClient) ListTreeMedia(ctx context.Context, treeID string) ([]models.MediaItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("trees/"+url.PathEscape(treeID)+"/media"), nil)
	if err != nil {
		return nil, &TransportError{Op: "list tree media", Err: err}
	}

	var resp models.GalleryResponse
	if err := c.do(req, "list tree media", &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *APIClient) endpoint(path string) string {
	return c.baseURL + "/" + path
}

func (c *APIClient) postJSON(ctx context.Context, path string, payload, dst any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(body))
	if err != nil {
		return &TransportError{Op: path, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, path, dst)
}

// do sends req and decodes a 2xx JSON body into dst.
// Error bodies of the form {"error": "..."} become the TransportError message.
func (c *APIClient) do(req *http.Request, op string, dst any) error {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr models.ErrorResponse
		_ = json.Unmarshal(data, &apiErr)
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
