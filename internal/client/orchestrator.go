package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/digitalforest/backend/internal/models"
	"go.uber.org/zap"
)

var (
	// ErrUploadInProgress is returned when Upload is called while another upload runs on the same orchestrator
	ErrUploadInProgress = errors.New("an upload is already in progress")
	// ErrNotImage is returned for files whose type is not image/*
	ErrNotImage = errors.New("only image files can be uploaded")
	// ErrNoFile is returned when Upload is called before a file was selected
	ErrNoFile = errors.New("no file selected")
)

// Stage is the progress of the current upload
type Stage int32

const (
	StageIdle Stage = iota
	StageCreating
	StageUploading
	StageSaving
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageCreating:
		return "creating"
	case StageUploading:
		return "uploading"
	case StageSaving:
		return "saving"
	default:
		return fmt.Sprintf("stage(%d)", int32(s))
	}
}

// Upload paths
const (
	PathPresigned = "presigned"
	PathProxy     = "proxy"
)

// File is a local file selected for upload.
// Open is called once per attempt, so the fallback re-reads the file from the start.
type File struct {
	Name     string
	MimeType string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// MediaAPI defines the calls the orchestrator makes
type MediaAPI interface {
	IssueUploadURL(ctx context.Context, req *models.IssueUploadURLRequest) (*models.IssueUploadURLResponse, error)
	PutObject(ctx context.Context, uploadURL string, headers map[string]string, body io.Reader, size int64) error
	RecordUpload(ctx context.Context, req *models.RecordUploadRequest) (*models.MediaItem, error)
	UploadViaProxy(ctx context.Context, upload *ProxyUpload, body io.Reader) (*models.MediaItem, error)
}

// Result describes a finished upload
type Result struct {
	Media *models.MediaItem
	Path  string
	// PrimaryErr is why the presigned path was abandoned when Path is PathProxy
	PrimaryErr error
}

// attempt is the outcome of one pipeline step: succeeded, failedPrimary or failedBoth
type attempt interface {
	isAttempt()
}

type succeeded struct {
	media      *models.MediaItem
	path       string
	primaryErr error
}

type failedPrimary struct {
	err error
}

type failedBoth struct {
	primaryErr error
	err        error
}

func (succeeded) isAttempt()     {}
func (failedPrimary) isAttempt() {}
func (failedBoth) isAttempt()    {}

// Orchestrator uploads one file at a time, preferring the presigned path and
// falling back to the upload proxy when any primary step fails
type Orchestrator struct {
	api        MediaAPI
	logger     *zap.Logger
	onComplete func(*models.MediaItem)
	onStage    func(Stage)

	stage    atomic.Int32
	inFlight atomic.Bool

	mu      sync.Mutex
	file    *File
	lastErr error
}

// OrchestratorOption configures an Orchestrator
type OrchestratorOption func(*Orchestrator)

// WithLogger sets the orchestrator logger
func WithLogger(logger *zap.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithOnComplete registers a callback fired after every successful upload
func WithOnComplete(fn func(*models.MediaItem)) OrchestratorOption {
	return func(o *Orchestrator) {
		o.onComplete = fn
	}
}

// WithOnStage registers a callback fired on every stage change
func WithOnStage(fn func(Stage)) OrchestratorOption {
	return func(o *Orchestrator) {
		o.onStage = fn
	}
}

// NewOrchestrator creates an idle orchestrator
func NewOrchestrator(api MediaAPI, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		api:    api,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Stage returns the current stage
func (o *Orchestrator) Stage() Stage {
	return Stage(o.stage.Load())
}

// Busy reports whether an upload is running
func (o *Orchestrator) Busy() bool {
	return o.inFlight.Load()
}

// LastError returns the error of the last failed upload or selection, or nil
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Selected returns the selected file, if any
func (o *Orchestrator) Selected() *File {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.file
}

// Select chooses the file for the next upload. Non-image files are rejected.
func (o *Orchestrator) Select(file File) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !models.IsImageMimeType(file.MimeType) {
		o.lastErr = ErrNotImage
		return ErrNotImage
	}
	o.file = &file
	o.lastErr = nil
	return nil
}

// Upload sends the selected file for treeID.
//
// The caller sees an error only when both paths failed, and that error is the proxy's.
func (o *Orchestrator) Upload(ctx context.Context, treeID string) (*Result, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		return nil, ErrUploadInProgress
	}
	defer func() {
		o.setStage(StageIdle)
		o.inFlight.Store(false)
	}()

	file := o.Selected()
	if file == nil {
		o.fail(ErrNoFile)
		return nil, ErrNoFile
	}
	if !models.IsImageMimeType(file.MimeType) {
		o.fail(ErrNotImage)
		return nil, ErrNotImage
	}

	o.mu.Lock()
	o.lastErr = nil
	o.mu.Unlock()

	outcome := o.runPrimary(ctx, treeID, file)
	if primary, ok := outcome.(failedPrimary); ok {
		o.logger.Warn("direct upload failed, attempting proxy",
			zap.String("tree_id", treeID),
			zap.Error(primary.err),
		)
		outcome = o.runFallback(ctx, treeID, file, primary.err)
	}

	switch res := outcome.(type) {
	case succeeded:
		o.reset()
		if o.onComplete != nil {
			o.onComplete(res.media)
		}
		return &Result{Media: res.media, Path: res.path, PrimaryErr: res.primaryErr}, nil
	case failedBoth:
		o.logger.Error("upload failed",
			zap.String("tree_id", treeID),
			zap.NamedError("primary_error", res.primaryErr),
			zap.Error(res.err),
		)
		o.fail(res.err)
		return nil, res.err
	default:
		err := fmt.Errorf("unexpected upload outcome %T", outcome)
		o.fail(err)
		return nil, err
	}
}

// runPrimary issues a URL, writes the bytes to it and records the upload
func (o *Orchestrator) runPrimary(ctx context.Context, treeID string, file *File) attempt {
	o.setStage(StageCreating)
	issued, err := o.api.IssueUploadURL(ctx, &models.IssueUploadURLRequest{
		TreeID:        treeID,
		FileName:      file.Name,
		MimeType:      file.MimeType,
		FileSizeBytes: file.Size,
	})
	if err != nil {
		return failedPrimary{err: fmt.Errorf("issue upload url: %w", err)}
	}

	o.setStage(StageUploading)
	if err := o.put(ctx, issued, file); err != nil {
		return failedPrimary{err: fmt.Errorf("put object: %w", err)}
	}

	o.setStage(StageSaving)
	media, err := o.api.RecordUpload(ctx, &models.RecordUploadRequest{
		TreeID:           treeID,
		ObjectKey:        issued.ObjectKey,
		MimeType:         file.MimeType,
		FileSizeBytes:    file.Size,
		OriginalFileName: file.Name,
	})
	if err != nil {
		return failedPrimary{err: fmt.Errorf("record upload: %w", err)}
	}

	return succeeded{media: media, path: PathPresigned}
}

func (o *Orchestrator) put(ctx context.Context, issued *models.IssueUploadURLResponse, file *File) error {
	body, err := file.Open()
	if err != nil {
		return err
	}
	defer body.Close()
	return o.api.PutObject(ctx, issued.UploadURL, issued.Headers, body, file.Size)
}

// runFallback sends the whole file through the upload proxy
func (o *Orchestrator) runFallback(ctx context.Context, treeID string, file *File, primaryErr error) attempt {
	o.setStage(StageSaving)

	body, err := file.Open()
	if err != nil {
		return failedBoth{primaryErr: primaryErr, err: err}
	}
	defer body.Close()

	media, err := o.api.UploadViaProxy(ctx, &ProxyUpload{
		TreeID:   treeID,
		FileName: file.Name,
		MimeType: file.MimeType,
		Size:     file.Size,
	}, body)
	if err != nil {
		return failedBoth{primaryErr: primaryErr, err: err}
	}

	return succeeded{media: media, path: PathProxy, primaryErr: primaryErr}
}

func (o *Orchestrator) setStage(stage Stage) {
	if Stage(o.stage.Swap(int32(stage))) == stage {
		return
	}
	if o.onStage != nil {
		o.onStage(stage)
	}
}

func (o *Orchestrator) fail(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastErr = err
}

func (o *Orchestrator) reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.file = nil
	o.lastErr = nil
}
