package imagestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/dwiprasetya/gatepass-management/internal"
)

// deleteJob is one queued photo removal. Deletions are best-effort:
// workers retry once and then give up with a warning.
type deleteJob struct {
	Ref     string
	Attempt int
}

const maxDeleteAttempts = 2

type Config struct {
	APIURL        string
	APIKey        string
	APISecret     string
	UploadTimeout time.Duration
	MaxUploadSize int64
	MaxWorkers    int
	JobQueueSize  int
}

// Client talks to the external image hosting API. Uploads are
// synchronous since the submission cannot proceed without a reference;
// deletions run through a background worker pool.
type Client struct {
	apiURL        string
	apiKey        string
	apiSecret     string
	uploadTimeout time.Duration
	maxUploadSize int64
	httpClient    *http.Client
	logger        *slog.Logger

	jobQueue chan deleteJob
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	once     sync.Once
}

func NewClient(config Config, logger *slog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}

	uploadTimeout := config.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = 30 * time.Second
	}

	client := &Client{
		apiURL:        config.APIURL,
		apiKey:        config.APIKey,
		apiSecret:     config.APISecret,
		uploadTimeout: uploadTimeout,
		maxUploadSize: config.MaxUploadSize,
		httpClient:    &http.Client{Timeout: uploadTimeout},
		logger:        logger,

		jobQueue: make(chan deleteJob, jobQueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}

	client.startWorkers(maxWorkers)

	return client
}

func (c *Client) startWorkers(maxWorkers int) {
	c.once.Do(func() {
		for i := 0; i < maxWorkers; i++ {
			c.wg.Add(1)
			go c.deleteWorker(i)
		}

		c.logger.Info("image store worker pool started",
			"max_workers", maxWorkers,
			"queue_size", cap(c.jobQueue))
	})
}

func (c *Client) deleteWorker(id int) {
	defer c.wg.Done()

	for {
		select {
		case job := <-c.jobQueue:
			c.logger.Debug("worker processing delete", "worker_id", id, "ref", job.Ref)
			c.processDeleteJob(job)
		case <-c.ctx.Done():
			c.logger.Debug("image store worker shutting down", "worker_id", id)
			return
		}
	}
}

func (c *Client) processDeleteJob(job deleteJob) {
	if err := c.deleteRemote(c.ctx, job.Ref); err != nil {
		job.Attempt++
		if job.Attempt < maxDeleteAttempts {
			c.logger.Warn("image delete failed, requeueing",
				"ref", job.Ref,
				"attempt", job.Attempt,
				"error", err)
			select {
			case c.jobQueue <- job:
			default:
				c.logger.Warn("image delete queue full, dropping retry", "ref", job.Ref)
			}
			return
		}
		c.logger.Warn("image delete abandoned", "ref", job.Ref, "error", err)
		return
	}

	c.logger.Info("image deleted", "ref", job.Ref)
}

func (c *Client) Shutdown() {
	c.logger.Info("shutting down image store client")
	c.cancel()
	c.wg.Wait()
	c.logger.Info("image store client shutdown complete")
}

// Store uploads a photo and returns its remote reference.
func (c *Client) Store(ctx context.Context, file io.Reader, filename string) (string, error) {
	if c.maxUploadSize > 0 {
		file = io.LimitReader(file, c.maxUploadSize)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if err := writer.WriteField("api_key", c.apiKey); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload form: %w", err)
	}

	ctx, cancel := internal.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/upload", body)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("image API returned status %d", resp.StatusCode)
	}

	var apiResponse struct {
		Data struct {
			Ref string `json:"ref"`
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if apiResponse.Data.Ref == "" {
		return "", fmt.Errorf("image API returned empty reference")
	}

	c.logger.Info("image stored", "ref", apiResponse.Data.Ref, "filename", filename)

	return apiResponse.Data.Ref, nil
}

// Delete queues a best-effort removal of a stored photo. It only fails
// when the client is shutting down or the queue is saturated.
func (c *Client) Delete(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}

	select {
	case c.jobQueue <- deleteJob{Ref: ref}:
		return nil
	case <-c.ctx.Done():
		return fmt.Errorf("image store client is shut down")
	default:
		return fmt.Errorf("image delete queue full")
	}
}

func (c *Client) deleteRemote(ctx context.Context, ref string) error {
	ctx, cancel := internal.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	endpoint := c.apiURL + "/images/" + url.PathEscape(ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete request failed: %w", err)
	}
	defer resp.Body.Close()

	// A missing remote image is as good as deleted.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("image API returned status %d", resp.StatusCode)
	}

	return nil
}
