// Package evidence uploads finished documents to an external compliance
// tracker (CISO Assistant style) as new revisions of an evidence record.
// Upload is optional: the client is disabled unless fully configured, and
// an upload failure never flips the run to failed — it is surfaced
// distinctly so the operator sees it.
package evidence

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ozskywalker/frc2g/internal/document"
	"github.com/ozskywalker/frc2g/internal/source"
)

// Config holds the evidence tracker connection settings. The client is
// enabled only when all three identifiers are present.
type Config struct {
	BaseURL    string
	Token      string
	EvidenceID string
	HTTP       source.HTTPConfig
}

func (c Config) Enabled() bool {
	return c.BaseURL != "" && c.Token != "" && c.EvidenceID != ""
}

// UploadStats summarises one upload pass.
type UploadStats struct {
	Successful int
	Failed     int
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   source.NewHTTPClient(cfg.HTTP),
		logger: logger,
	}
}

func (c *Client) Enabled() bool {
	return c.cfg.Enabled()
}

// UploadDocument uploads every page artifact of the document. Failures are
// counted per page; one failed page does not stop the rest.
func (c *Client) UploadDocument(ctx context.Context, doc *document.Document) UploadStats {
	var stats UploadStats
	for _, page := range doc.Pages {
		if err := c.uploadFile(ctx, page.Path); err != nil {
			c.logger.Error("evidence upload failed", "section", page.Section, "path", page.Path, "error", err)
			stats.Failed++
			continue
		}
		c.logger.Info("evidence uploaded", "section", page.Section, "path", page.Path)
		stats.Successful++
	}
	return stats
}

func (c *Client) uploadFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("evidence: open artifact: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("evidence: build form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("evidence: read artifact: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("evidence: finish form: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/evidences/" + c.cfg.EvidenceID + "/upload/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return fmt.Errorf("evidence: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Token "+c.cfg.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("evidence: unexpected status %s", resp.Status)
	}
	return nil
}
