package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// DocumentTemplate is the template rendered for the HTML engine.
const DocumentTemplate = "documents/invoice.html"

// Executor renders a named template. The view engine satisfies it.
type Executor interface {
	Execute(wr io.Writer, name string, data any) error
}

// GotenbergClient wraps interactions with the Gotenberg API.
type GotenbergClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGotenbergClient constructs a new client.
func NewGotenbergClient(baseURL string) *GotenbergClient {
	return &GotenbergClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Ping checks if the remote Gotenberg service is available.
func (c *GotenbergClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pdf: gotenberg ping: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("pdf: gotenberg returned status %d", resp.StatusCode)
	}
	return nil
}

// RenderHTML converts raw HTML into a PDF document using Gotenberg.
func (c *GotenbergClient) RenderHTML(ctx context.Context, html []byte) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(html); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pdf: gotenberg convert: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("pdf: render failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Gotenberg renders documents from the HTML invoice template.
type Gotenberg struct {
	client    *GotenbergClient
	templates Executor
}

// NewGotenberg constructs the HTML engine.
func NewGotenberg(client *GotenbergClient, templates Executor) *Gotenberg {
	return &Gotenberg{client: client, templates: templates}
}

// Render implements Renderer.
func (g *Gotenberg) Render(ctx context.Context, doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.templates.Execute(&buf, DocumentTemplate, doc); err != nil {
		return nil, fmt.Errorf("pdf: execute template: %w", err)
	}
	return g.client.RenderHTML(ctx, buf.Bytes())
}
