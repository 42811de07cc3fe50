// Package lore fetches search results from a public-inbox archive as an
// mbox stream.
package lore

import (
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/daviddao/loremutt/internal/query"
)

// DefaultBaseURL is the public lore.kernel.org archive.
const DefaultBaseURL = "https://lore.kernel.org"

// Client fetches gzip-compressed mailboxes from the archive's search
// endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// New builds a client for the archive at baseURL. When insecure is set, TLS
// certificate verification is skipped.
func New(baseURL string, insecure bool, log zerolog.Logger) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: transport,
			Timeout:   5 * time.Minute,
		},
		log: log,
	}
}

// Fetch posts the query to the archive, following redirects, and streams the
// decompressed mbox into dst. A non-2xx status or a corrupt gzip payload is
// an error; there is no retry and no partial result.
func (c *Client) Fetch(ctx context.Context, q query.Query, dst string) error {
	u := c.baseURL + "/all/?q=" + q.Encoded + "&x=m"
	c.log.Debug().Str("url", u).Str("result_mode", q.Result.String()).Msg("fetching mailbox")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(q.Result.Token()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("fetch %s: unexpected status %s", u, resp.Status)
	}

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return fmt.Errorf("decompress mailbox: %w", err)
	}
	defer gz.Close()

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	n, err := io.Copy(f, gz)
	if err != nil {
		f.Close()
		return fmt.Errorf("decompress mailbox: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}

	c.log.Debug().Int64("bytes", n).Str("dst", dst).Msg("mailbox written")
	return nil
}
