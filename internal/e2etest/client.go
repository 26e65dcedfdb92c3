package e2etest

import (
	"bytes"
	"context"
	"fmt"
	"github.com/PuerkitoBio/goquery"
	"github.com/labqa/inspection/internal/errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	neturl "net/url"
	"strings"
	"time"
)

// CSRFFieldName is the form field carrying the CSRF token.
const CSRFFieldName = "csrf_token"

type Client struct {
	client *http.Client
	jar    *sessionJar
	url    string
}

// File is a file to upload with [Client.SubmitMultipartForm].
type File struct {
	Name    string
	Content []byte
}

// NewClient creates an HTTP client with a cookie jar that keeps the wizard session between requests.
func NewClient(url string) (*Client, error) {
	jar, err := newSessionJar()
	if err != nil {
		return nil, errors.Wrap(err, "create session jar")
	}
	return &Client{
		client: &http.Client{Jar: jar},
		jar:    jar,
		url:    url,
	}, nil
}

// ResetSession forgets the session cookie so that the next request starts a new wizard session.
func (c *Client) ResetSession() error {
	return c.jar.reset()
}

// WaitForReady calls the specified endpoint until it gets a HTTP 200 Success
// response or until the context is cancelled or the 1-second timeout is reached.
func (c *Client) WaitForReady(ctx context.Context, urlPath string) error {
	timeout := 1 * time.Second
	startTime := time.Now()
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	for {
		if req, err = http.NewRequestWithContext(
			ctx,
			http.MethodGet,
			c.url+urlPath,
			nil,
		); err != nil {
			return errors.Wrap(err, "create request")
		}

		if resp, err = c.client.Do(req); err == nil {
			if resp.StatusCode == http.StatusOK {
				if err = resp.Body.Close(); err != nil {
					return errors.Wrap(err, "close response body")
				}
				return nil
			}
			if err = resp.Body.Close(); err != nil {
				return errors.Wrap(err, "close response body")
			}
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "context cancelled")
		default:
			if time.Since(startTime) >= timeout {
				return errors.New("timeout waiting for endpoint to be ready")
			}
			time.Sleep(100 * time.Millisecond) //nolint:mnd // 100ms
		}
	}
}

// Get fetches a URL and returns the response.
func (c *Client) Get(ctx context.Context, urlPath string) (*http.Response, error) {
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	if req, err = c.newRequestWithContext(ctx, http.MethodGet, urlPath, nil); err != nil {
		return nil, errors.Wrap(err, "create request with context")
	}
	if resp, err = c.client.Do(req); err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	return resp, nil
}

// GetDoc fetches a URL and returns a goquery document.
func (c *Client) GetDoc(ctx context.Context, urlPath string) (*goquery.Document, error) {
	var (
		err  error
		resp *http.Response
	)
	if resp, err = c.Get(ctx, urlPath); err != nil {
		return nil, errors.Wrap(err, "client get")
	}
	return documentFromResponse(resp)
}

// Download fetches a URL and returns the body and content type of a 200 response.
func (c *Client) Download(ctx context.Context, urlPath string) ([]byte, string, error) {
	resp, err := c.Get(ctx, urlPath)
	if err != nil {
		return nil, "", errors.Wrap(err, "client get")
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if http.StatusOK != resp.StatusCode {
		return nil, "", errors.New("unexpected status code", slog.Int("status", resp.StatusCode),
			slog.String("path", urlPath))
	}
	var body []byte
	if body, err = io.ReadAll(resp.Body); err != nil {
		return nil, "", errors.Wrap(err, "read body")
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// newRequestWithContext creates a new HTTP request to the server that respects the given context.
func (c *Client) newRequestWithContext(
	ctx context.Context,
	method, urlPath string,
	body io.Reader,
) (*http.Request, error) {
	var (
		req *http.Request
		err error
	)
	if req, err = http.NewRequestWithContext(ctx, method, c.url+urlPath, body); err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	return req, nil
}

func (c *Client) extractCSRFToken(doc *goquery.Document, formActionURLPath string) (string, error) {
	formSelector := fmt.Sprintf("form[action='%s']", formActionURLPath)
	form := doc.Find(formSelector)
	if form.Length() == 0 {
		return "", errors.New("form not found", slog.String("action", formActionURLPath))
	}
	csrfToken, ok := form.Find("input[name=" + CSRFFieldName + "]").Attr("value")
	if !ok {
		return "", errors.New("csrf_token not found in form", slog.String("action", formActionURLPath))
	}
	return csrfToken, nil
}

// SubmitForm posts values to the form with action formActionURLPath found in doc and returns the document the
// server redirects to.
func (c *Client) SubmitForm(
	ctx context.Context,
	doc *goquery.Document,
	formActionURLPath string,
	values neturl.Values,
) (*goquery.Document, error) {
	return c.postForm(ctx, doc, formActionURLPath, formActionURLPath, values, nil)
}

// SubmitHTMX posts the values of the form with action formActionURLPath to urlPath the way htmx does and returns
// the HTML fragment of the response.
func (c *Client) SubmitHTMX(
	ctx context.Context,
	doc *goquery.Document,
	formActionURLPath string,
	urlPath string,
	values neturl.Values,
) (*goquery.Document, error) {
	header := http.Header{}
	header.Set("HX-Request", "true")
	return c.postForm(ctx, doc, formActionURLPath, urlPath, values, header)
}

func (c *Client) postForm(
	ctx context.Context,
	doc *goquery.Document,
	formActionURLPath string,
	urlPath string,
	values neturl.Values,
	header http.Header,
) (*goquery.Document, error) {
	csrfToken, err := c.extractCSRFToken(doc, formActionURLPath)
	if err != nil {
		return nil, errors.Wrap(err, "extract CSRF token")
	}

	formData := neturl.Values{}
	for key, vs := range values {
		formData[key] = append([]string(nil), vs...)
	}
	formData.Set(CSRFFieldName, csrfToken)

	var req *http.Request
	if req, err = c.newRequestWithContext(ctx, http.MethodPost, urlPath,
		strings.NewReader(formData.Encode())); err != nil {
		return nil, errors.Wrap(err, "new request with context")
	}
	for key, vs := range header {
		req.Header[key] = vs
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// SubmitMultipartForm is [Client.SubmitForm] with file uploads. files maps form field names to the uploaded files.
func (c *Client) SubmitMultipartForm(
	ctx context.Context,
	doc *goquery.Document,
	formActionURLPath string,
	values neturl.Values,
	files map[string][]File,
) (*goquery.Document, error) {
	csrfToken, err := c.extractCSRFToken(doc, formActionURLPath)
	if err != nil {
		return nil, errors.Wrap(err, "extract CSRF token")
	}

	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	if err = mw.WriteField(CSRFFieldName, csrfToken); err != nil {
		return nil, errors.Wrap(err, "write csrf field")
	}
	for key, vs := range values {
		for _, v := range vs {
			if err = mw.WriteField(key, v); err != nil {
				return nil, errors.Wrap(err, "write field", slog.String("field", key))
			}
		}
	}
	for key, fs := range files {
		for _, f := range fs {
			var part io.Writer
			if part, err = mw.CreateFormFile(key, f.Name); err != nil {
				return nil, errors.Wrap(err, "create form file", slog.String("field", key))
			}
			if _, err = part.Write(f.Content); err != nil {
				return nil, errors.Wrap(err, "write form file", slog.String("field", key))
			}
		}
	}
	if err = mw.Close(); err != nil {
		return nil, errors.Wrap(err, "close multipart writer")
	}

	var req *http.Request
	if req, err = c.newRequestWithContext(ctx, http.MethodPost, formActionURLPath, body); err != nil {
		return nil, errors.Wrap(err, "new request with context")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*goquery.Document, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	return documentFromResponse(resp)
}

func documentFromResponse(resp *http.Response) (*goquery.Document, error) {
	defer func() {
		_ = resp.Body.Close()
	}()
	if http.StatusOK != resp.StatusCode {
		return nil, errors.New("unexpected status code", slog.Int("status", resp.StatusCode),
			slog.String("url", resp.Request.URL.String()))
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "create document from reader")
	}
	return doc, nil
}
