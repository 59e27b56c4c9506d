// Package client loads the images referenced by a conversation: viewer
// avatars and image message bodies. Loads run off the render path; their
// outcome only feeds the avatar fallback chain and the terminal image drawer.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// MaxImageSize caps a single download.
const MaxImageSize = 8 << 20

// ErrNotImage is returned when a locator resolves to something that is not
// a decodable image.
var ErrNotImage = errors.New("not an image")

// ErrUnsupported is returned for locators the client cannot resolve.
var ErrUnsupported = errors.New("unsupported image locator")

// ErrOutsideBase is returned for a relative path that leaves BaseDir.
var ErrOutsideBase = errors.New("image path escapes base directory")

// ErrPrivateAddress is returned by a public-only client for hosts that
// resolve to loopback, private or link-local addresses.
var ErrPrivateAddress = errors.New("image host is not a public address")

// Client fetches images referenced by a conversation.
type Client struct {
	// BaseURL resolves relative references when set.
	BaseURL string
	// BaseDir resolves relative references as local files when BaseURL is
	// empty, e.g. the directory of the conversation file.
	BaseDir    string
	HTTPClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithPublicOnly refuses connections to non-public addresses. The check
// runs on the resolved address, so names pointing inside the network are
// refused too.
func WithPublicOnly() Option {
	return func(c *Client) {
		d := &net.Dialer{Timeout: 10 * time.Second, Control: denyPrivate}
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.DialContext = d.DialContext
		t.Proxy = nil
		c.HTTPClient.Transport = t
	}
}

// New returns a client resolving relative references against baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// PublicAddr reports whether ip is routable on the public internet.
func PublicAddr(ip netip.Addr) bool {
	ip = ip.Unmap()
	return ip.IsValid() && !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() &&
		!ip.IsLinkLocalUnicast() && !ip.IsLinkLocalMulticast() && !ip.IsInterfaceLocalMulticast() && !ip.IsMulticast()
}

func denyPrivate(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip, err := netip.ParseAddr(host)
	if err != nil || !PublicAddr(ip) {
		return fmt.Errorf("%s: %w", address, ErrPrivateAddress)
	}
	return nil
}

// Image is a loaded image.
type Image struct {
	Data        []byte
	ContentType string
}

// Fetch resolves src and returns its bytes. Only image payloads are
// accepted; the content type is sniffed, never trusted from the server.
func (c *Client) Fetch(ctx context.Context, src string) (*Image, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, ErrUnsupported
	}
	var (
		data []byte
		err  error
	)
	switch {
	case strings.HasPrefix(strings.ToLower(src), "data:"):
		data, err = decodeDataURL(src)
	default:
		data, err = c.load(ctx, src)
	}
	if err != nil {
		return nil, err
	}
	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("%s: %w (%s)", src, ErrNotImage, ct)
	}
	return &Image{Data: data, ContentType: ct}, nil
}

// Probe reports whether src loads as an image.
func (c *Client) Probe(ctx context.Context, src string) error {
	_, err := c.Fetch(ctx, src)
	return err
}

func (c *Client) load(ctx context.Context, src string) ([]byte, error) {
	u, err := url.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", src, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return c.get(ctx, u.String())
	case "":
		if c.BaseURL != "" {
			base, err := url.Parse(c.BaseURL)
			if err != nil {
				return nil, fmt.Errorf("parse base url: %w", err)
			}
			return c.get(ctx, base.ResolveReference(u).String())
		}
		if c.BaseDir != "" {
			path, err := c.localPath(u.Path)
			if err != nil {
				return nil, err
			}
			return readFile(path)
		}
		return nil, fmt.Errorf("%s: %w", src, ErrUnsupported)
	default:
		return nil, fmt.Errorf("%s: %w", src, ErrUnsupported)
	}
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "image/*")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: HTTP %d", rawURL, resp.StatusCode)
	}
	return readLimited(resp.Body)
}

// localPath resolves a relative reference inside BaseDir.
func (c *Client) localPath(ref string) (string, error) {
	base, err := filepath.Abs(c.BaseDir)
	if err != nil {
		return "", fmt.Errorf("base dir: %w", err)
	}
	path := filepath.Join(base, filepath.FromSlash(ref))
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", ref, ErrOutsideBase)
	}
	return path, nil
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	return readLimited(f)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("image larger than %d bytes", MaxImageSize)
	}
	return data, nil
}

// decodeDataURL handles base64 data: URLs.
func decodeDataURL(src string) ([]byte, error) {
	meta, payload, ok := strings.Cut(src[len("data:"):], ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("data url: %w", ErrUnsupported)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("image larger than %d bytes", MaxImageSize)
	}
	return bytes.Clone(data), nil
}
