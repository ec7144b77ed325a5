package document

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"syscall"
	"time"
)

type LogoOutcome string

const (
	LogoAbsent   LogoOutcome = "absent"
	LogoLoaded   LogoOutcome = "loaded"
	LogoFailed   LogoOutcome = "failed"
	LogoTimedOut LogoOutcome = "timed_out"
)

var (
	ErrLogoTooLarge   = errors.New("logo exceeds size limit")
	ErrLogoFormat     = errors.New("logo must be a PNG, JPEG or GIF image")
	ErrLogoDataURL    = errors.New("logo data url is malformed")
	ErrLogoStatusCode = errors.New("logo fetch returned non-success status")
	ErrLogoAddress    = errors.New("logo host is not a public address")
)

// LogoSource is either inline image bytes or a URL to fetch.
type LogoSource struct {
	Data []byte
	URL  string
}

func (s LogoSource) Empty() bool {
	return len(s.Data) == 0 && strings.TrimSpace(s.URL) == ""
}

// ParseLogoSource accepts a data URL, an http(s) URL or bare base64.
func ParseLogoSource(value string) (LogoSource, error) {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return LogoSource{}, nil
	case strings.HasPrefix(value, "http://"), strings.HasPrefix(value, "https://"):
		return LogoSource{URL: value}, nil
	case strings.HasPrefix(value, "data:"):
		meta, payload, ok := strings.Cut(strings.TrimPrefix(value, "data:"), ",")
		if !ok || !strings.HasSuffix(meta, ";base64") {
			return LogoSource{}, ErrLogoDataURL
		}
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return LogoSource{}, fmt.Errorf("%w: %v", ErrLogoDataURL, err)
		}
		return LogoSource{Data: data}, nil
	default:
		data, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return LogoSource{}, fmt.Errorf("%w: %v", ErrLogoDataURL, err)
		}
		return LogoSource{Data: data}, nil
	}
}

// Logo is a decoded raster image ready to place on the page.
type Logo struct {
	Type   string
	Data   []byte
	Width  int
	Height int
}

// DecodeLogo sniffs the image format and dimensions.
func DecodeLogo(data []byte, maxBytes int64) (*Logo, error) {
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, ErrLogoTooLarge
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLogoFormat, err)
	}
	var imageType string
	switch format {
	case "png":
		imageType = "PNG"
	case "jpeg":
		imageType = "JPG"
	case "gif":
		imageType = "GIF"
	default:
		return nil, ErrLogoFormat
	}
	return &Logo{Type: imageType, Data: data, Width: cfg.Width, Height: cfg.Height}, nil
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher downloads logos. With PublicOnly set and no Client, every
// connection (redirects included) must go to a public unicast address; the
// check runs on the resolved IP, so DNS names pointing inward are refused too.
type HTTPFetcher struct {
	Client     *http.Client
	MaxBytes   int64
	PublicOnly bool
}

var publicClient = &http.Client{
	Transport: &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 10 * time.Second,
			Control: publicOnlyControl,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConns:        10,
		IdleConnTimeout:     30 * time.Second,
	},
}

var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

func publicOnlyControl(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrLogoAddress, address)
	}
	ip, err := netip.ParseAddr(host)
	if err != nil || !publicAddr(ip) {
		return fmt.Errorf("%w: %s", ErrLogoAddress, host)
	}
	return nil
}

func publicAddr(ip netip.Addr) bool {
	ip = ip.Unmap()
	switch {
	case !ip.IsValid(),
		ip.IsLoopback(),
		ip.IsPrivate(),
		ip.IsLinkLocalUnicast(),
		ip.IsLinkLocalMulticast(),
		ip.IsInterfaceLocalMulticast(),
		ip.IsMulticast(),
		ip.IsUnspecified(),
		sharedAddressSpace.Contains(ip):
		return false
	}
	return true
}

func (f HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
		if f.PublicOnly {
			client = publicClient
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrLogoStatusCode, resp.StatusCode)
	}
	reader := io.Reader(resp.Body)
	if f.MaxBytes > 0 {
		reader = io.LimitReader(resp.Body, f.MaxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if f.MaxBytes > 0 && int64(len(data)) > f.MaxBytes {
		return nil, ErrLogoTooLarge
	}
	return data, nil
}

type LogoResult struct {
	Logo    *Logo
	Outcome LogoOutcome
	Err     error
}

// LogoLoader resolves a LogoSource in one bounded step. The render waits for
// the result, and a failed or timed out load only drops the image.
type LogoLoader struct {
	fetcher  Fetcher
	timeout  time.Duration
	maxBytes int64
}

func NewLogoLoader(fetcher Fetcher, timeout time.Duration, maxBytes int64) *LogoLoader {
	if fetcher == nil {
		fetcher = HTTPFetcher{MaxBytes: maxBytes}
	}
	return &LogoLoader{fetcher: fetcher, timeout: timeout, maxBytes: maxBytes}
}

func (l *LogoLoader) Load(ctx context.Context, src LogoSource) LogoResult {
	if src.Empty() {
		return LogoResult{Outcome: LogoAbsent}
	}
	if len(src.Data) > 0 {
		return decoded(src.Data, l.maxBytes)
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	done := make(chan LogoResult, 1)
	go func() {
		data, err := l.fetcher.Fetch(ctx, src.URL)
		if err != nil {
			done <- LogoResult{Outcome: LogoFailed, Err: err}
			return
		}
		done <- decoded(data, l.maxBytes)
	}()

	select {
	case res := <-done:
		if res.Outcome == LogoFailed && errors.Is(res.Err, context.DeadlineExceeded) {
			res.Outcome = LogoTimedOut
		}
		return res
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return LogoResult{Outcome: LogoTimedOut, Err: ctx.Err()}
		}
		return LogoResult{Outcome: LogoFailed, Err: ctx.Err()}
	}
}

func decoded(data []byte, maxBytes int64) LogoResult {
	logo, err := DecodeLogo(data, maxBytes)
	if err != nil {
		return LogoResult{Outcome: LogoFailed, Err: err}
	}
	return LogoResult{Logo: logo, Outcome: LogoLoaded}
}
