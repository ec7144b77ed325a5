package document

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 20, G: 125, B: 35, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fetcherFunc func(ctx context.Context, url string) ([]byte, error)

func (f fetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) { return f(ctx, url) }

func TestParseLogoSource(t *testing.T) {
	raw := []byte{1, 2, 3}
	encoded := base64.StdEncoding.EncodeToString(raw)

	src, err := ParseLogoSource("data:image/png;base64," + encoded)
	require.NoError(t, err)
	assert.Equal(t, raw, src.Data)

	src, err = ParseLogoSource(encoded)
	require.NoError(t, err)
	assert.Equal(t, raw, src.Data)

	src, err = ParseLogoSource(" https://cdn.example.com/logo.png ")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/logo.png", src.URL)

	src, err = ParseLogoSource("")
	require.NoError(t, err)
	assert.True(t, src.Empty())

	_, err = ParseLogoSource("data:image/png,not-base64")
	assert.ErrorIs(t, err, ErrLogoDataURL)

	_, err = ParseLogoSource("%%%")
	assert.ErrorIs(t, err, ErrLogoDataURL)
}

func TestDecodeLogo(t *testing.T) {
	data := pngBytes(t, 40, 20)

	logo, err := DecodeLogo(data, 0)
	require.NoError(t, err)
	assert.Equal(t, "PNG", logo.Type)
	assert.Equal(t, 40, logo.Width)
	assert.Equal(t, 20, logo.Height)

	_, err = DecodeLogo(data, 10)
	assert.ErrorIs(t, err, ErrLogoTooLarge)

	_, err = DecodeLogo([]byte("plain text"), 0)
	assert.ErrorIs(t, err, ErrLogoFormat)
}

func TestLogoLoaderOutcomes(t *testing.T) {
	good := pngBytes(t, 8, 8)

	t.Run("absent", func(t *testing.T) {
		res := NewLogoLoader(nil, time.Second, 0).Load(context.Background(), LogoSource{})
		assert.Equal(t, LogoAbsent, res.Outcome)
		assert.Nil(t, res.Logo)
	})

	t.Run("inline data", func(t *testing.T) {
		res := NewLogoLoader(nil, time.Second, 0).Load(context.Background(), LogoSource{Data: good})
		assert.Equal(t, LogoLoaded, res.Outcome)
		require.NotNil(t, res.Logo)
	})

	t.Run("fetched", func(t *testing.T) {
		fetcher := fetcherFunc(func(context.Context, string) ([]byte, error) { return good, nil })
		res := NewLogoLoader(fetcher, time.Second, 0).Load(context.Background(), LogoSource{URL: "https://x/logo.png"})
		assert.Equal(t, LogoLoaded, res.Outcome)
	})

	t.Run("fetch error", func(t *testing.T) {
		fetcher := fetcherFunc(func(context.Context, string) ([]byte, error) { return nil, errors.New("dns failure") })
		res := NewLogoLoader(fetcher, time.Second, 0).Load(context.Background(), LogoSource{URL: "https://x/logo.png"})
		assert.Equal(t, LogoFailed, res.Outcome)
		assert.Error(t, res.Err)
	})

	t.Run("undecodable body", func(t *testing.T) {
		fetcher := fetcherFunc(func(context.Context, string) ([]byte, error) { return []byte("<html>"), nil })
		res := NewLogoLoader(fetcher, time.Second, 0).Load(context.Background(), LogoSource{URL: "https://x/logo.png"})
		assert.Equal(t, LogoFailed, res.Outcome)
		assert.ErrorIs(t, res.Err, ErrLogoFormat)
	})

	t.Run("never resolves", func(t *testing.T) {
		release := make(chan struct{})
		t.Cleanup(func() { close(release) })
		fetcher := fetcherFunc(func(context.Context, string) ([]byte, error) {
			<-release
			return nil, errors.New("released")
		})

		start := time.Now()
		res := NewLogoLoader(fetcher, 30*time.Millisecond, 0).Load(context.Background(), LogoSource{URL: "https://x/logo.png"})
		assert.Equal(t, LogoTimedOut, res.Outcome)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("context aware fetcher times out", func(t *testing.T) {
		fetcher := fetcherFunc(func(ctx context.Context, _ string) ([]byte, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})
		res := NewLogoLoader(fetcher, 20*time.Millisecond, 0).Load(context.Background(), LogoSource{URL: "https://x/logo.png"})
		assert.Equal(t, LogoTimedOut, res.Outcome)
	})
}

func TestHTTPFetcher(t *testing.T) {
	good := pngBytes(t, 4, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/logo.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(good)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	data, err := HTTPFetcher{Client: srv.Client()}.Fetch(context.Background(), srv.URL+"/logo.png")
	require.NoError(t, err)
	assert.Equal(t, good, data)

	_, err = HTTPFetcher{Client: srv.Client()}.Fetch(context.Background(), srv.URL+"/missing.png")
	assert.ErrorIs(t, err, ErrLogoStatusCode)

	_, err = HTTPFetcher{Client: srv.Client(), MaxBytes: 8}.Fetch(context.Background(), srv.URL+"/logo.png")
	assert.ErrorIs(t, err, ErrLogoTooLarge)
}

func TestHTTPFetcherPublicOnlyRefusesInternalHosts(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write(pngBytes(t, 4, 4))
	}))
	defer srv.Close()

	_, err := HTTPFetcher{PublicOnly: true}.Fetch(context.Background(), srv.URL+"/logo.png")
	assert.ErrorIs(t, err, ErrLogoAddress)
	assert.Zero(t, hits)

	res := NewLogoLoader(HTTPFetcher{PublicOnly: true}, time.Second, 1<<20).Load(context.Background(), LogoSource{URL: srv.URL + "/logo.png"})
	assert.Equal(t, LogoFailed, res.Outcome)
	assert.Nil(t, res.Logo)
}

func TestPublicAddr(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{addr: "127.0.0.1", want: false},
		{addr: "::1", want: false},
		{addr: "10.1.2.3", want: false},
		{addr: "172.16.0.1", want: false},
		{addr: "192.168.1.1", want: false},
		{addr: "169.254.169.254", want: false},
		{addr: "100.64.0.1", want: false},
		{addr: "0.0.0.0", want: false},
		{addr: "::ffff:127.0.0.1", want: false},
		{addr: "fe80::1", want: false},
		{addr: "fd00::1", want: false},
		{addr: "93.184.216.34", want: true},
		{addr: "2606:4700::1111", want: true},
	}
	for _, tc := range tests {
		t.Run(tc.addr, func(t *testing.T) {
			assert.Equal(t, tc.want, publicAddr(netip.MustParseAddr(tc.addr)))
		})
	}
}
