package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"adds trailing slash", "https://x.com/a", "https://x.com/a/"},
		{"bare origin", "https://x.com", "https://x.com/"},
		{"drops query and fragment", "https://x.com/a/b?utm=1#top", "https://x.com/a/b/"},
		{"lowercases scheme and host", "HTTPS://Shop.Example.COM/Cart", "https://shop.example.com/Cart/"},
		{"strips default https port", "https://x.com:443/a", "https://x.com/a/"},
		{"strips default http port", "http://x.com:80/", "http://x.com/"},
		{"keeps custom port", "http://localhost:8080/app", "http://localhost:8080/app/"},
		{"ipv6 host", "http://[::1]/a", "http://[::1]/a/"},
		{"ipv6 host with port", "http://[::1]:3000", "http://[::1]:3000/"},
		{"relative path unchanged", "/pricing", "/pricing"},
		{"garbage unchanged", "not a url", "not a url"},
		{"invalid escape unchanged", "http://x.com/%zz", "http://x.com/%zz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeURL(tt.in))
		})
	}
}

func TestNormalizeURL_Idempotent(t *testing.T) {
	for _, in := range []string{
		"https://x.com/a",
		"https://x.com/a/?q=1",
		"HTTP://X.COM:80",
		"junk",
	} {
		once := NormalizeURL(in)
		assert.Equal(t, once, NormalizeURL(once), in)
	}
}
