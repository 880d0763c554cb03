package telegram

import (
	"net/http"
	"time"

	"github.com/m3rciful/imgbot/core/telegram/netutil"
)

// BuildHTTPClient returns an HTTP client tuned for Telegram API calls. File
// uploads and downloads share it, so the overall timeout leaves room for photos.
func BuildHTTPClient() *http.Client {
	return netutil.NewClient(netutil.ClientOptions{
		Timeout:               60 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		Retries:               3,
		Backoff:               2 * time.Second,
	})
}
