package ws

import (
	"net/http"
	"testing"

	"knnect-svr/internal/hub"
)

// newParkedHandler upgrades connections and registers the client without
// starting its pumps, so tests can exercise the full-buffer path directly.
func newParkedHandler(t *testing.T, h *hub.Hub, upgraded chan<- struct{}) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		c := newClient(conn, h, testLogger())
		h.Register(c)
		close(upgraded)
	}
}
