package kodi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlayer is a scriptable JSON-RPC endpoint that records every method
// called against it.
type fakePlayer struct {
	mu      sync.Mutex
	methods []string

	playingFile   string   // file reported by Player.GetItem, "" when idle
	playlistFiles []string // files reported by Playlist.GetItems
}

func (f *fakePlayer) handler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JSONRPC string                 `json:"jsonrpc"`
		ID      string                 `json:"id"`
		Method  string                 `json:"method"`
		Params  map[string]interface{} `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.methods = append(f.methods, req.Method)
	f.mu.Unlock()

	var result interface{}
	switch req.Method {
	case "Player.GetItem":
		result = map[string]interface{}{
			"item": map[string]interface{}{"file": f.playingFile},
		}
	case "Playlist.GetItems":
		items := make([]map[string]interface{}, 0, len(f.playlistFiles))
		for _, file := range f.playlistFiles {
			items = append(items, map[string]interface{}{"file": file})
		}
		result = map[string]interface{}{"items": items}
	case "Player.GetActivePlayers":
		result = []map[string]interface{}{
			{"playerid": 1, "type": "video"},
		}
	default:
		result = "OK"
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      req.ID,
		"result":  result,
	})
}

func (f *fakePlayer) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.methods...)
}

func newFakePlayer(t *testing.T) (*fakePlayer, *Client) {
	t.Helper()
	fake := &fakePlayer{}
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	t.Cleanup(srv.Close)
	return fake, New(srv.URL, 5*time.Second)
}

func TestNowPlaying(t *testing.T) {
	fake, client := newFakePlayer(t)

	playing, file := client.NowPlaying()
	assert.False(t, playing)
	assert.Equal(t, "None", file)

	fake.playingFile = "smb://nas/tv/show/ep1.mkv"
	playing, file = client.NowPlaying()
	assert.True(t, playing)
	assert.Equal(t, "smb://nas/tv/show/ep1.mkv", file)
}

func TestUnreachablePlayerIsNotAnError(t *testing.T) {
	// Nothing listens here; every call must degrade to the idle answer
	// instead of panicking or blocking.
	client := New("http://127.0.0.1:1", time.Second)

	playing, file := client.NowPlaying()
	assert.False(t, playing)
	assert.Equal(t, "None", file)

	assert.False(t, client.ConfirmSuccessfulPlay("smb://nas/x.mkv"))
	assert.Empty(t, client.ActivePlayers())

	// Fire-and-forget actions must also survive.
	client.ClearPlaylist()
	client.SubsOn()
	client.SetAudioPassthrough(true)
}

func TestActivePlayers(t *testing.T) {
	_, client := newFakePlayer(t)
	assert.Equal(t, []int{1}, client.ActivePlayers())
}

func TestConfirmSuccessfulPlay(t *testing.T) {
	fake, client := newFakePlayer(t)

	// Not in the playlist at all.
	assert.False(t, client.ConfirmSuccessfulPlay("smb://nas/tv/a.mkv"))

	// In the playlist but nothing playing.
	fake.playlistFiles = []string{"smb://nas/tv/a.mkv"}
	assert.False(t, client.ConfirmSuccessfulPlay("smb://nas/tv/a.mkv"))

	// In the playlist and playing.
	fake.playingFile = "smb://nas/tv/a.mkv"
	assert.True(t, client.ConfirmSuccessfulPlay("smb://nas/tv/a.mkv"))
}

func TestAddAndPlayWhenIdleRebuildsPlaylist(t *testing.T) {
	fake, client := newFakePlayer(t)

	client.AddAndPlay("smb://nas/tv/a.mkv")

	require.Equal(t,
		[]string{"Player.GetItem", "Playlist.Clear", "Playlist.Add", "Player.Open"},
		fake.calls())
}

func TestAddAndPlayWhilePlayingAppends(t *testing.T) {
	fake, client := newFakePlayer(t)
	fake.playingFile = "smb://nas/tv/current.mkv"

	client.AddAndPlay("smb://nas/tv/next.mkv")

	require.Equal(t, []string{"Player.GetItem", "Playlist.Add"}, fake.calls())
}
