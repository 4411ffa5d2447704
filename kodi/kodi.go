// Package kodi is a thin JSON-RPC 2.0 client for a Kodi media player. Every
// action is one HTTP POST with a short timeout; the client keeps no state
// between calls.
package kodi

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// Client talks to one player endpoint. Construct a fresh one per request;
// it is cheap and carries no connection state.
type Client struct {
	url  string
	http *http.Client
}

// New returns a client for the JSON-RPC endpoint at address. Every request
// is bounded by timeout.
func New(address string, timeout time.Duration) *Client {
	return &Client{
		url:  address,
		http: &http.Client{Timeout: timeout},
	}
}

type result map[string]interface{}

// call sends one JSON-RPC request and decodes the response. A player that
// cannot be reached, or that answers garbage, collapses to the
// {"connection": false} sentinel so callers treat it as a normal outcome
// instead of an error.
func (c *Client) call(method string, params interface{}) result {
	body := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      "1",
		"method":  method,
	}
	if params != nil {
		body["params"] = params
	}

	buf, err := json.Marshal(body)
	if err != nil {
		return result{"result": map[string]interface{}{"connection": false}}
	}

	resp, err := c.http.Post(c.url, "application/json", bytes.NewReader(buf))
	if err != nil {
		return result{"result": map[string]interface{}{"connection": false}}
	}
	defer resp.Body.Close()

	var r result
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return result{"result": map[string]interface{}{"connection": false}}
	}
	return r
}

// NowPlaying reports whether the player is currently playing something, and
// if so which file.
func (c *Client) NowPlaying() (bool, string) {
	r := c.call("Player.GetItem", map[string]interface{}{
		"playerid":   1,
		"properties": []string{"file"},
	})
	res, ok := r["result"].(map[string]interface{})
	if !ok {
		return false, "None"
	}
	item, ok := res["item"].(map[string]interface{})
	if !ok {
		return false, "None"
	}
	file, ok := item["file"].(string)
	if !ok || file == "" {
		return false, "None"
	}
	return true, file
}

// ActivePlayers returns the ids of the player's currently active players
// (video, audio, picture). An unreachable player yields an empty list.
func (c *Client) ActivePlayers() []int {
	r := c.call("Player.GetActivePlayers", nil)
	list, ok := r["result"].([]interface{})
	if !ok {
		return nil
	}
	var ids []int
	for _, entry := range list {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		if id, ok := m["playerid"].(float64); ok {
			ids = append(ids, int(id))
		}
	}
	return ids
}

// ConfirmSuccessfulPlay checks that filename made it into the current
// playlist and that the player is actually playing.
func (c *Client) ConfirmSuccessfulPlay(filename string) bool {
	r := c.call("Playlist.GetItems", map[string]interface{}{
		"playlistid": 1,
		"properties": []string{"file"},
	})
	res, ok := r["result"].(map[string]interface{})
	if !ok {
		return false
	}
	items, ok := res["items"].([]interface{})
	if !ok {
		return false
	}

	found := false
	for _, entry := range items {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		if f, ok := m["file"].(string); ok && f == filename {
			found = true
			break
		}
	}
	if !found {
		return false
	}

	playing, _ := c.NowPlaying()
	return playing
}

// AddToPlaylist appends filename to the current playlist.
func (c *Client) AddToPlaylist(filename string) {
	r := c.call("Playlist.Add", map[string]interface{}{
		"playlistid": 1,
		"item":       map[string]interface{}{"file": filename},
	})
	if res, ok := r["result"].(string); ok && res == "OK" {
		log.Printf("Added %s to playlist successfully", filename)
	} else {
		log.Printf("PROBLEM: %s not added to playlist, try a different way", filename)
	}
}

// ClearPlaylist empties the current playlist.
func (c *Client) ClearPlaylist() {
	r := c.call("Playlist.Clear", map[string]interface{}{"playlistid": 1})
	log.Printf("Clearing playlist: %v", r["result"])
}

// PlayIt presses play, starting the first item in the current playlist.
func (c *Client) PlayIt() {
	r := c.call("Player.Open", map[string]interface{}{
		"item": map[string]interface{}{"playlistid": 1},
	})
	log.Printf("Playing: %v", r["result"])
}

// NextItem advances to the next item in the current playlist.
func (c *Client) NextItem() {
	r := c.call("Player.GoTo", map[string]interface{}{
		"playerid": 1,
		"to":       "next",
	})
	log.Printf("Skipping to next item: %v", r["result"])
}

// NextStream cycles to the next audio stream of the playing file.
func (c *Client) NextStream() {
	r := c.call("Player.SetAudioStream", map[string]interface{}{
		"playerid": 1,
		"stream":   "next",
	})
	log.Printf("Skipping to next stream: %v", r["result"])
}

// SubsOff disables subtitles.
func (c *Client) SubsOff() {
	r := c.call("Player.SetSubtitle", map[string]interface{}{
		"playerid": 1,
		"subtitle": "off",
		"enable":   false,
	})
	log.Printf("Dropping subtitles: %v", r["result"])
}

// SubsOn enables subtitles, using the first available subtitle.
func (c *Client) SubsOn() {
	r := c.call("Player.SetSubtitle", map[string]interface{}{
		"playerid": 1,
		"subtitle": "on",
		"enable":   true,
	})
	log.Printf("Enabling subtitles: %v", r["result"])
}

// SetAudioPassthrough toggles the audiooutput.passthrough setting.
func (c *Client) SetAudioPassthrough(enabled bool) {
	r := c.call("Settings.SetSettingValue", map[string]interface{}{
		"setting": "audiooutput.passthrough",
		"value":   enabled,
	})
	verb := "Disabling"
	if enabled {
		verb = "Enabling"
	}
	log.Printf("%s passthrough: %v", verb, r["result"])
}

// AddAndPlay queues filename and makes sure it will play: if something is
// already playing the file is appended, otherwise the playlist is rebuilt
// around it and playback started.
func (c *Client) AddAndPlay(filename string) {
	if playing, _ := c.NowPlaying(); playing {
		c.AddToPlaylist(filename)
		return
	}
	c.ClearPlaylist()
	c.AddToPlaylist(filename)
	c.PlayIt()
}
