package player

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// MPV implements the Player interface for mpv.
// Playback position is read over IPC via a Unix socket at a randomized temp path.
type MPV struct{}

func (m *MPV) Name() string { return "mpv" }

func (m *MPV) Available() bool { return available("mpv") }

// Play launches mpv on stdin and returns the final playback position.
func (m *MPV) Play(ctx context.Context, r io.Reader, title string) (float64, error) {
	// Randomized socket dir prevents symlink attacks
	socketDir, err := os.MkdirTemp("", "musicca-mpv-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp dir for mpv socket: %w", err)
	}
	defer os.RemoveAll(socketDir)

	socketPath := filepath.Join(socketDir, "socket")

	var (
		wg      sync.WaitGroup
		lastPos float64
	)
	started := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lastPos = trackPosition(ctx, socketPath)
		}()
	}

	err = run(ctx, "mpv", m.args(title, socketPath), r, started)
	wg.Wait()
	return lastPos, err
}

func (m *MPV) args(title, socketPath string) []string {
	return []string{
		"-",
		"--force-media-title=" + title,
		"--input-ipc-server=" + socketPath,
		"--no-video",
		"--really-quiet",
	}
}

// positionEvent is an mpv IPC property-change event.
type positionEvent struct {
	Event string  `json:"event"`
	Name  string  `json:"name"`
	Data  float64 `json:"data"`
}

// trackPosition observes mpv's time-pos until the socket closes.
func trackPosition(ctx context.Context, socketPath string) float64 {
	// Wait for socket to appear
	for i := 0; i < 50; i++ {
		if _, err := os.Stat(socketPath); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return 0
		case <-time.After(100 * time.Millisecond):
		}
	}

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return 0
	}
	defer conn.Close()
	return observePosition(conn)
}

// observePosition subscribes to time-pos on conn and returns the last
// positive value seen before conn is closed.
func observePosition(conn io.ReadWriter) float64 {
	cmd := map[string]interface{}{
		"command":    []interface{}{"observe_property", 1, "time-pos"},
		"request_id": 100,
	}
	data, _ := json.Marshal(cmd)
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		return 0
	}

	var lastPos float64
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var event positionEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		if event.Name == "time-pos" && event.Data > 0 {
			lastPos = event.Data
		}
	}
	return lastPos
}
