package main

import (
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	webview "github.com/webview/webview_go"

	"showroomgo/pkg/config"
)

// Desktop shell for the showroom viewer. The backend (showroomgo) owns the
// model and persistence; this process is a window pointed at it.
func main() {
	// Webview requires main thread
	runtime.LockOSThread()

	// Ensure we run from the executable directory to find configs/ and .env
	exe, _ := os.Executable()
	if err := os.Chdir(filepath.Dir(exe)); err != nil {
		panic(err)
	}

	cfg, err := config.Load("configs/showroom.yaml")
	if err != nil {
		panic(err)
	}
	baseURL := "http://" + cfg.Server.Address

	w := webview.New(false)
	defer w.Destroy()

	// Block the context menu; right-drag is camera input in the viewer.
	w.Init(`
		window.addEventListener('contextmenu', function(e) {
			e.preventDefault();
		}, true);
	`)

	w.SetTitle("Showroom")
	w.SetSize(1280, 800, webview.HintNone)

	// Closing the window shuts the backend down so the final parameter
	// flush happens before the process tree exits.
	_ = w.Bind("requestShutdown", func() {
		go shutdownBackend(baseURL)
	})

	waitForBackend(baseURL)
	w.Navigate(baseURL)
	w.Run()

	shutdownBackend(baseURL)
}

// waitForBackend polls the health endpoint so the window does not show a
// connection error when the shell starts faster than the server.
func waitForBackend(baseURL string) {
	client := &http.Client{Timeout: 500 * time.Millisecond}
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(250 * time.Millisecond)
	}
}

func shutdownBackend(baseURL string) {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Post(baseURL+"/api/shutdown", "text/plain", nil)
	if err != nil {
		return
	}
	resp.Body.Close()
}
