package static

import (
	"io/fs"
	"strings"
	"testing"
)

func TestFS(t *testing.T) {
	if !HasDist() {
		t.Fatal("expected embedded dist directory")
	}
	for _, name := range []string{"css/site.css", "js/selfie.js", "icons/icon-camera.svg", "icons/icon-gallery.svg"} {
		if _, err := fs.Stat(FS(), name); err != nil {
			t.Errorf("missing embedded asset %s: %v", name, err)
		}
	}
}

// A server-rendered analysis error must not keep capture disabled; only a
// camera failure does.
func TestSelfieScript_RetryAfterAnalysisError(t *testing.T) {
	data, err := fs.ReadFile(FS(), "js/selfie.js")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	script := string(data)
	if strings.Contains(script, "if (errorBox.hidden) button.disabled = false") {
		t.Error("capture is re-enabled only when no error is shown")
	}
	if !strings.Contains(script, "if (!cameraFailed) button.disabled = false") {
		t.Error("capture should be re-enabled unless the camera failed")
	}
}
