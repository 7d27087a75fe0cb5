package cmd

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kozaktomas/skinstric/internal/analysis"
	"github.com/kozaktomas/skinstric/internal/demographics"
	"go.uber.org/zap"
)

type fakePhaseTwo struct {
	calls  int
	result *analysis.Result
	err    error
}

func (f *fakePhaseTwo) PostPhaseTwo(ctx context.Context, dataURL string) (*analysis.Result, error) {
	f.calls++
	if !strings.HasPrefix(dataURL, "data:image/png;base64,") {
		return nil, errors.New("unexpected payload")
	}
	return f.result, f.err
}

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write png: %v", err)
	}
	return path
}

func TestAnalyzeFiles(t *testing.T) {
	dir := t.TempDir()
	good := writePNG(t, dir, "face.png")
	notImage := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notImage, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.png")

	client := &fakePhaseTwo{result: &analysis.Result{Data: analysis.Demographics{
		Race:   map[string]float64{"white": 0.3, "east asian": 0.7},
		Age:    map[string]float64{"20-29": 0.6, "30-39": 0.4},
		Gender: map[string]float64{"male": 0.2, "female": 0.8},
	}}}

	var done int
	results := analyzeFiles(context.Background(), client, []string{good, notImage, missing}, 0, zap.NewNop(), func() { done++ })

	if len(results) != 3 || done != 3 {
		t.Fatalf("got %d results, %d callbacks; want 3 each", len(results), done)
	}
	if client.calls != 1 {
		t.Errorf("client called %d times, want 1", client.calls)
	}
	if results[0].Error != "" {
		t.Fatalf("first file failed: %s", results[0].Error)
	}
	race := results[0].Tables["race"]
	if len(race) != 2 || race[0].Label != "east asian" || race[0].Pct != "70.00" {
		t.Errorf("race table = %+v", race)
	}
	if results[1].Error == "" || results[2].Error == "" {
		t.Errorf("expected errors for non-image and missing file, got %+v", results[1:])
	}
}

func TestAnalyzeFilesClientError(t *testing.T) {
	path := writePNG(t, t.TempDir(), "face.png")
	client := &fakePhaseTwo{err: &analysis.StatusError{Code: 500}}

	results := analyzeFiles(context.Background(), client, []string{path}, 0, zap.NewNop(), nil)
	if len(results) != 1 || results[0].Error == "" {
		t.Fatalf("expected one failed result, got %+v", results)
	}
	if results[0].Result != nil {
		t.Error("failed result should not carry data")
	}
}

func TestPrintAnalyses(t *testing.T) {
	results := []fileAnalysis{
		{File: "a.png", Tables: map[string][]demographics.Score{
			"race":   demographics.SortScores(map[string]float64{"white": 0.25, "black": 0.75}),
			"gender": demographics.SortScores(map[string]float64{"female": 1}),
		}},
		{File: "b.png", Error: "analysis request failed with status 502"},
	}

	var buf bytes.Buffer
	printAnalyses(&buf, results)
	out := buf.String()

	for _, want := range []string{"a.png", "black", "75.00%", "female", "100.00%", "b.png", "error: analysis request failed with status 502"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "black") > strings.Index(out, "white") {
		t.Errorf("rows not sorted by probability:\n%s", out)
	}
	if strings.Contains(out, "age") {
		t.Errorf("empty category should be skipped:\n%s", out)
	}
}

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := outputJSON(&buf, fileAnalysis{File: "a.png", Error: "boom"}); err != nil {
		t.Fatalf("outputJSON: %v", err)
	}
	want := "{\n  \"file\": \"a.png\",\n  \"error\": \"boom\"\n}\n"
	if buf.String() != want {
		t.Errorf("outputJSON = %q, want %q", buf.String(), want)
	}
}
