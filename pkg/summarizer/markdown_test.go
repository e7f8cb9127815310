package summarizer

import (
	"strings"
	"testing"
	"time"
)

func testSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		Source: SourceInfo{
			Name:    "clip.y4m",
			Width:   1280,
			Height:  720,
			FPS:     30000.0 / 1001,
			Frames:  300,
			Resized: 0,
		},
		Settings: Settings{
			Preset:      "medium",
			Tune:        "film",
			Profile:     "high",
			RateControl: "crf 23",
			Colorspace:  "i420",
			Container:   "mp4",
			Resolved:    "1280x720 i420 30000/1001fps keyint=250 bframes=3 threads=8 crf=23",
		},
		Output: OutputInfo{
			Path:        "out.mp4",
			FileSize:    2 * 1024 * 1024,
			HeaderBytes: 700,
			FramesIn:    300,
			FramesOut:   300,
			Keyframes:   2,
			MaxDelayed:  43,
			DurationMs:  10010,
			ElapsedMs:   2500,
		},
	}
}

func TestMarkdownFormatter_Format(t *testing.T) {
	result := NewMarkdownFormatter().Format(testSummary())

	checks := []string{
		"# Encode Summary",
		"2024-01-15T10:30:00Z",
		"clip.y4m",
		"1280x720",
		"29.970 fps",
		"| Preset | medium |",
		"| Rate Control | crf 23 |",
		"`1280x720 i420 30000/1001fps keyint=250 bframes=3 threads=8 crf=23`",
		"2.00 MB",
		"| Keyframes | 2 |",
		"| Max Delayed Frames | 43 |",
		"10010 ms",
		"120.0 fps",
	}
	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected output to contain %q", check)
		}
	}
}

func TestMarkdownFormatter_EmptyFields(t *testing.T) {
	result := NewMarkdownFormatter().Format(&Summary{GeneratedAt: time.Now()})

	if !strings.Contains(result, "| Preset | N/A |") {
		t.Error("expected N/A for missing preset")
	}
	if strings.Contains(result, "Resolved") {
		t.Error("resolved line should be omitted when empty")
	}
	if !strings.Contains(result, "0 bytes") {
		t.Error("expected zero file size")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512, "512 bytes"},
		{2048, "2.00 KB"},
		{1024 * 1024, "1.00 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestMarkdownFormatter_WithTranslator(t *testing.T) {
	translations := map[string]string{
		"Encode Summary": "エンコードサマリー",
		"Preset":         "プリセット",
		"N/A":            "なし",
	}
	translator := func(key string) string {
		if v, ok := translations[key]; ok {
			return v
		}
		return key
	}

	s := testSummary()
	s.Settings.Tune = ""
	result := NewMarkdownFormatter(WithTranslator(translator)).Format(s)

	for _, want := range []string{"# エンコードサマリー", "| プリセット | medium |", "| Tune | なし |"} {
		if !strings.Contains(result, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
}
