package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00.000"},
		{90 * time.Second, "00:01:30.000"},
		{time.Hour + 23*time.Minute + 45*time.Second + 500*time.Millisecond, "01:23:45.500"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0"},
		{8000, "8"},
		{21500, "21.5"},
		{100, "0.1"},
	}

	for _, tt := range tests {
		if got := FormatSeconds(tt.ms); got != tt.want {
			t.Errorf("FormatSeconds(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"30000/1001", 30000.0 / 1001},
		{"0/0", 0},
		{"garbage", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := ParseFrameRate(tt.in); got != tt.want {
			t.Errorf("ParseFrameRate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestUniqueFilename(t *testing.T) {
	dir := t.TempDir()

	if got := UniqueFilename(dir, "video.mp4"); got != "video.mp4" {
		t.Errorf("empty dir should keep the name, got %q", got)
	}

	if err := os.WriteFile(filepath.Join(dir, "video.mp4"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	if got := UniqueFilename(dir, "video.mp4"); got != "video_1.mp4" {
		t.Errorf("first collision should suffix _1, got %q", got)
	}

	if err := os.WriteFile(filepath.Join(dir, "video_1.mp4"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	if got := UniqueFilename(dir, "video.mp4"); got != "video_2.mp4" {
		t.Errorf("second collision should suffix _2, got %q", got)
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir() error: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Errorf("directory was not created: %v", err)
	}

	// Creating it again is a no-op.
	if err := EnsureDir(dir); err != nil {
		t.Errorf("EnsureDir() on existing dir: %v", err)
	}
}

func TestCleanupFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.tmp")
	if err := os.WriteFile(a, nil, 0644); err != nil {
		t.Fatal(err)
	}

	CleanupFiles(a, filepath.Join(dir, "never-existed.tmp"))

	if _, err := os.Stat(a); !os.IsNotExist(err) {
		t.Error("file was not removed")
	}
}
