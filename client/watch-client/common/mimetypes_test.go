package common

import "testing"

func TestMimeTypeForFile(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"clip.mp4", "video/mp4"},
		{"CLIP.MP4", "video/mp4"},
		{"footage.m4v", "video/mp4"},
		{"cam.avi", "video/x-msvideo"},
		{"cam.mkv", "video/x-matroska"},
		{"cam.webm", "video/webm"},
		{"cam.mov", "video/quicktime"},
		{"cam.mpeg", "video/mpeg"},
		{"/abs/path/to/clip.mp4", "video/mp4"},
		{"notes.txt", ""},
		{"archive.zip", ""},
		{"noextension", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := MimeTypeForFile(tt.path); got != tt.want {
				t.Errorf("MimeTypeForFile(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsVideoMimeType(t *testing.T) {
	if !IsVideoMimeType("video/mp4") {
		t.Error("Expected video/mp4 to be a video type")
	}
	if IsVideoMimeType("text/plain") {
		t.Error("Expected text/plain to be rejected")
	}
	if IsVideoMimeType("") {
		t.Error("Expected empty MIME type to be rejected")
	}
}
