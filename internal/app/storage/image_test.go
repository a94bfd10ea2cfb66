package storage

import (
	"testing"

	"peerchat/internal/pkg/errs"
)

func TestValidateImageSize(t *testing.T) {
	tests := []struct {
		name     string
		size     int64
		wantCode int
	}{
		{"valid size", 1024, 0},
		{"exactly at limit", MaxAvatarSize, 0},
		{"zero", 0, errs.ErrInvalidParams},
		{"negative", -1, errs.ErrInvalidParams},
		{"over limit", MaxAvatarSize + 1, errs.ErrFileSizeTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImageSize(tt.size)
			if tt.wantCode == 0 {
				if err != nil {
					t.Errorf("ValidateImageSize(%d) = %v, want nil", tt.size, err)
				}
				return
			}
			if err == nil || err.Code != tt.wantCode {
				t.Errorf("ValidateImageSize(%d) = %v, want code %d", tt.size, err, tt.wantCode)
			}
		})
	}
}

func TestValidateImageType(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		mimeType string
		wantOK   bool
	}{
		{"jpeg", "photo.jpg", "image/jpeg", true},
		{"jpeg long ext", "photo.jpeg", "image/jpeg", true},
		{"png", "face.png", "image/png", true},
		{"webp", "face.webp", "image/webp", true},
		{"gif", "loop.gif", "image/gif", true},
		{"uppercase mime accepted", "photo.jpg", "IMAGE/JPEG", true},
		{"disallowed mime", "doc.pdf", "application/pdf", false},
		{"mime extension mismatch", "photo.png", "image/jpeg", false},
		{"no extension", "photo", "image/jpeg", false},
		{"svg not allowed", "vector.svg", "image/svg+xml", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImageType(tt.fileName, tt.mimeType)
			if tt.wantOK && err != nil {
				t.Errorf("ValidateImageType(%q, %q) = %v, want nil", tt.fileName, tt.mimeType, err)
			}
			if !tt.wantOK && err == nil {
				t.Errorf("ValidateImageType(%q, %q) = nil, want error", tt.fileName, tt.mimeType)
			}
		})
	}
}
