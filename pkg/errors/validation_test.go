package errors

import (
	"strings"
	"testing"
)

func TestValidateLabel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty", "", false},
		{"cover", "COVER_IMAGE", false},
		{"page slot", "PAGE_01_IMG_01", false},
		{"cyrillic", "ЗАГОЛОВОК", false},
		{"inner space", "cover title", false},

		{"too long", strings.Repeat("a", 300), true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
		{"tab", "foo\tbar", true},
		{"leading space", " COVER", true},
		{"trailing space", "COVER ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLabel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLabel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidLabel) {
				t.Errorf("ValidateLabel(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidLabel)
			}
		})
	}
}

func TestValidateFilePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"absolute", "/jobs/42/input/a.jpg", false},
		{"relative", "input/a.jpg", false},
		{"windows", `C:\jobs\42\a.jpg`, false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 5000), true},
		{"null byte", "a\x00.jpg", true},
		{"control char", "a\x01.jpg", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFilePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	if got := NormalizePath(`C:\jobs\42\template.idml`); got != "C:/jobs/42/template.idml" {
		t.Errorf("NormalizePath = %q", got)
	}
	if got := NormalizePath("/already/fine"); got != "/already/fine" {
		t.Errorf("NormalizePath = %q", got)
	}
}
