package core

import (
	"errors"
	"testing"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name: "valid document",
			doc:  &Document{ID: "some-paper", Kind: SourceKindPDF},
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "empty id",
			doc:     &Document{Kind: SourceKindPDF},
			wantErr: ErrEmptyDocumentID,
		},
		{
			name:    "unknown kind",
			doc:     &Document{ID: "x", Kind: SourceKind("docx")},
			wantErr: ErrUnsupportedSourceKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateShelf(t *testing.T) {
	tests := []struct {
		name    string
		shelf   *Shelf
		wantErr error
	}{
		{
			name:  "valid shelf",
			shelf: &Shelf{ID: "research", Name: "Research"},
		},
		{
			name:    "nil shelf",
			shelf:   nil,
			wantErr: ErrInvalidShelf,
		},
		{
			name:    "empty name",
			shelf:   &Shelf{ID: "x"},
			wantErr: ErrEmptyShelfName,
		},
		{
			name:    "reserved id",
			shelf:   &Shelf{ID: UnsortedShelfID, Name: "Unsorted"},
			wantErr: ErrReservedShelfID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateShelf(tt.shelf)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateShelf() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateShelf() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTagsFromMetadata(t *testing.T) {
	tags := TagsFromMetadata("go, concurrency; Go, testing", "")
	want := []string{"go", "concurrency", "testing"}
	if len(tags) != len(want) {
		t.Fatalf("TagsFromMetadata() = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("TagsFromMetadata()[%d] = %q, want %q", i, tags[i], want[i])
		}
	}
}

func TestTagsFromMetadata_SubjectFallback(t *testing.T) {
	tags := TagsFromMetadata("", "distributed systems")
	if len(tags) != 1 || tags[0] != "distributed systems" {
		t.Errorf("TagsFromMetadata() = %v, want subject fallback", tags)
	}
}

func TestMergeTags(t *testing.T) {
	readings := map[string]Reading{
		"claude": {Tags: []string{"go", "pipelines", "Concurrency"}},
		"codex":  {Tags: []string{"testing", "go"}},
	}

	merged := MergeTags([]string{"concurrency"}, readings, []string{"claude", "codex"})

	want := []string{"concurrency", "go", "pipelines", "testing"}
	if len(merged) != len(want) {
		t.Fatalf("MergeTags() = %v, want %v", merged, want)
	}
	for i := range want {
		if merged[i] != want[i] {
			t.Errorf("MergeTags()[%d] = %q, want %q", i, merged[i], want[i])
		}
	}
}

func TestMergeTags_Cap(t *testing.T) {
	var meta []string
	for _, tag := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		meta = append(meta, tag)
	}
	readings := map[string]Reading{
		"claude": {Tags: []string{"i", "j", "k", "l", "m", "n"}},
	}

	merged := MergeTags(meta, readings, []string{"claude"})
	if len(merged) != 12 {
		t.Errorf("MergeTags() returned %d tags, want cap of 12", len(merged))
	}
}
