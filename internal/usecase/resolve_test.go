package usecase

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"docqa/internal/domain"
)

func newTestRegistry(t *testing.T) *SourceRegistry {
	t.Helper()
	r, err := NewSourceRegistry(1000, 100)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestResolveTypes(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name      string
		path      string
		kind      domain.PathKind
		requested []domain.SourceType
		want      []domain.SourceType
		wantErr   error
	}{
		{
			name: "file infers from extension",
			path: "notes.pdf", kind: domain.PathFile,
			want: []domain.SourceType{domain.SourcePDF},
		},
		{
			name: "extension is case-insensitive",
			path: "README.MD", kind: domain.PathFile,
			want: []domain.SourceType{domain.SourceMarkdown},
		},
		{
			name: "office document",
			path: "report.docx", kind: domain.PathFile,
			want: []domain.SourceType{domain.SourceDocx},
		},
		{
			name: "file with unknown extension",
			path: "budget.xlsx", kind: domain.PathFile,
			wantErr: domain.ErrUnsupportedType,
		},
		{
			name: "file without extension",
			path: "Makefile", kind: domain.PathFile,
			wantErr: domain.ErrUnsupportedType,
		},
		{
			name: "file with one requested type",
			path: "script.txt", kind: domain.PathFile,
			requested: []domain.SourceType{domain.SourcePython},
			want:      []domain.SourceType{domain.SourcePython},
		},
		{
			name: "file with repeated flag",
			path: "a.txt", kind: domain.PathFile,
			requested: []domain.SourceType{domain.SourceText, domain.SourceText},
			want:      []domain.SourceType{domain.SourceText},
		},
		{
			name: "file with two requested types",
			path: "a.txt", kind: domain.PathFile,
			requested: []domain.SourceType{domain.SourceText, domain.SourcePDF},
			wantErr:   domain.ErrAmbiguousType,
		},
		{
			name: "dir without types",
			path: "docs", kind: domain.PathDir,
			wantErr: domain.ErrNoTypeSpecified,
		},
		{
			name: "dir types deduplicated in registry order",
			path: "docs", kind: domain.PathDir,
			requested: []domain.SourceType{domain.SourceMarkdown, domain.SourceText, domain.SourcePDF, domain.SourceText},
			want:      []domain.SourceType{domain.SourceText, domain.SourcePDF, domain.SourceMarkdown},
		},
		{
			name: "unregistered requested type",
			path: "docs", kind: domain.PathDir,
			requested: []domain.SourceType{"rs"},
			wantErr:   domain.ErrUnsupportedType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ResolveTypes(tt.path, tt.kind, tt.requested)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestUnsupportedTypeListsRegistered(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.ResolveTypes("x.xlsx", domain.PathFile, nil)
	for _, want := range []string{"txt", "pdf", "py", "go", "md", "docx", "html"} {
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Errorf("error should list %q: %v", want, err)
		}
	}
}
