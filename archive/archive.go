// Package archive stores capture snapshots: dated capture folders and the
// PDF renderings of homepages and articles.
package archive

import (
	"context"
	"strings"
	"time"
	"unicode"
)

// PDFMimeType is the content type of every snapshot.
const PDFMimeType = "application/pdf"

const maxSlugLen = 60

// Store is where snapshots end up. Uploads are not idempotent: callers must
// not blindly re-upload after an error.
type Store interface {
	// CreateFolder returns the id of folder name under parentID, creating
	// it if needed.
	CreateFolder(ctx context.Context, name, parentID string) (string, error)
	// UploadFile stores data as name under parentID and returns its id.
	UploadFile(ctx context.Context, data []byte, name, mimeType, parentID string) (string, error)
}

// FolderName is the per-day capture folder, "2024-06-01 Capture".
func FolderName(t time.Time) string {
	return t.Format("2006-01-02") + " Capture"
}

// Slug keeps letters, digits, spaces and hyphens from title, turns spaces
// into underscores and truncates the result to 60 characters.
func Slug(title string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' {
			b.WriteRune(r)
		}
	}
	slug := strings.ReplaceAll(b.String(), " ", "_")
	if runes := []rune(slug); len(runes) > maxSlugLen {
		slug = string(runes[:maxSlugLen])
	}
	return slug
}

// SnapshotName builds "<site>_<slug>_<YYYY-MM-DD>.pdf". An empty title, or
// one with nothing left after slugging, names the homepage snapshot.
func SnapshotName(site, title string, t time.Time) string {
	slug := Slug(title)
	if strings.Trim(slug, "_-") == "" {
		slug = "homepage"
	}
	return site + "_" + slug + "_" + t.Format("2006-01-02") + ".pdf"
}

// HomepageName is the snapshot name of a site's homepage.
func HomepageName(site string, t time.Time) string {
	return SnapshotName(site, "", t)
}
