package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pevans/newscapture/retry"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const folderMimeType = "application/vnd.google-apps.folder"

// DriveStore archives snapshots in Google Drive.
type DriveStore struct {
	svc    *drive.Service
	retry  retry.Config
	logger *slog.Logger
}

// NewDriveStore builds a Drive client. Pass option.WithTokenSource or
// option.WithHTTPClient to authenticate.
func NewDriveStore(ctx context.Context, logger *slog.Logger, opts ...option.ClientOption) (*DriveStore, error) {
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DriveStore{svc: svc, retry: retry.DefaultConfig(), logger: logger}, nil
}

// CreateFolder finds folder name under parentID or creates it. Being a
// find-or-create it is safe to retry.
func (s *DriveStore) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	var id string
	err := retry.Do(ctx, s.retry, "create folder", func() error {
		found, err := s.findFolder(ctx, name, parentID)
		if err != nil {
			return err
		}
		if found != "" {
			id = found
			return nil
		}

		folder := &drive.File{Name: name, MimeType: folderMimeType}
		if parentID != "" {
			folder.Parents = []string{parentID}
		}
		created, err := s.svc.Files.Create(folder).Fields("id").SupportsAllDrives(true).Context(ctx).Do()
		if err != nil {
			return err
		}
		id = created.Id
		s.logger.Info("archive: created capture folder", "name", name, "id", id)
		return nil
	}, retry.IsTransient)
	if err != nil {
		return "", fmt.Errorf("failed to create folder %q: %w", name, err)
	}
	return id, nil
}

func (s *DriveStore) findFolder(ctx context.Context, name, parentID string) (string, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(name), folderMimeType)
	if parentID != "" {
		q += fmt.Sprintf(" and '%s' in parents", escapeQuery(parentID))
	}
	list, err := s.svc.Files.List().
		Q(q).
		Fields("files(id, name)").
		PageSize(1).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	if len(list.Files) == 0 {
		return "", nil
	}
	return list.Files[0].Id, nil
}

// UploadFile uploads data in a single request. It is never retried.
func (s *DriveStore) UploadFile(ctx context.Context, data []byte, name, mimeType, parentID string) (string, error) {
	meta := &drive.File{Name: name}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}
	f, err := s.svc.Files.Create(meta).
		Media(bytes.NewReader(data), googleapi.ContentType(mimeType)).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return f.Id, nil
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

var _ Store = (*DriveStore)(nil)
