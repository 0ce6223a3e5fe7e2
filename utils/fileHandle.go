package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"sdssn/models"
	"sdssn/services/certification"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const sniffLen = 3072

// sniff detects the content type from the head of the stream and returns a
// reader that still yields the full content.
func sniff(r io.Reader) (*mimetype.MIME, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, nil, err
	}
	head = head[:n]
	return mimetype.Detect(head), io.MultiReader(bytes.NewReader(head), r), nil
}

// LocalAssetStore writes uploads under Dir and serves them from BaseURL.
type LocalAssetStore struct {
	Dir     string
	BaseURL string
}

func (s *LocalAssetStore) Upload(_ context.Context, file certification.File, folder string) (*certification.StoredAsset, error) {
	mt, content, err := sniff(file.Reader)
	if err != nil {
		return nil, err
	}

	destDir := filepath.Join(s.Dir, filepath.FromSlash(folder))
	// Create destination directory if it doesn't exist
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(file.Name))
	if ext == "" {
		ext = mt.Extension()
	}
	publicID := uuid.NewString()
	newFilename := publicID + ext

	dst, err := os.Create(filepath.Join(destDir, newFilename))
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	size, err := io.Copy(dst, content)
	if err != nil {
		return nil, fmt.Errorf("write %s: %w", newFilename, err)
	}

	return &certification.StoredAsset{
		URL:      GetFileURL(s.BaseURL, path.Join(folder, newFilename)),
		PublicID: publicID,
		FileName: file.Name,
		FileType: mt.String(),
		Size:     size,
		HostedAt: models.HostedLocal,
	}, nil
}

func GetFileURL(baseURL, filePath string) string {
	if filePath == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(filePath, "/")
}
