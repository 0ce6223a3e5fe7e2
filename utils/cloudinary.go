package utils

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"sdssn/models"
	"sdssn/services/certification"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const cloudinaryUploadURL = "https://api.cloudinary.com/v1_1/%s/auto/upload"

// CloudinaryAssetStore performs signed uploads to Cloudinary.
type CloudinaryAssetStore struct {
	CloudName  string
	APIKey     string
	APISecret  string
	RootFolder string

	client *resty.Client
	now    func() time.Time
}

func NewCloudinaryAssetStore(cloudName, apiKey, apiSecret, rootFolder string) *CloudinaryAssetStore {
	return &CloudinaryAssetStore{
		CloudName:  cloudName,
		APIKey:     apiKey,
		APISecret:  apiSecret,
		RootFolder: rootFolder,
		client:     resty.New().SetTimeout(60 * time.Second).SetRetryCount(2),
		now:        time.Now,
	}
}

type cloudinaryUploadResponse struct {
	SecureURL        string `json:"secure_url"`
	PublicID         string `json:"public_id"`
	Format           string `json:"format"`
	ResourceType     string `json:"resource_type"`
	Bytes            int64  `json:"bytes"`
	OriginalFilename string `json:"original_filename"`
}

type cloudinaryErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// signParams signs the upload parameters as Cloudinary expects: sorted
// key=value pairs joined by & with the secret appended, SHA-1 hex encoded.
func signParams(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}

func (s *CloudinaryAssetStore) Upload(ctx context.Context, file certification.File, folder string) (*certification.StoredAsset, error) {
	mt, content, err := sniff(file.Reader)
	if err != nil {
		return nil, err
	}

	params := map[string]string{
		"folder":    strings.Trim(s.RootFolder+"/"+folder, "/"),
		"public_id": uuid.NewString(),
		"timestamp": strconv.FormatInt(s.now().Unix(), 10),
	}
	form := map[string]string{
		"api_key":   s.APIKey,
		"signature": signParams(params, s.APISecret),
	}
	for k, v := range params {
		form[k] = v
	}

	var out cloudinaryUploadResponse
	var apiErr cloudinaryErrorResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetFileReader("file", file.Name, content).
		SetFormData(form).
		SetResult(&out).
		SetError(&apiErr).
		Post(fmt.Sprintf(cloudinaryUploadURL, s.CloudName))
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("cloudinary upload: status %d: %s", resp.StatusCode(), apiErr.Error.Message)
	}

	return &certification.StoredAsset{
		URL:      out.SecureURL,
		PublicID: out.PublicID,
		FileName: file.Name,
		FileType: mt.String(),
		Size:     out.Bytes,
		HostedAt: models.HostedCloudinary,
	}, nil
}
