package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"regexp"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/h91530/sns/model"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	ErrTooManyAttachments = errors.New("too many attachments")
	ErrAttachmentTooLarge = errors.New("attachment too large")

	unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// AttachmentStore stores inquiry attachments and signs download URLs.
// Implemented by R2Client; tests use an in-memory fake.
type AttachmentStore interface {
	UploadAttachments(ctx context.Context, userID string, files []*multipart.FileHeader) ([]model.Attachment, error)
	SignAttachments(ctx context.Context, attachments []model.Attachment) []SignedAttachment
	DeleteAttachments(ctx context.Context, paths []string) error
}

type SignedAttachment struct {
	model.Attachment
	URL string `json:"url"`
}

// UploadAttachments writes each file under <userID>/<uuid>-<name>. On any
// failure the objects stored so far are removed again so a rejected inquiry
// leaves nothing behind in the bucket.
func (r *R2Client) UploadAttachments(ctx context.Context, userID string, files []*multipart.FileHeader) ([]model.Attachment, error) {
	if len(files) == 0 {
		return nil, nil
	}

	maxCount := viper.GetInt("inquiry.max_attachments")
	maxSize := viper.GetInt64("inquiry.max_attachment_size")

	if len(files) > maxCount {
		return nil, ErrTooManyAttachments
	}

	var (
		uploaded []model.Attachment
		stored   []string
	)

	for _, fh := range files {
		if fh.Size == 0 {
			continue
		}

		if maxSize > 0 && fh.Size > maxSize {
			r.cleanupUploaded(ctx, stored)
			return nil, ErrAttachmentTooLarge
		}

		name := fh.Filename
		if name == "" {
			name = "attachment"
		}

		key := userID + "/" + uuid.NewString() + "-" + unsafeNameChars.ReplaceAllString(name, "-")

		contentType := fh.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		f, err := fh.Open()
		if err != nil {
			r.cleanupUploaded(ctx, stored)
			return nil, err
		}

		body, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			r.cleanupUploaded(ctx, stored)
			return nil, err
		}

		_, err = r.C.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      r.Bucket,
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String(contentType),
		})
		if err != nil {
			zap.L().Error("Attachment upload failed", zap.Error(err))
			r.cleanupUploaded(ctx, stored)
			return nil, err
		}

		stored = append(stored, key)
		uploaded = append(uploaded, model.Attachment{
			Name:        name,
			Path:        key,
			Size:        fh.Size,
			ContentType: contentType,
		})
	}

	return uploaded, nil
}

// SignAttachments attaches a presigned GET URL to each attachment. Entries
// that fail to sign are dropped from the response rather than failing it.
func (r *R2Client) SignAttachments(ctx context.Context, attachments []model.Attachment) []SignedAttachment {
	signed := make([]SignedAttachment, 0, len(attachments))
	ttl := time.Duration(viper.GetInt("inquiry.signed_url_ttl")) * time.Second

	for _, item := range attachments {
		if item.Path == "" {
			continue
		}

		req, err := r.Presign.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: r.Bucket,
			Key:    aws.String(item.Path),
		}, s3.WithPresignExpires(ttl))
		if err != nil {
			zap.L().Error("Attachment sign failed", zap.String("path", item.Path), zap.Error(err))
			continue
		}

		signed = append(signed, SignedAttachment{
			Attachment: item,
			URL:        req.URL,
		})
	}

	return signed
}

func (r *R2Client) DeleteAttachments(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	objects := make([]types.ObjectIdentifier, len(paths))
	for i, p := range paths {
		objects[i] = types.ObjectIdentifier{Key: aws.String(p)}
	}

	_, err := r.C.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: r.Bucket,
		Delete: &types.Delete{
			Objects: objects,
		},
	})

	return err
}

func (r *R2Client) cleanupUploaded(ctx context.Context, paths []string) {
	if err := r.DeleteAttachments(ctx, paths); err != nil {
		zap.L().Error("Attachment cleanup failed", zap.Error(err))
	}
}
