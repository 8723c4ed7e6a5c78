package application

import (
	"context"
	"mime"
	"strings"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
)

// isImageType reports whether a declared content type names an image.
func isImageType(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mt, "image/")
}

func (s *Service) ingestAvatar(ctx context.Context, accountID string, up *AvatarUpload) (entity.Avatar, error) {
	if !isImageType(up.ContentType) {
		return entity.Avatar{}, ErrNotAnImage
	}
	res, err := s.Transcoder.Transcode(up.Data)
	if err != nil {
		return entity.Avatar{}, err
	}
	avatar, err := s.Avatars.Store(ctx, accountID, res)
	if err != nil {
		s.Logger.WithError(err).WithField("account_id", accountID).Error("store avatar failed")
		return entity.Avatar{}, err
	}
	return avatar, nil
}
