// Package storage persists avatar variants.
package storage

import (
	"fmt"
	"path"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/pkg/transcoder"
)

// variantName is the deterministic file name of one variant, e.g. "<id>_X800.jpg".
func variantName(accountID string, v transcoder.Variant, ext string) string {
	return fmt.Sprintf("%s_X%d%s", accountID, v.TargetWidth, ext)
}

func avatarRefs(prefix, accountID string, res transcoder.Result) entity.Avatar {
	return entity.Avatar{
		Large:  path.Join(prefix, variantName(accountID, res.Large, res.Extension)),
		Medium: path.Join(prefix, variantName(accountID, res.Medium, res.Extension)),
		Small:  path.Join(prefix, variantName(accountID, res.Small, res.Extension)),
	}
}
