// Package media holds upload rules shared by listing and chat attachments.
package media

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	ErrUnsupportedType = errors.New("media: only image/* and video/* uploads are allowed")
	ErrTooLarge        = errors.New("media: file exceeds size limit")
	ErrEmpty           = errors.New("media: file is empty")
)

const MB = 1024 * 1024

type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Limits are per-flow size ceilings in bytes.
type Limits struct {
	MaxImage int64
	MaxVideo int64
}

var (
	ListingLimits = Limits{MaxImage: 2 * MB, MaxVideo: 20 * MB}
	ChatLimits    = Limits{MaxImage: 6 * MB, MaxVideo: 20 * MB}
)

// KindOf maps a MIME type to a media kind.
func KindOf(contentType string) (Kind, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return KindImage, true
	case strings.HasPrefix(ct, "video/"):
		return KindVideo, true
	default:
		return "", false
	}
}

// Validate checks type and size against the limits.
func (l Limits) Validate(contentType string, size int64) (Kind, error) {
	kind, ok := KindOf(contentType)
	if !ok {
		return "", ErrUnsupportedType
	}
	if size <= 0 {
		return "", ErrEmpty
	}
	limit := l.MaxImage
	if kind == KindVideo {
		limit = l.MaxVideo
	}
	if size > limit {
		return "", fmt.Errorf("%w: %s larger than %d MB", ErrTooLarge, kind, limit/MB)
	}
	return kind, nil
}

// Extension picks a file extension from the original name or the MIME subtype.
func Extension(filename, contentType string) string {
	if ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), "."); ext != "" {
		return ext
	}
	if idx := strings.Index(contentType, "/"); idx >= 0 {
		sub := contentType[idx+1:]
		if semi := strings.IndexAny(sub, ";+"); semi >= 0 {
			sub = sub[:semi]
		}
		if sub != "" {
			return strings.ToLower(sub)
		}
	}
	return "bin"
}
