package listings

import (
	"errors"
	"sort"
	"strings"
	"time"
)

var (
	ErrMediaNotFound = errors.New("listings: media not found")
	ErrMediaURL      = errors.New("listings: media url is required")
	ErrTooManyImages = errors.New("listings: too many images")
	ErrTooManyVideos = errors.New("listings: too many videos")
)

const (
	MaxImages = 5
	MaxVideos = 2
)

type Image struct {
	ID        string
	URL       string
	SortOrder int
	IsPrimary bool
}

type Video struct {
	ID        string
	URL       string
	SortOrder int
}

// AddImage appends an image; the first image of a listing becomes primary.
func (l *Listing) AddImage(id, url string, now time.Time) (Image, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return Image{}, ErrMediaURL
	}
	if len(l.Images) >= MaxImages {
		return Image{}, ErrTooManyImages
	}
	img := Image{ID: id, URL: url, SortOrder: nextOrder(len(l.Images), l.imageOrders()), IsPrimary: len(l.Images) == 0}
	l.Images = append(l.Images, img)
	l.touch(now)
	return img, nil
}

func (l *Listing) RemoveImage(id string, now time.Time) error {
	idx := -1
	for i, img := range l.Images {
		if img.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrMediaNotFound
	}
	wasPrimary := l.Images[idx].IsPrimary
	l.Images = append(l.Images[:idx], l.Images[idx+1:]...)
	if wasPrimary && len(l.Images) > 0 {
		l.Images[0].IsPrimary = true
	}
	l.touch(now)
	return nil
}

// SetPrimaryImage clears the flag on every image and sets it on id.
func (l *Listing) SetPrimaryImage(id string, now time.Time) error {
	found := false
	for i := range l.Images {
		if l.Images[i].ID == id {
			found = true
		}
	}
	if !found {
		return ErrMediaNotFound
	}
	for i := range l.Images {
		l.Images[i].IsPrimary = l.Images[i].ID == id
	}
	l.touch(now)
	return nil
}

func (l *Listing) AddVideo(id, url string, now time.Time) (Video, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return Video{}, ErrMediaURL
	}
	if len(l.Videos) >= MaxVideos {
		return Video{}, ErrTooManyVideos
	}
	orders := make([]int, 0, len(l.Videos))
	for _, v := range l.Videos {
		orders = append(orders, v.SortOrder)
	}
	vid := Video{ID: id, URL: url, SortOrder: nextOrder(len(l.Videos), orders)}
	l.Videos = append(l.Videos, vid)
	l.touch(now)
	return vid, nil
}

func (l *Listing) RemoveVideo(id string, now time.Time) error {
	for i, v := range l.Videos {
		if v.ID == id {
			l.Videos = append(l.Videos[:i], l.Videos[i+1:]...)
			l.touch(now)
			return nil
		}
	}
	return ErrMediaNotFound
}

// SortedImages returns images ordered by sort order.
func (l *Listing) SortedImages() []Image {
	out := append([]Image(nil), l.Images...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

// PrimaryImageURL falls back to the first image, then to the legacy image url.
func (l *Listing) PrimaryImageURL() string {
	images := l.SortedImages()
	for _, img := range images {
		if img.IsPrimary {
			return img.URL
		}
	}
	if len(images) > 0 {
		return images[0].URL
	}
	return l.ImageURL
}

func (l *Listing) imageOrders() []int {
	out := make([]int, 0, len(l.Images))
	for _, img := range l.Images {
		out = append(out, img.SortOrder)
	}
	return out
}

func nextOrder(count int, existing []int) int {
	next := count
	for _, o := range existing {
		if o >= next {
			next = o + 1
		}
	}
	return next
}
