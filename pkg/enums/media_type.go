package enums

import "fmt"

// MediaType identifies a media slot on the video aggregate.
type MediaType string

const (
	MediaTypeVideo         MediaType = "video"
	MediaTypeTrailer       MediaType = "trailer"
	MediaTypeBanner        MediaType = "banner"
	MediaTypeThumbnail     MediaType = "thumbnail"
	MediaTypeThumbnailHalf MediaType = "thumbnail_half"
)

var validMediaTypes = []MediaType{
	MediaTypeVideo,
	MediaTypeTrailer,
	MediaTypeBanner,
	MediaTypeThumbnail,
	MediaTypeThumbnailHalf,
}

// IsValid checks whether the given type matches the canonical enum.
func (m MediaType) IsValid() bool {
	for _, candidate := range validMediaTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// RequiresEncoding reports whether attachments on this slot go through the
// external encoder. Image slots never do.
func (m MediaType) RequiresEncoding() bool {
	return m == MediaTypeVideo || m == MediaTypeTrailer
}

// ParseMediaType converts raw strings into MediaType.
func ParseMediaType(value string) (MediaType, error) {
	for _, candidate := range validMediaTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid media type %q", value)
}
