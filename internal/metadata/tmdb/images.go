package tmdb

// ImageBaseURL is the TMDB image CDN root.
const ImageBaseURL = "https://image.tmdb.org/t/p"

const placeholderBaseURL = "https://via.placeholder.com"

// ImageKind selects the size table and placeholder for an asset.
type ImageKind int

// Image kinds.
const (
	ImagePoster ImageKind = iota
	ImageBackdrop
	ImageProfile
)

// ImageSize is a relative size; each kind maps it to a TMDB size code.
type ImageSize int

// Image sizes.
const (
	SizeSmall ImageSize = iota
	SizeMedium
	SizeLarge
	SizeOriginal
)

var sizeCodes = map[ImageKind][4]string{
	ImagePoster:   {"w185", "w342", "w500", "original"},
	ImageBackdrop: {"w300", "w780", "w1280", "original"},
	ImageProfile:  {"w45", "w185", "h632", "original"},
}

var placeholderDims = map[ImageKind]string{
	ImagePoster:   "342x513",
	ImageBackdrop: "1280x720",
	ImageProfile:  "185x278",
}

// SizeCode returns the TMDB size code, e.g. "w342" for a medium poster.
func SizeCode(kind ImageKind, size ImageSize) string {
	codes, ok := sizeCodes[kind]
	if !ok {
		codes = sizeCodes[ImagePoster]
	}
	if size < SizeSmall || size > SizeOriginal {
		size = SizeMedium
	}
	return codes[size]
}

// ImageURL returns {ImageBaseURL}/{size}{path}, or the kind's placeholder
// when path is empty.
func ImageURL(path string, size ImageSize, kind ImageKind) string {
	if path == "" {
		return PlaceholderURL(kind)
	}
	return ImageBaseURL + "/" + SizeCode(kind, size) + path
}

// PlaceholderURL returns the fixed "No Image" URL for a kind.
func PlaceholderURL(kind ImageKind) string {
	dims, ok := placeholderDims[kind]
	if !ok {
		dims = placeholderDims[ImagePoster]
	}
	return placeholderBaseURL + "/" + dims + "/666666/FFFFFF?text=No+Image"
}

// PosterURL returns a poster URL; medium is the usual card size.
func PosterURL(path string, size ImageSize) string {
	return ImageURL(path, size, ImagePoster)
}

// BackdropURL returns a backdrop URL; large is used for the hero banner.
func BackdropURL(path string, size ImageSize) string {
	return ImageURL(path, size, ImageBackdrop)
}

// ProfileURL returns a cast/crew profile URL.
func ProfileURL(path string, size ImageSize) string {
	return ImageURL(path, size, ImageProfile)
}
