package contentstore

import (
	"strings"

	"techporium/app/models"
)

// Placeholder images used when a document has no image set.
const (
	PlaceholderPostImage   = "https://external-content.duckduckgo.com/iu/?u=https%3A%2F%2Fcdn.dribbble.com%2Fusers%2F247954%2Fscreenshots%2F2478890%2Fempty_state.jpg&f=1&nofb=1"
	PlaceholderAuthorImage = "https://i.ibb.co/K69hrSx/user.png"
)

const defaultCDNURL = "https://cdn.sanity.io"

// ImageBuilder turns image references into CDN URLs.
type ImageBuilder struct {
	projectID string
	dataset   string
	cdnURL    string
}

// NewImageBuilder creates an ImageBuilder. An empty cdnURL uses the public CDN.
func NewImageBuilder(projectID, dataset, cdnURL string) *ImageBuilder {
	if cdnURL == "" {
		cdnURL = defaultCDNURL
	}
	return &ImageBuilder{
		projectID: projectID,
		dataset:   dataset,
		cdnURL:    strings.TrimRight(cdnURL, "/"),
	}
}

// URL returns the CDN URL of an image and whether the image could be resolved.
func (b *ImageBuilder) URL(img *models.Image) (string, bool) {
	if img == nil || img.Asset == nil {
		return "", false
	}
	return b.AssetURL(img.Asset)
}

// AssetURL resolves an asset. An explicit URL wins over the reference.
func (b *ImageBuilder) AssetURL(asset *models.ImageAsset) (string, bool) {
	if asset == nil {
		return "", false
	}
	if asset.URL != "" {
		return asset.URL, true
	}

	// image-<id>-<width>x<height>-<format>
	ref := strings.TrimPrefix(asset.Ref, "image-")
	if ref == asset.Ref {
		return "", false
	}
	idx := strings.LastIndex(ref, "-")
	if idx <= 0 || idx == len(ref)-1 {
		return "", false
	}
	name, format := ref[:idx], ref[idx+1:]
	dimIdx := strings.LastIndex(name, "-")
	if dimIdx <= 0 || !strings.Contains(name[dimIdx+1:], "x") {
		return "", false
	}
	return b.cdnURL + "/images/" + b.projectID + "/" + b.dataset + "/" + name + "." + format, true
}

// Resolve returns the image URL, or fallback when the image is absent or its
// reference is malformed.
func (b *ImageBuilder) Resolve(img *models.Image, fallback string) string {
	if u, ok := b.URL(img); ok {
		return u
	}
	return fallback
}
