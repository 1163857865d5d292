// package formatter renders resolved tracks as text, markdown, CSV or JSON, and as printable QR codes
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/desertthunder/scanplay/internal/models"
	"github.com/desertthunder/scanplay/internal/shared"
)

// Format names accepted by [Render].
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatJSON     = "json"

	defaultQRSize = 512
)

// Render dispatches on format name.
func Render(track *models.TrackReference, format string) ([]byte, error) {
	if track == nil {
		return nil, fmt.Errorf("%w: no track", shared.ErrMissingArgument)
	}

	switch strings.ToLower(format) {
	case "", FormatText, "txt":
		return ToText(track), nil
	case FormatMarkdown, "md":
		return ToMarkdown(track, ""), nil
	case FormatCSV:
		return ToCSV(track)
	case FormatJSON:
		return shared.MarshalJSON(track, true)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (text, markdown, csv, json)", shared.ErrInvalidArgument, format)
	}
}

// ToText renders a track as a few plain lines.
func ToText(track *models.TrackReference) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Track: %s\n", track.Name))
	buf.WriteString(fmt.Sprintf("Artists: %s\n", track.ArtistLine()))
	if track.Album != "" {
		buf.WriteString(fmt.Sprintf("Album: %s\n", track.Album))
	}
	buf.WriteString(fmt.Sprintf("URI: %s\n", track.URI))
	buf.WriteString(fmt.Sprintf("Preview: %s\n", previewText(track)))

	return buf.Bytes()
}

// ToMarkdown renders a track with optional artwork. imageFilename overrides the remote artwork URL.
func ToMarkdown(track *models.TrackReference, imageFilename string) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", track.Name))

	image := imageFilename
	if image == "" {
		image = track.ImageURL
	}
	if image != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", image))
	}

	buf.WriteString(fmt.Sprintf("**Artists**: %s\n", track.ArtistLine()))
	if track.Album != "" {
		buf.WriteString(fmt.Sprintf("**Album**: %s\n", track.Album))
	}
	buf.WriteString(fmt.Sprintf("**URI**: `%s`\n", track.URI))
	if track.HasPreview() {
		buf.WriteString(fmt.Sprintf("**Preview**: [30s](%s)\n", track.PreviewURL))
	} else {
		buf.WriteString("**Preview**: none\n")
	}

	return buf.Bytes()
}

// ToCSV renders a header row and one record: ID, Name, Artists, Album, URI, Preview.
func ToCSV(track *models.TrackReference) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	records := [][]string{
		{"ID", "Name", "Artists", "Album", "URI", "Preview"},
		{track.ID, track.Name, track.ArtistLine(), track.Album, track.URI, track.PreviewURL},
	}
	if err := writer.WriteAll(records); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

func previewText(track *models.TrackReference) string {
	if track.HasPreview() {
		return track.PreviewURL
	}
	return "none"
}

// DownloadImage fetches the artwork at url.
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrMissingArgument)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// WriteArtwork downloads the track artwork to path.
func WriteArtwork(ctx context.Context, client *http.Client, track *models.TrackReference, path string) error {
	data, err := DownloadImage(ctx, client, track.ImageURL)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write artwork: %w", err)
	}
	return nil
}

// ShareURL is the open.spotify.com link a printed card encodes.
func ShareURL(track *models.TrackReference) string {
	return "https://open.spotify.com/track/" + track.ID
}

// QRCode encodes the track's share link as a size x size PNG.
func QRCode(track *models.TrackReference, size int) ([]byte, error) {
	if track == nil || track.ID == "" {
		return nil, fmt.Errorf("%w: track id is required", shared.ErrMissingArgument)
	}
	if size <= 0 {
		size = defaultQRSize
	}

	code, err := qr.Encode(ShareURL(track), qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("failed to scale QR code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("failed to write PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteQRCode writes the track's scan card to path.
func WriteQRCode(track *models.TrackReference, path string, size int) error {
	data, err := QRCode(track, size)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write QR code: %w", err)
	}
	return nil
}
