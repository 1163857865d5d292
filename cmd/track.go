package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/scanplay/internal/formatter"
	"github.com/desertthunder/scanplay/internal/player"
	"github.com/desertthunder/scanplay/internal/services"
	"github.com/desertthunder/scanplay/internal/shared"
	"github.com/urfave/cli/v3"
)

// Track resolves one scan with the given access token and prints it in the requested format.
func (r *Runner) Track(ctx context.Context, cmd *cli.Command) error {
	scan := cmd.StringArg("scan")
	if scan == "" {
		return fmt.Errorf("%w: scan text (track link or URI) is required", shared.ErrMissingArgument)
	}

	id, err := player.ParseScan(scan)
	if err != nil {
		return err
	}
	if !player.ValidTrackID(id) {
		return fmt.Errorf("%w: invalid track id %q", shared.ErrInvalidArgument, id)
	}

	catalog := services.NewSpotifyService(r.config.Credentials.Spotify.APIURL, r.httpClient)
	track, err := catalog.Track(ctx, cmd.String("token"), id)
	if err != nil {
		return err
	}

	data, err := formatter.Render(track, cmd.String("format"))
	if err != nil {
		return err
	}
	if err := r.writePlain("%s", data); err != nil {
		return err
	}

	if path := cmd.String("artwork"); path != "" {
		if err := formatter.WriteArtwork(ctx, r.httpClient, track, path); err != nil {
			return err
		}
		r.logger.Info("artwork saved", "path", path)
	}

	if path := cmd.String("qr"); path != "" {
		if err := formatter.WriteQRCode(track, path, cmd.Int("qr-size")); err != nil {
			return err
		}
		r.logger.Info("QR code saved", "path", path, "link", formatter.ShareURL(track))
	}
	return nil
}
