package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/scanplay/internal/models"
	"github.com/desertthunder/scanplay/internal/player"
	"github.com/desertthunder/scanplay/internal/services"
	"github.com/desertthunder/scanplay/internal/session"
	"github.com/desertthunder/scanplay/internal/shared"
	"github.com/urfave/cli/v3"
)

// Player runs the scanning player. Without --input it opens the terminal UI; with it, scans are read
// line by line and handled headless.
func (r *Runner) Player(ctx context.Context, cmd *cli.Command) error {
	if cmd.String("input") != "" {
		return r.headless(ctx, cmd)
	}
	return r.TUI(ctx, cmd)
}

// newController fills in the Web API, the Connect device picker, the browser and the optional session
// refresher around the caller's hooks.
func (r *Runner) newController(cmd *cli.Command, opts player.Options) (*player.Controller, error) {
	spotify := services.NewSpotifyService(r.config.Credentials.Spotify.APIURL, r.httpClient)

	opts.LoginURL = r.config.LoginURL()
	opts.PlayerName = r.config.Player.Name
	opts.Catalog = spotify
	opts.SDK = &player.ConnectSDK{Devices: spotify, Prefer: cmd.String("device")}
	opts.Navigator = shared.Browser{}
	opts.Audio = shared.Browser{}

	if cookie := cmd.String("session"); cookie != "" {
		jar, err := services.SessionJar(r.config.Server.BaseURL, session.RefreshCookie, cookie)
		if err != nil {
			return nil, err
		}
		client := &http.Client{Jar: jar, Timeout: r.httpClient.Timeout}
		opts.Refresher = services.NewRefreshClient(r.config.Server.BaseURL, client)
	}

	return player.New(opts)
}

// bootstrap obtains the first access token from --link or the session, connects the playback device
// and keeps the token fresh. Failures leave the player usable: the user can still log in by hand.
func (r *Runner) bootstrap(ctx context.Context, cmd *cli.Command, ctrl *player.Controller, logger *log.Logger) {
	refreshing := cmd.String("session") != ""

	if link := cmd.String("link"); link != "" {
		u, err := player.ParseLanding(link)
		if err != nil {
			logger.Warn("ignoring --link", "error", err)
		} else if _, ok := ctrl.CaptureToken(ctx, u); !ok {
			logger.Warn("--link carries no access_token")
		}
	} else if refreshing {
		if err := ctrl.RefreshNow(ctx); err != nil {
			logger.Warn("could not start a session from the refresh cookie", "error", err)
		}
	}

	if ctrl.Snapshot().State >= player.HasAccessToken {
		if err := ctrl.ConnectStreaming(ctx); err != nil {
			logger.Warn("no playback device yet", "error", err)
		}
	}

	if refreshing {
		if err := ctrl.StartRefresh(ctx); err != nil {
			logger.Warn("token refresh disabled", "error", err)
		}
	}
}

// headless feeds scans from a file, serial device or stdin through the controller, logging every status
// change. Resolved tracks are printed and, with --full or --preview, played.
func (r *Runner) headless(ctx context.Context, cmd *cli.Command) error {
	in, closeInput, err := r.openInput(cmd.String("input"))
	if err != nil {
		return err
	}
	defer closeInput()

	logger := shared.WithLogger(r.logger, "component", "player")
	full, preview := cmd.Bool("full"), cmd.Bool("preview")

	var ctrl *player.Controller
	ctrl, err = r.newController(cmd, player.Options{
		Scans: player.LineSource{R: in},
		OnStatus: func(s player.Snapshot) {
			if s.Status != "" {
				logger.Info(s.Status, "state", s.State, "tier", s.Tier)
			}
		},
		OnTrack: func(ctx context.Context, track *models.TrackReference) {
			r.writePlain("%s\n", track)

			var err error
			switch {
			case full:
				err = ctrl.PlayFull(ctx)
			case preview:
				err = ctrl.PlayPreview(ctx)
			}
			if err != nil {
				logger.Debug("playback not started", "error", err)
			}
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer ctrl.Close()

	r.bootstrap(ctx, cmd, ctrl, logger)

	err = ctrl.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Runner) openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return r.input, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open scan input: %v", shared.ErrInvalidArgument, err)
	}
	return f, func() { f.Close() }, nil
}
