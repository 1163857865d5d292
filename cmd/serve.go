package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/scanplay/internal/server"
	"github.com/desertthunder/scanplay/internal/services"
	"github.com/desertthunder/scanplay/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the credential exchanger until the context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := *r.config
	if host := cmd.String("host"); host != "" {
		config.Server.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		config.Server.Port = port
	}

	if err := config.Validate(); err != nil {
		return err
	}

	exchanger, err := r.exchanger(&config)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		Config: &config,
		Tokens: exchanger,
		Logger: shared.WithLogger(r.logger, "component", "server"),
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	r.logger.Info("serving", "base_url", config.Server.BaseURL, "login", config.LoginURL(), "production", config.IsProduction())
	return srv.Run(ctx)
}

func (r *Runner) exchanger(config *shared.Config) (*services.Exchanger, error) {
	spotify := config.Credentials.Spotify
	return services.NewExchanger(services.ExchangerOptions{
		ClientID:     spotify.ClientID,
		ClientSecret: spotify.ClientSecret,
		RedirectURI:  config.RedirectURI(),
		Scopes:       spotify.Scopes,
		AuthURL:      spotify.AuthURL,
		TokenURL:     spotify.TokenURL,
		HTTPClient:   r.httpClient,
	})
}

// Login opens the exchanger's login route; the landing page then shows the link to paste into the player.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	loginURL := r.config.LoginURL()
	r.writePlain("%s\n", loginURL)

	if cmd.Bool("print") {
		return nil
	}
	if err := shared.OpenBrowser(loginURL); err != nil {
		r.logger.Warn("could not open a browser, open the URL above manually", "error", err)
	}
	return nil
}
