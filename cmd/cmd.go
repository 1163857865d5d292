// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// serveCommand runs the credential exchanger.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the OAuth credential exchanger HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides config)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// playerCommand runs the scanning player.
func playerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "player",
		Aliases: []string{"play"},
		Usage:   "Scan track QR codes and play them",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "session",
				Usage:   "Value of the spotify_refresh_token cookie, used to mint access tokens",
				Sources: cli.EnvVars("SCANPLAY_SESSION"),
			},
			&cli.StringFlag{
				Name:    "link",
				Aliases: []string{"l"},
				Usage:   "Landing link or query carrying access_token",
			},
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Read scans line by line from a file or serial device instead of the terminal UI (- for stdin)",
			},
			&cli.StringFlag{
				Name:    "device",
				Aliases: []string{"d"},
				Usage:   "Preferred Spotify Connect device name",
			},
			&cli.BoolFlag{
				Name:  "full",
				Usage: "Headless mode: play the full track after each scan (Premium only)",
			},
			&cli.BoolFlag{
				Name:  "preview",
				Usage: "Headless mode: open the preview after each scan",
			},
		},
		Action: r.Player,
	}
}

// trackCommand resolves a single scan without playing it.
func trackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "track",
		Usage: "Resolve a track link or URI and print its metadata",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "scan"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "token",
				Aliases:  []string{"t"},
				Usage:    "Access token",
				Sources:  cli.EnvVars("SPOTIFY_ACCESS_TOKEN"),
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, markdown, csv or json",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:  "artwork",
				Usage: "Also download the cover art to this path",
			},
			&cli.StringFlag{
				Name:  "qr",
				Usage: "Also write a printable QR code PNG of the track link to this path",
			},
			&cli.IntFlag{
				Name:  "qr-size",
				Usage: "QR code edge length in pixels",
				Value: 512,
			},
		},
		Action: r.Track,
	}
}

// loginCommand opens the login route of the exchanger.
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Open the exchanger login page in the browser",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "print",
				Usage: "Only print the login URL",
			},
		},
		Action: r.Login,
	}
}

// configCommand manages the configuration file.
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Write an example config.toml",
				Action: r.ConfigInit,
			},
			{
				Name:  "show",
				Usage: "Print the effective configuration with secrets masked",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output JSON",
					},
				},
				Action: r.ConfigShow,
			},
		},
	}
}
