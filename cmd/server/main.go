package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Mr-Stark-RDJ/mr-guess-who/internal/config"
	"github.com/Mr-Stark-RDJ/mr-guess-who/internal/game"
	"github.com/Mr-Stark-RDJ/mr-guess-who/internal/ws"
	staticserver "github.com/Mr-Stark-RDJ/mr-guess-who/static"
)

const releaseVersion = "1.0.0"

func main() {
	cfg := config.Default()
	cobra.CheckErr(newCmd(&cfg).Execute())
}

func newCmd(cfg *config.Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("GUESSWHO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "mr-guess-who",
		Short:         "Commit-reveal guess-who server for two rival players per room.",
		Args:          cobra.ExactArgs(0),
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&cfg.Bind, "bind", "b", cfg.Bind, "address to bind to (env: GUESSWHO_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on (env: GUESSWHO_PORT)")
	fs.DurationVar(&cfg.RevealTimeout, "reveal-timeout", cfg.RevealTimeout, "time before a stalled reveal is re-requested, then forfeited; 0 disables (env: GUESSWHO_REVEAL_TIMEOUT)")
	fs.DurationVar(&cfg.RoomTTL, "room-ttl", cfg.RoomTTL, "time before idle rooms are dropped; 0 disables (env: GUESSWHO_ROOM_TTL)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "display additional output (env: GUESSWHO_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("mr-guess-who v{{.Version}}\n")

	return cmd
}

func serve(cfg *config.Config) error {
	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Gin setup with custom logger (skip /socket.io noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		zerologlog.Info().Str("path", path).Int("status", c.Writer.Status()).Dur("dur", time.Since(start)).Msg("http")
	})

	// Healthcheck
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})

	reg := game.NewRegistry()
	sock := ws.New(reg, *cfg)
	io := sock.Mount(r)
	defer io.Close()

	// Idle-room sweeper
	if cfg.RoomTTL > 0 {
		go func() {
			ticker := time.NewTicker(cfg.RoomTTL / 4)
			defer ticker.Stop()
			for range ticker.C {
				if n := reg.Sweep(cfg.RoomTTL); n > 0 {
					zerologlog.Info().Int("rooms", n).Msg("swept idle rooms")
				}
			}
		}()
	}

	// Invite QR code for a room, encoding the join URL.
	r.GET("/api/rooms/:code/qr", func(c *gin.Context) {
		code := game.Canonical(c.Param("code"))
		if code == "" {
			c.Status(http.StatusBadRequest)
			return
		}
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		url := scheme + "://" + c.Request.Host + "/?room=" + code
		png, err := qrcode.Encode(url, qrcode.Medium, 320)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Data(http.StatusOK, "image/png", png)
	})

	// Serve the embedded board shell for all other routes
	r.NoRoute(func(c *gin.Context) {
		staticserver.Handler().ServeHTTP(c.Writer, c.Request)
	})

	zerologlog.Info().Str("addr", cfg.ListenAddr()).Msg("listening")
	return r.Run(cfg.ListenAddr())
}
