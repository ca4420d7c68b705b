package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dkeye/voicebridge/internal/adapters/rtc"
	"github.com/dkeye/voicebridge/internal/client"
)

var (
	serverURL string
	oggPath   string
	loop      bool
	recordDir string
	verbose   bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "softphone",
	Short: "Headless browser stand-in for the voice bridge",
	Long: `softphone joins the bridge conference exactly like the web page does:
it fetches /connectionInfo, connects to the RTC service, publishes a
microphone and waits for the server to subscribe it to the caller.

Examples:
  softphone --server http://localhost:5000
  softphone --ogg greeting.ogg --loop --record ./calls`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&serverURL, "server", "http://localhost:5000", "bridge server base URL")
	rootCmd.Flags().StringVar(&oggPath, "ogg", "", "Ogg/Opus file used as microphone (silence when empty)")
	rootCmd.Flags().BoolVar(&loop, "loop", false, "replay the Ogg file when it ends")
	rootCmd.Flags().StringVar(&recordDir, "record", "", "directory to record remote audio into")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func run(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	var mic rtc.Microphone = rtc.Silence{}
	if oggPath != "" {
		mic = rtc.OggFile{Path: oggPath, Loop: loop}
	}

	phone := client.New(client.NewHTTPInfoSource(serverURL), rtc.NewEndpoint(mic, recordDir))
	phone.OnChange(func(s client.State) {
		log.Info().Str("module", "softphone").Str("phase", s.Phase.String()).Bool("remote", s.Remote != nil).Msg(phone.Prompt())
	})

	if err := phone.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info().Str("module", "softphone").Msg("hanging up")
	return phone.Close()
}

