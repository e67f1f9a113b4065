// Command courtsim is a terminal client for the courtroom simulation
// service: join a meeting with its code, argue the case over the
// microphone, and read the hearing's transcript and closing report.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	cli "github.com/spf13/pflag"

	log "log/slog"

	courtroom "github.com/justix/courtsim-core/core"
	"github.com/justix/courtsim-core/core/audio/miniaudio"
	"github.com/justix/courtsim-core/core/audio/portaudio"
	"github.com/justix/courtsim-core/core/session"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	apiURL := cli.StringP("api", "a", "", "Base URL of the case service (COURTSIM_API)")
	realtimeURL := cli.StringP("realtime", "r", "", "Websocket URL of the realtime service (COURTSIM_REALTIME)")
	captureBackend := cli.String("capture", "portaudio", "Capture backend: portaudio, miniaudio or none")
	logLevel := cli.StringP("log", "l", "warn", "Log level")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	godotenv.Load(*envFile)
	if *apiURL == "" {
		*apiURL = os.Getenv("COURTSIM_API")
	}
	if *realtimeURL == "" {
		*realtimeURL = os.Getenv("COURTSIM_REALTIME")
	}
	if *apiURL == "" || *realtimeURL == "" {
		fmt.Fprintln(os.Stderr, "courtsim: --api and --realtime (or COURTSIM_API / COURTSIM_REALTIME) are required")
		os.Exit(1)
	}

	options := []courtroom.CourtroomOption{
		courtroom.WithSessionClient(session.NewClient(*apiURL)),
		courtroom.WithRealtimeEndpoint(*realtimeURL),
	}

	playback, err := miniaudio.NewClient()
	if err != nil {
		log.Warn("playback unavailable, replies will be silent", "error", err)
	} else {
		options = append(options, courtroom.WithPlayer(playback))
	}

	switch *captureBackend {
	case "portaudio":
		recorder, err := portaudio.NewRecorder()
		if err != nil {
			log.Warn("capture unavailable, utterances cannot be recorded", "error", err)
		} else {
			options = append(options, courtroom.WithRecorder(recorder))
		}
	case "miniaudio":
		if playback == nil {
			log.Warn("capture unavailable, utterances cannot be recorded")
		} else {
			options = append(options, courtroom.WithRecorder(playback))
		}
	case "none":
	default:
		fmt.Fprintf(os.Stderr, "courtsim: unknown capture backend %q\n", *captureBackend)
		os.Exit(1)
	}

	state := &hearingState{status: "Enter a meeting code to join."}
	options = append(options, state.courtroomCallbacks()...)

	court := courtroom.NewCourtroom(options...)
	defer court.Close()

	program := tea.NewProgram(newModel(court, state), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "courtsim: %v\n", err)
		os.Exit(1)
	}
}
