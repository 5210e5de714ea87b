// Command callcli joins a call room from the terminal: it logs into the
// signaling server, captures camera and microphone, and negotiates a peer
// connection over the room's signal log. Commands on stdin toggle media.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"

	"github.com/driftchat/call-signaling/config"
	"github.com/driftchat/call-signaling/internal/call"
	"github.com/driftchat/call-signaling/internal/client"
	"github.com/driftchat/call-signaling/internal/media"
)

func main() {
	var (
		server       = flag.String("server", "http://localhost:8080", "signaling server base URL")
		username     = flag.String("username", "", "username to log in as")
		password     = flag.String("password", "demo", "password")
		room         = flag.String("room", "", "room id to join (empty starts a call in the conversation)")
		conversation = flag.String("conversation", "", "conversation to call in when no room is given")
	)
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if *username == "" {
		logger.Fatal().Msg("-username is required")
	}

	cfg := config.Load()
	if *conversation != "" {
		cfg.Call.DefaultConversation = *conversation
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api := client.New(*server)
	userID, err := api.Login(ctx, *username, *password)
	if err != nil {
		logger.Fatal().Err(err).Msg("login failed")
	}
	logger.Info().Str("user_id", userID).Msg("logged in")

	engine, err := media.NewEngine()
	if err != nil {
		logger.Fatal().Err(err).Msg("media engine init failed")
	}

	controller := call.NewController(userID, api, api, engine, call.ControllerConfig{
		ICEServers:          cfg.Call.ICEServers,
		PollInterval:        cfg.Call.PollInterval,
		SignalListLimit:     cfg.Call.SignalListLimit,
		DefaultConversation: cfg.Call.DefaultConversation,
		RecordingDir:        cfg.Call.RecordingDir,
	})
	controller.OnRemoteTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		logger.Info().
			Str("kind", track.Kind().String()).
			Str("track_id", track.ID()).
			Msg("remote track")
	})

	roomID, err := controller.Join(ctx, *room)
	if err != nil {
		logger.Fatal().Err(err).Msg("join failed")
	}
	logger.Info().Str("room_id", roomID).Msg("joined call")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
		close(lines)
	}()

	fmt.Println("commands: m mic, c camera, s screen share, f flip camera, v record, r reconnect, i info, q quit")

	for {
		select {
		case <-sigCh:
			leave(controller, logger)
			return
		case line, ok := <-lines:
			if !ok {
				leave(controller, logger)
				return
			}
			switch line {
			case "m":
				fmt.Println("mic enabled:", controller.ToggleMic())
			case "c":
				fmt.Println("camera enabled:", controller.ToggleCam())
			case "s":
				report(logger, "toggle screen share", controller.ToggleScreenShare(ctx))
			case "f":
				report(logger, "flip camera", controller.FlipCamera(ctx))
			case "v":
				recording, err := controller.ToggleRecording()
				if err != nil {
					logger.Error().Err(err).Msg("toggle recording failed")
				} else {
					fmt.Println("recording:", recording)
				}
			case "r":
				report(logger, "reconnect", controller.Reconnect(ctx))
			case "i":
				printInfo(controller)
			case "q":
				leave(controller, logger)
				return
			case "":
			default:
				fmt.Println("unknown command:", line)
			}
		}
	}
}

func leave(controller *call.Controller, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	controller.Leave(ctx)
	logger.Info().Msg("left call")
}

func report(logger zerolog.Logger, action string, err error) {
	if err != nil {
		logger.Error().Err(err).Msg(action + " failed")
		return
	}
	logger.Info().Msg(action)
}

func printInfo(controller *call.Controller) {
	session := controller.Session()
	if session == nil {
		fmt.Println("not in a call")
		return
	}
	fmt.Printf("room=%s state=%s phase=%s mic=%v cam=%v recording=%v quality=%s duration=%s\n",
		controller.RoomID(), session.State(), session.Phase(),
		session.MicEnabled(), session.CamEnabled(), session.Recording(),
		session.Quality(), session.Duration().Round(time.Second))
}
