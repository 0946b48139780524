package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"chatrelay/client"
	"chatrelay/config"
	"chatrelay/render"
	"chatrelay/sound"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, stdin io.Reader, stdout *os.File) int {
	config.LoadEnv()
	cfg, err := config.LoadClient(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	slog.SetDefault(config.NewLogger(os.Stderr, cfg.LogLevel))

	player := sound.New("", stdout)
	if cfg.Sound != "" {
		if err := player.SetSound(cfg.Sound); err != nil {
			slog.Warn("notification sound not set", "path", cfg.Sound, "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := client.Dial(ctx, cfg.ServerURL)
	if err != nil {
		slog.Debug("dial failed", "url", cfg.ServerURL, "error", err)
		fmt.Fprintln(stdout, dialFailure(cfg.ServerURL, err))
		return 1
	}
	if err := config.SaveEndpoint(cfg.StateFile, cfg.ServerURL); err != nil {
		slog.Warn("endpoint not saved", "error", err)
	}

	input := bufio.NewReader(stdin)
	user, err := promptName(input, stdout)
	if err != nil {
		conn.Close()
		return 0
	}

	fmt.Fprintf(stdout, "\nWelcome, %s! Connected to %s.\n", user, cfg.ServerURL)
	fmt.Fprintln(stdout, "Type a message and press Enter. Use /help to list commands.")
	fmt.Fprintln(stdout)

	ctrl := client.New(conn, client.Options{
		User:     user,
		Input:    input,
		Display:  client.NewDisplay(stdout),
		Sound:    player,
		Renderer: render.New(stdout),
	})
	if err := ctrl.Run(ctx); err != nil {
		slog.Error("session ended", "error", err)
		fmt.Fprintf(stdout, "[ERROR] %v\n", err)
		return 1
	}
	return 0
}

// promptName asks until a non-blank name is entered. It fails only when
// input ends first.
func promptName(in *bufio.Reader, out io.Writer) (string, error) {
	for {
		fmt.Fprint(out, "Enter your name: ")
		line, err := in.ReadString('\n')
		if name := strings.TrimSpace(line); name != "" {
			return name, nil
		}
		if err != nil {
			return "", err
		}
	}
}

func dialFailure(url string, err error) string {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Sprintf("[ERROR] Connection refused. Make sure the server is running at %s.", url)
	}
	return fmt.Sprintf("[ERROR] Could not connect to %s: %v", url, err)
}
