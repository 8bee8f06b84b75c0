package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	kong "github.com/alecthomas/kong"

	"github.com/tingly-dev/mcpchat/pkg/agent"
	"github.com/tingly-dev/mcpchat/pkg/formatter"
	"github.com/tingly-dev/mcpchat/pkg/mcp"
	"github.com/tingly-dev/mcpchat/pkg/model"
	"github.com/tingly-dev/mcpchat/pkg/model/anthropic"
	"github.com/tingly-dev/mcpchat/pkg/model/openai"
)

type CLI struct {
	Script string `arg:"" help:"Path to the tool-provider script (.py or .js)" type:"path"`

	Backend string        `name:"backend" help:"Model backend" enum:"openai,anthropic" default:"openai"`
	Model   string        `name:"model" help:"Model identifier" env:"MCPCHAT_MODEL" default:""`
	BaseURL string        `name:"base-url" help:"OpenAI-compatible endpoint base URL" env:"MCPCHAT_BASE_URL" default:""`
	APIKey  string        `name:"api-key" help:"Backend API key" env:"MCPCHAT_API_KEY" default:""`
	Timeout time.Duration `name:"timeout" help:"Per-call deadline for model and tool calls" default:"2m"`
	NoColor bool          `name:"no-color" help:"Disable styled output"`
	Debug   bool          `name:"debug" help:"Enable debug logging"`
}

func main() {
	cli := CLI{}
	cmd := kong.Parse(&cli,
		kong.Name("mcpchat"),
		kong.Description("Chat with a language model that can call tools from an MCP provider script"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	level := slog.LevelInfo
	if cli.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cmd.FatalIfErrorf(run(ctx, &cli, logger))
}

func run(ctx context.Context, cli *CLI, logger *slog.Logger) error {
	backend, err := newBackend(cli)
	if err != nil {
		return err
	}

	session, err := mcp.Connect(ctx, cli.Script, mcp.WithLogger(logger))
	if err != nil {
		return err
	}
	defer session.Close()

	loop, err := agent.New(agent.Config{
		Model:       backend,
		Session:     session,
		Logger:      logger,
		CallTimeout: cli.Timeout,
	})
	if err != nil {
		return err
	}

	console := formatter.NewConsole()
	console.NoColor = cli.NoColor

	info := session.ServerInfo()
	fmt.Println(console.Banner(info.ServerInfo.Name, info.ServerInfo.Version, backend.ModelName()))

	return repl(ctx, os.Stdin, loop, console)
}

// queryRunner is the slice of the agent the shell drives. It is
// satisfied by *agent.Agent.
type queryRunner interface {
	ProcessQuery(ctx context.Context, query string) (string, error)
}

// repl reads queries until quit, EOF or interrupt. A reader goroutine
// feeds lines into a channel so an interrupt at the prompt exits
// immediately instead of waiting for the next line.
func repl(ctx context.Context, in io.Reader, loop queryRunner, console *formatter.Console) error {
	scanner := bufio.NewScanner(in)
	lines := make(chan string)
	go func() {
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		close(lines)
	}()

	for {
		fmt.Print(console.Prompt())

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case line, ok = <-lines:
			if !ok {
				return scanner.Err()
			}
		}

		query := strings.TrimSpace(line)
		if query == "" {
			continue
		}
		if query == "quit" || query == "exit" {
			return nil
		}

		out, err := loop.ProcessQuery(ctx, query)
		if err != nil {
			// Query-level failures end the turn, not the session.
			fmt.Println(console.Error(err))
			continue
		}
		fmt.Println(console.Answer(out))
	}
}

func newBackend(cli *CLI) (model.ChatModel, error) {
	switch cli.Backend {
	case "openai":
		return openai.New(openai.Config{
			APIKey:  cli.APIKey,
			BaseURL: cli.BaseURL,
			Model:   cli.Model,
		}), nil
	case "anthropic":
		return anthropic.New(anthropic.Config{
			APIKey: cli.APIKey,
			Model:  cli.Model,
		}), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cli.Backend)
	}
}
