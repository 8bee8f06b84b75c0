// calcserver is a demo tool-provider speaking the stdio protocol. It
// exposes an addition tool, a model-backed math search tool, a greeting
// resource, and two prompt templates, mirroring the kind of provider
// mcpchat connects to.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	kong "github.com/alecthomas/kong"

	"github.com/tingly-dev/mcpchat/pkg/mcp"
	"github.com/tingly-dev/mcpchat/pkg/message"
	"github.com/tingly-dev/mcpchat/pkg/model"
	"github.com/tingly-dev/mcpchat/pkg/model/openai"
)

const searchUnavailable = "Sorry, the web search is currently unavailable."

type CLI struct {
	SearchModel string `name:"search-model" help:"Model backing the math_web_search tool" env:"CALCSERVER_MODEL" default:"qwen3:1.7b"`
	BaseURL     string `name:"base-url" help:"OpenAI-compatible endpoint base URL" env:"CALCSERVER_BASE_URL" default:""`
	Debug       bool   `name:"debug" help:"Enable debug logging"`
}

type addArgs struct {
	A int `json:"a"`
	B int `json:"b"`
}

type searchArgs struct {
	Query string `json:"query"`
}

func main() {
	cli := CLI{}
	cmd := kong.Parse(&cli,
		kong.Name("calcserver"),
		kong.Description("Demo calculator tool provider (stdio)"),
		kong.UsageOnError(),
	)

	level := slog.LevelInfo
	if cli.Debug {
		level = slog.LevelDebug
	}
	// Stdout carries the protocol; logs must go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cmd.FatalIfErrorf(run(ctx, &cli, logger))
}

func run(ctx context.Context, cli *CLI, logger *slog.Logger) error {
	searcher := openai.New(openai.Config{
		BaseURL: cli.BaseURL,
		Model:   cli.SearchModel,
	})

	toolkit := mcp.NewToolkit()
	if err := mcp.AddTool(toolkit, "add", "Add two numbers", func(ctx context.Context, args addArgs) (string, error) {
		return fmt.Sprintf("%d", args.A+args.B), nil
	}); err != nil {
		return err
	}
	if err := mcp.AddTool(toolkit, "math_web_search", "Search the web for information about math", func(ctx context.Context, args searchArgs) (string, error) {
		resp, err := searcher.Call(ctx, []*message.Msg{
			message.NewMsg(message.RoleUser, args.Query),
		}, &model.CallOptions{})
		if err != nil {
			logger.Error("search model call failed", "error", err)
			return searchUnavailable, nil
		}
		return resp.Content, nil
	}); err != nil {
		return err
	}

	server := mcp.NewServer("Calculator Server", "1.0.0",
		mcp.WithToolkit(toolkit),
		mcp.WithServerLogger(logger),
	)

	server.AddResource(mcp.Resource{
		URI:         "greeting://{name}",
		Name:        "get_greeting",
		Description: "Get a personalized greeting",
		MimeType:    "text/plain",
	}, "greeting://", func(uri string) (string, error) {
		name := uri[len("greeting://"):]
		return fmt.Sprintf("Hello, %s!", name), nil
	})

	server.AddPrompt(mcp.Prompt{
		Name:        "get_greeting_prompt",
		Description: "Generate a greeting prompt",
		Arguments: []mcp.PromptArgument{
			{Name: "name", Description: "Who to greet", Required: true},
			{Name: "style", Description: "friendly, formal or casual"},
		},
	}, func(arguments map[string]string) (string, error) {
		styles := map[string]string{
			"friendly": "Please write a warm, friendly greeting",
			"formal":   "Please write a formal, professional greeting",
			"casual":   "Please write a casual, relaxed greeting",
		}
		lead, ok := styles[arguments["style"]]
		if !ok {
			lead = styles["friendly"]
		}
		return fmt.Sprintf("%s for someone named %s.", lead, arguments["name"]), nil
	})

	server.AddPrompt(mcp.Prompt{
		Name:        "math_web_search_prompt",
		Description: "Generate helper prompt for web search.",
	}, func(arguments map[string]string) (string, error) {
		return "You are pretending to be a search engine. Answer the query presented with an answer about mathematics.", nil
	})

	logger.Info("starting server")
	return server.RunStdio(ctx, os.Stdin, os.Stdout)
}
