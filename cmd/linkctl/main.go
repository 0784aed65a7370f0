// Command linkctl mints development tokens and walks a user through linking
// a Roblox account against a running API.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sabflip/account-link/internal/client"
	"github.com/sabflip/account-link/internal/config"
	jwtinfra "github.com/sabflip/account-link/internal/infrastructure/jwt"
	"github.com/sabflip/account-link/internal/logging"
)

const usage = `usage: linkctl <command> [flags]

commands:
  token  -sub USER_ID [-email EMAIL]   mint a signed bearer token (needs JWT_PRIVATE_KEY_PATH)
  link   -token TOKEN                  link a Roblox account interactively
`

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat).With("component", "linkctl")

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "token":
		err = runToken(cfg, os.Args[2:], os.Stdout)
	case "link":
		err = runLink(ctx, cfg, os.Args[2:], os.Stdin, os.Stdout)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func runToken(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	sub := fs.String("sub", "", "internal user id (token subject)")
	email := fs.String("email", "", "email claim")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sub == "" {
		return fmt.Errorf("-sub is required")
	}
	p, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return err
	}
	tok, err := p.Sign(*sub, *email)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, tok)
	return nil
}

func runLink(ctx context.Context, cfg *config.Config, args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("link", flag.ContinueOnError)
	token := fs.String("token", os.Getenv("LINK_TOKEN"), "bearer token (defaults to $LINK_TOKEN)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *token == "" {
		return fmt.Errorf("-token is required")
	}

	ready := client.NewReady()
	api := client.NewAPIClient(cfg.APIBaseURL, cfg.ExternalTimeout*2)
	o := client.NewOrchestrator(api, ready, func(v client.View) { render(out, v) })

	go func() {
		u, err := url.Parse(cfg.APIBaseURL)
		if err == nil && (u.Scheme == "" || u.Host == "") {
			err = fmt.Errorf("API_BASE_URL %q is not an absolute URL", cfg.APIBaseURL)
		}
		ready.Resolve(err)
	}()

	if err := o.SignedIn(ctx, *token); err != nil {
		return err
	}

	lines := bufio.NewScanner(in)
	for {
		v := o.View()
		switch v.State {
		case client.StateLoggedIn:
			return nil
		case client.StateLoggedOut:
			return fmt.Errorf("could not load profile: %s", v.Message.Text)
		case client.StateEnterUsername:
			prompt := "Roblox username: "
			if v.Username != "" {
				prompt = fmt.Sprintf("Roblox username [%s]: ", v.Username)
			}
			name, ok := readLine(lines, out, prompt)
			if !ok {
				return io.ErrUnexpectedEOF
			}
			if name == "" {
				name = v.Username
			}
			if err := o.GenerateCode(ctx, name); err != nil {
				return err
			}
		case client.StateAwaitConfirm:
			fmt.Fprintf(out, "\nPut this code in your Roblox profile About section:\n\n    %s\n\n", v.Code)
			ans, ok := readLine(lines, out, "Press Enter once saved (or type 'new' for a new code): ")
			if !ok {
				return io.ErrUnexpectedEOF
			}
			if strings.EqualFold(ans, "new") {
				if err := o.GenerateCode(ctx, v.Username); err != nil {
					return err
				}
				continue
			}
			if err := o.ConfirmVerification(ctx); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unexpected state %s", v.State)
		}
	}
}

func readLine(s *bufio.Scanner, out io.Writer, prompt string) (string, bool) {
	fmt.Fprint(out, prompt)
	if !s.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.Text()), true
}

func render(out io.Writer, v client.View) {
	if v.Message.Text != "" {
		tag := "ok"
		if v.Message.IsError {
			tag = "error"
		}
		fmt.Fprintf(out, "[%s] %s\n", tag, v.Message.Text)
	}
	if v.State == client.StateLoggedIn && v.Profile != nil {
		fmt.Fprintf(out, "Linked as %s (balance %d)\n", v.Profile.Username, v.Profile.Balance)
	}
}
