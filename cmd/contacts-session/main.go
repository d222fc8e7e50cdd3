// Command contacts-session logs in to the identity provider, opens a session against the contacts
// API, prints the current user and optionally calls an endpoint and logs out.
//
// Configuration comes from a JSON file (-config), a .env file and the environment, in increasing
// order of precedence. Flags override all of them.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/deploymenttheory/go-api-http-session/httpclient"
	"github.com/deploymenttheory/go-api-http-session/version"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type options struct {
	configPath   string
	envPath      string
	baseURL      string
	keycloakPath string
	username     string
	get          string
	logout       bool
	showVersion  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("contacts-session", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "JSON client configuration file")
	fs.StringVar(&opts.envPath, "env", ".env", "dotenv file loaded into the environment when present")
	fs.StringVar(&opts.baseURL, "base-url", "", "contacts application base URL (or CONTACTS_BASE_URL)")
	fs.StringVar(&opts.keycloakPath, "keycloak", "", "keycloak.json adapter file (or KEYCLOAK_CONFIG)")
	fs.StringVar(&opts.username, "user", "", "identity provider username (or KEYCLOAK_USERNAME)")
	fs.StringVar(&opts.get, "get", "", "endpoint to GET after loading the current user, relative to the base URL")
	fs.BoolVar(&opts.logout, "logout", false, "log out when done")
	fs.BoolVar(&opts.showVersion, "version", false, "print the version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

// loadConfig layers the JSON file, the dotenv file, the environment and the flags.
func loadConfig(opts *options) (*httpclient.ClientConfig, error) {
	if opts.envPath != "" {
		if err := godotenv.Load(opts.envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", opts.envPath, err)
		}
	}

	var config *httpclient.ClientConfig
	var err error
	if opts.configPath != "" {
		config, err = httpclient.LoadConfigFromFile(opts.configPath)
		if err != nil {
			return nil, err
		}
		httpclient.ApplyEnvOverrides(config)
	} else {
		config, err = httpclient.LoadConfigFromEnv()
		if err != nil {
			return nil, err
		}
	}

	if opts.baseURL != "" {
		config.Environment.BaseURL = opts.baseURL
	}
	if opts.keycloakPath != "" {
		config.Auth.KeycloakConfigPath = opts.keycloakPath
	}
	if opts.username != "" {
		config.Auth.Username = opts.username
	}
	return config, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	if opts.showVersion {
		_, err := fmt.Fprintln(stdout, version.UserAgent())
		return err
	}

	config, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if config.Auth.KeycloakConfigPath == "" {
		return errors.New("no identity provider configured, set -keycloak or KEYCLOAK_CONFIG")
	}

	client, err := httpclient.BuildClient(*config, nil)
	if err != nil {
		return err
	}
	defer client.Close()
	log := client.Logger

	if err := client.Ping(ctx); err != nil {
		return err
	}

	if err := client.Session.Bootstrap(ctx); err != nil {
		return err
	}

	user, err := client.Session.LoadCurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("loading current user: %w", err)
	}
	if err := writeJSON(stdout, user); err != nil {
		return err
	}

	if opts.get != "" {
		var body []byte
		resp, err := client.DoRequest(ctx, http.MethodGet, opts.get, nil, &body)
		if err != nil {
			return fmt.Errorf("GET %s: %w", opts.get, err)
		}
		log.Info("Request completed", zap.String("endpoint", opts.get), zap.Int("status_code", resp.StatusCode))
		if _, err := stdout.Write(append(body, '\n')); err != nil {
			return err
		}
	}

	if opts.logout {
		if err := client.Session.Logout(ctx); err != nil {
			return err
		}
		log.Info("Session closed")
	}

	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
