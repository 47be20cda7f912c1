package cli

import (
	"os"
	"time"

	"github.com/anonto42/warbler/internal/logger"
	"github.com/anonto42/warbler/pkg/liketoggle"
	"github.com/spf13/cobra"
)

// TokenEnv names the environment variable holding the default bearer token.
const TokenEnv = "WARBLER_TOKEN"

type globalOptions struct {
	baseURL string
	token   string
	timeout time.Duration
	verbose bool
}

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "warbler",
		Short:         "Warbler - command line client for a Warbler server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.baseURL, "base-url", liketoggle.DefaultBaseURL, "Warbler server address")
	flags.StringVar(&opts.token, "token", os.Getenv(TokenEnv), "bearer token (defaults to $"+TokenEnv+")")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log requests to stderr")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLikeCommand(opts))

	return cmd
}

func (o *globalOptions) client() *liketoggle.Client {
	clientOpts := []liketoggle.Option{liketoggle.WithTimeout(o.timeout)}
	if o.token != "" {
		clientOpts = append(clientOpts, liketoggle.WithBearerToken(o.token))
	}
	if o.verbose {
		clientOpts = append(clientOpts, liketoggle.WithLogger(logger.New("debug", true)))
	}
	return liketoggle.NewClient(o.baseURL, clientOpts...)
}
