package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/msm/pkg/admin"
	"github.com/getmockd/msm/pkg/config"
	"github.com/getmockd/msm/pkg/msm"
	"github.com/getmockd/msm/pkg/recorder"
)

// DefaultPort is the port serve listens on unless --port says otherwise.
const DefaultPort = 4280

const shutdownTimeout = 30 * time.Second

type serveFlags struct {
	host        string
	port        int
	upstream    string
	adminPrefix string
	noAdmin     bool
}

// serveFlagVals is the package-level instance bound to cobra flags.
var serveFlagVals serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve mocks, or record an upstream with --upstream",
	Long: `Serve the definition files under the API directory.

With --upstream, requests are proxied to the upstream instead and every
response to a request under the API prefixes is saved as a definition file.
Existing files are kept unless --overwrite is set.

The runtime API (overrides, call log) is mounted on the same port under
--admin-prefix.`,
	Example: `  # Serve ./stubapi on the default port
  msm serve

  # Serve on a custom port with a config file
  msm serve --config msm.yaml --port 3000

  # Record a real backend into ./stubapi
  msm serve --upstream https://api.example.com --save-header x-request-id`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return runServe(cmd, cfg, &serveFlagVals)
	},
}

func init() {
	f := &serveFlagVals
	serveCmd.Flags().StringVar(&f.host, "host", "localhost", "Address to bind")
	serveCmd.Flags().IntVarP(&f.port, "port", "p", DefaultPort, "HTTP server port (0 picks a free port)")
	serveCmd.Flags().StringVar(&f.upstream, "upstream", "", "Proxy to this URL and record its responses")
	serveCmd.Flags().StringVar(&f.adminPrefix, "admin-prefix", admin.DefaultPrefix, "Path prefix of the runtime API")
	serveCmd.Flags().BoolVar(&f.noAdmin, "no-admin", false, "Do not mount the runtime API")
}

// serveContext holds everything runServe starts.
type serveContext struct {
	server   *msm.Server
	recorder *recorder.Recorder
	httpSrv  *http.Server
	listener net.Listener
	logger   *slog.Logger
}

func runServe(cmd *cobra.Command, cfg *config.Parsed, f *serveFlags) error {
	sctx, err := setupServe(cmd, cfg, f)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- sctx.httpSrv.Serve(sctx.listener) }()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "msm listening on http://%s\n", sctx.listener.Addr())
	fmt.Fprintf(out, "  definitions: %s\n", cfg.APIRoot())
	if f.upstream != "" {
		fmt.Fprintf(out, "  recording:   %s\n", f.upstream)
	}
	if !f.noAdmin {
		fmt.Fprintf(out, "  runtime API: %s\n", f.adminPrefix)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	fmt.Fprintln(out, "Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sctx.httpSrv.Shutdown(shutdownCtx); err != nil {
		sctx.logger.Warn("server shutdown error", "error", err)
	}
	if sctx.recorder != nil {
		sctx.recorder.Wait()
	}
	return nil
}

func setupServe(cmd *cobra.Command, cfg *config.Parsed, f *serveFlags) (*serveContext, error) {
	logger := cfg.NewLogger(cmd.ErrOrStderr())
	sctx := &serveContext{
		server: msm.NewFromParsed(cfg, msm.WithLogger(logger)),
		logger: logger,
	}

	var handler http.Handler
	if f.upstream != "" {
		proxy, err := newUpstreamProxy(f.upstream, logger)
		if err != nil {
			return nil, err
		}
		sctx.recorder = sctx.server.Recorder()
		handler = sctx.recorder.Middleware(proxy)
	} else {
		handler = sctx.server.Handler()
	}
	if !f.noAdmin {
		handler = admin.New(sctx.server, admin.WithLogger(logger), admin.WithPrefix(f.adminPrefix)).Middleware(handler)
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(f.host, strconv.Itoa(f.port)))
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	sctx.listener = ln
	sctx.httpSrv = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
	return sctx, nil
}

// newUpstreamProxy returns a reverse proxy to rawURL.
func newUpstreamProxy(rawURL string, logger *slog.Logger) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("invalid upstream URL %q: need http(s)://host", rawURL)
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("upstream request failed", "method", r.Method, "path", r.URL.RequestURI(), "error", err)
			recorder.Skip(r)
			w.WriteHeader(http.StatusBadGateway)
		},
	}, nil
}
