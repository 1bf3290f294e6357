package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/phobologic/callsite/internal/model"
	"github.com/phobologic/callsite/internal/registry"
	"github.com/phobologic/callsite/internal/resolve"
	"github.com/phobologic/callsite/internal/toon"
)

// maxRequestSize bounds one serve request line.
const maxRequestSize = 64 << 20

// result is the JSON form of a resolution.
type result struct {
	CallSite *model.CallSite `json:"callSite"`
	Family   string          `json:"family,omitempty"`
	Error    string          `json:"error,omitempty"`
}

func familyOf(reg *registry.Registry, cs *model.CallSite) string {
	if f, ok := reg.Match(cs); ok {
		return f.Name
	}
	return ""
}

func newResolveCmd(a *app) *cobra.Command {
	var (
		offset int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "resolve [file]",
		Short: "Resolve the call enclosing a byte offset",
		Long: `Resolve reads a PHP or Blade buffer from file (or stdin when file is omitted
or "-") and prints the call enclosing --offset, the argument under the cursor
and the literal value of every argument.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) == 0 || args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}

			reg, err := a.registry()
			if err != nil {
				return err
			}
			cs := a.resolver(reg, nil).Resolve(string(data), offset)
			family := familyOf(reg, cs)

			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result{CallSite: cs, Family: family})
			}
			_, _ = fmt.Fprintln(a.stdout, toon.Encode(cs, family))
			return nil
		},
	}
	cmd.Flags().IntVarP(&offset, "offset", "o", 0, "cursor byte offset")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of TOON")
	_ = cmd.MarkFlagRequired("offset")
	return cmd
}

type request struct {
	Text   string `json:"text"`
	Offset int    `json:"offset"`
}

func newServeCmd(a *app) *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Answer JSON-lines resolve requests on stdin",
		Long: `Serve reads one {"text": ..., "offset": ...} object per line from stdin and
writes one {"callSite": ..., "family": ...} object per line to stdout until
stdin closes. A single resolver, and so a single result cache, serves the whole
session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}

			promReg := prometheus.NewRegistry()
			r := a.resolver(reg, promReg)

			if metricsAddr != "" {
				srv, err := serveMetrics(metricsAddr, promReg, a.logger)
				if err != nil {
					return err
				}
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(ctx)
				}()
			}

			return serveLines(cmd.InOrStdin(), a.stdout, r, reg)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

// serveLines answers requests until in is exhausted. Malformed lines and
// results that cannot be encoded get an error response and do not stop the
// loop.
func serveLines(in io.Reader, out io.Writer, r *resolve.Resolver, reg *registry.Registry) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRequestSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req request
		var resp result
		if err := json.Unmarshal(line, &req); err != nil {
			resp.Error = fmt.Sprintf("decoding request: %v", err)
		} else {
			resp.CallSite = r.Resolve(req.Text, req.Offset)
			resp.Family = familyOf(reg, resp.CallSite)
		}
		data, err := json.Marshal(resp)
		if err != nil {
			data, _ = json.Marshal(result{Error: fmt.Sprintf("encoding response: %v", err)})
		}
		if _, err := out.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("writing response: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading requests: %w", err)
	}
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) (*http.Server, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", slog.String("error", err.Error()))
		}
	}()
	logger.Info("serving metrics", slog.String("addr", ln.Addr().String()))
	return srv, nil
}
