package cmd

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/MeKo-Tech/terrasynth/internal/server"
	"github.com/MeKo-Tech/terrasynth/internal/terrain"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve terrain generation over HTTP",
	Long: `Serve on-demand terrain generation. GET /terrain returns the JSON
envelope, GET /terrain.png a rendered image. Requests carry the usual
seed/size/coordinate/algorithm query parameters.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().Int("max-concurrent-generations", runtime.NumCPU(), "Max concurrent terrain generations (default: number of CPUs)")
	serveCmd.Flags().Duration("generation-timeout", 30*time.Second, "Timeout per terrain generation")
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for served responses")
	serveCmd.Flags().Int("max-size", 1024, "Largest accepted grid size")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("serve.addr", "addr")
	mustBind("serve.max_concurrent_generations", "max-concurrent-generations")
	mustBind("serve.generation_timeout", "generation-timeout")
	mustBind("serve.cache_control", "cache-control")
	mustBind("serve.max_size", "max-size")
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")

	srv := server.New(terrain.New(), server.Config{
		MaxConcurrent: viper.GetInt("serve.max_concurrent_generations"),
		Timeout:       viper.GetDuration("serve.generation_timeout"),
		CacheControl:  viper.GetString("serve.cache_control"),
		MaxSize:       viper.GetInt("serve.max_size"),
	}, logger)

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Serving terrain generation", "addr", addr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
