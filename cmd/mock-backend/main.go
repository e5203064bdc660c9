// Command mock-backend runs a deterministic question answering server for
// local development and conformance testing. It picks answer spans with a
// lexical proximity heuristic instead of a model, so the same question and
// context always produce the same span and score.
//
// It speaks three wire formats:
//
//	POST /, POST /models/{model}  Hugging Face question-answering pipeline
//	POST /answers/                qna-transformers container
//	POST /v1/chat/completions     OpenAI chat completions (JSON answer)
//
// Configuration:
//
//	MOCK_PORT - Listen port (default: 8081)
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"
)

type options struct {
	Port string `short:"p" long:"port" env:"MOCK_PORT" default:"8081" description:"listen port"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	srv := &http.Server{
		Addr:              ":" + opts.Port,
		Handler:           newMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock backend starting", "port", opts.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock backend failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock backend shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /{$}", handlePipeline)
	mux.HandleFunc("POST /models/{model...}", handlePipeline)
	mux.HandleFunc("POST /answers/", handleAnswers)
	mux.HandleFunc("POST /v1/chat/completions", handleChatCompletions)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	return mux
}
