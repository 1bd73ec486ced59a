package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sir_venger/chunkd/pkg/uploadclient"
)

const (
	serverEnv = "CHUNKD_URL"
	tokenEnv  = "UPLOAD_TOKEN"
)

// chunkup загружает файл на сервер chunkd по частям.
func main() {
	server := flag.String("server", getenv(serverEnv, "http://localhost:8080"), "chunkd base URL")
	token := flag.String("token", os.Getenv(tokenEnv), "upload token (default $UPLOAD_TOKEN)")
	name := flag.String("name", "", "final file name (default: base name of the file)")
	chunkSize := flag.Int64("chunk-size", uploadclient.DefaultChunkSize, "chunk size in bytes")
	parallel := flag.Int("parallel", 4, "concurrent chunk uploads")
	quiet := flag.Bool("quiet", false, "do not render progress")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if *token == "" {
		fmt.Fprintln(os.Stderr, "token is required (-token or $UPLOAD_TOKEN)")
		os.Exit(2)
	}

	opts := uploadclient.Options{
		BaseURL:   *server,
		Token:     *token,
		ChunkSize: *chunkSize,
		Parallel:  *parallel,
		Progress:  os.Stdout,
	}
	if *quiet {
		opts.Progress = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	location, err := uploadclient.New(opts).UploadFile(ctx, flag.Arg(0), *name)
	if err != nil {
		var merr *uploadclient.MergeError
		if errors.As(err, &merr) {
			fmt.Fprintf(os.Stderr, "merge failed: %s (%s)\n", merr.Message, merr.Kind)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}

	fmt.Println(location)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
