package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "uploader",
		Usage: "Resumable chunked uploads to a chunkmerge server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Value:   "http://localhost:3000",
				Usage:   "Base URL of the upload server",
				EnvVars: []string{"CHUNKMERGE_SERVER"},
			},
		},
		Commands: []*cli.Command{
			uploadCmd,
			verifyCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
