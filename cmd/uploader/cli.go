package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sir_venger/chunkmerge/pkg/uploadclient"
	"github.com/urfave/cli/v2"
)

var uploadCmd = &cli.Command{
	Name:  "upload",
	Usage: "Upload a file, sending only chunks the server does not have yet",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "file",
			Required: true,
			Usage:    "Path to the file to upload",
		},
		&cli.Int64Flag{
			Name:  "chunk-size",
			Value: 5 << 20,
			Usage: "Chunk size in bytes; must stay the same across resumed attempts",
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Value: 4,
			Usage: "Parallel chunk uploads",
		},
	},
	Action: func(ctx *cli.Context) error {
		c := uploadclient.New(ctx.String("server"), nil)

		res, err := uploadclient.UploadFile(ctx.Context, c, ctx.String("file"), uploadclient.UploadOptions{
			ChunkSize:   ctx.Int64("chunk-size"),
			Concurrency: ctx.Int("concurrency"),
			Progress:    os.Stdout,
		})
		if err != nil {
			return err
		}

		if res.AlreadyMerged {
			fmt.Printf("%s already on server\n", res.FileHash)
			return nil
		}
		fmt.Printf("%s merged: %d chunks, %d resumed\n", res.FileHash, res.Chunks, res.Skipped)
		return nil
	},
}

var verifyCmd = &cli.Command{
	Name:  "verify",
	Usage: "Show which chunks of a file the server already has",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "file",
			Required: true,
			Usage:    "Path to the local file",
		},
	},
	Action: func(ctx *cli.Context) error {
		path := ctx.String("file")
		fileHash, err := uploadclient.HashFile(path)
		if err != nil {
			return err
		}

		st, err := uploadclient.New(ctx.String("server"), nil).Verify(ctx.Context, fileHash, filepath.Base(path))
		if err != nil {
			return err
		}

		if !st.ShouldUpload {
			fmt.Printf("%s: complete\n", fileHash)
			return nil
		}
		fmt.Printf("%s: %d chunks staged\n", fileHash, len(st.ExistChunks))
		for _, id := range st.ExistChunks {
			fmt.Println(" ", id)
		}
		return nil
	},
}
