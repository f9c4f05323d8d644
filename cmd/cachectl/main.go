// Command cachectl inspects and edits a disk cache directory.
//
//	cachectl [flags] get KEY
//	cachectl [flags] set [-ttl 1h] KEY [VALUE]   (VALUE defaults to stdin)
//	cachectl [flags] rm KEY
//	cachectl [flags] sweep
//	cachectl [flags] clear
//	cachectl [flags] size
//	cachectl [flags] name KEY
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	platformerrors "github.com/jmgilman/go/errors"
	"golang.org/x/term"

	"github.com/IvanBrykalov/tiercache/config"
	"github.com/IvanBrykalov/tiercache/storage"
	"github.com/IvanBrykalov/tiercache/transformer"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitNotFound = 3
)

var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cachectl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		cfgPath = fs.String("config", "", "YAML config; its disk section is used")
		dir     = fs.String("dir", "", "parent directory (default: user cache dir)")
		name    = fs.String("name", "tiercache", "cache name")
		maxSize = fs.Int64("max-size", 0, "size cap in bytes applied by sweep (0 = unbounded)")
		verbose = fs.Bool("v", false, "debug logging")
	)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: cachectl [flags] get|set|rm|sweep|clear|size|name [args]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg := storage.DiskConfig{Name: *name, Directory: *dir, MaxSize: *maxSize}
	if *cfgPath != "" {
		f, err := config.Load(*cfgPath)
		if err != nil {
			logger.Error("load config", "err", err)
			return exitFailure
		}
		cfg = f.Disk
	}
	cfg.Logger = logger

	d, err := storage.NewDiskStorage[string, []byte](cfg, transformer.Data())
	if err != nil {
		logger.Error("open cache", "err", err)
		return exitFailure
	}

	err = dispatch(d, fs.Args(), stdin, stdout, stderr)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage):
		fs.Usage()
		return exitUsage
	case platformerrors.GetCode(err) == platformerrors.CodeNotFound:
		fmt.Fprintln(stderr, "not found")
		return exitNotFound
	default:
		fmt.Fprintln(stderr, "error:", err)
		return exitFailure
	}
}

func dispatch(d *storage.DiskStorage[string, []byte], args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "get":
		if len(rest) != 1 {
			return errUsage
		}
		e, err := d.Entry(rest[0])
		if err != nil {
			return err
		}
		if _, err := stdout.Write(e.Object); err != nil {
			return err
		}
		if isTerminal(stdout) {
			fmt.Fprintln(stdout)
		}
		if e.Expiry.IsExpired() {
			fmt.Fprintln(stderr, "warning: entry expired at", e.Expiry.Date().Format(time.RFC3339))
		}
		return nil

	case "set":
		sfs := flag.NewFlagSet("set", flag.ContinueOnError)
		sfs.SetOutput(stderr)
		ttl := sfs.String("ttl", "", "expiry: never, a duration or an RFC 3339 time (default: config)")
		if err := sfs.Parse(rest); err != nil {
			return errUsage
		}
		if sfs.NArg() < 1 || sfs.NArg() > 2 {
			return errUsage
		}
		var value []byte
		if sfs.NArg() == 2 {
			value = []byte(sfs.Arg(1))
		} else {
			b, err := io.ReadAll(stdin)
			if err != nil {
				return err
			}
			value = b
		}
		var exp []storage.Expiry
		if *ttl != "" {
			e, err := storage.ParseExpiry(*ttl)
			if err != nil {
				return err
			}
			exp = append(exp, e)
		}
		return d.SetObject(sfs.Arg(0), value, exp...)

	case "rm":
		if len(rest) != 1 {
			return errUsage
		}
		return d.RemoveObject(rest[0])

	case "sweep":
		if len(rest) != 0 {
			return errUsage
		}
		return d.RemoveExpiredObjects()

	case "clear":
		if len(rest) != 0 {
			return errUsage
		}
		return d.RemoveAll()

	case "size":
		if len(rest) != 0 {
			return errUsage
		}
		n, err := d.TotalSize()
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, n)
		return nil

	case "name":
		if len(rest) != 1 {
			return errUsage
		}
		fmt.Fprintln(stdout, d.MakeFilePath(rest[0]))
		return nil

	default:
		return errUsage
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
