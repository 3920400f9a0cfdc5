// Command packbit compresses and decompresses files with canonical
// Huffman coding, and can run the archive HTTP service.
//
//	packbit compress [-o outfile] filename
//	  Creates filename.pbk, or outfile with -o.
//
//	packbit decompress [-o outfile] filename.pbk
//	  Creates filename, or outfile with -o.
//
//	packbit serve -config packbit.yaml
//	  Runs the archive service described by the config file.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/packbit-io/packbit"
)

const usage = `Usage:
  packbit compress [-o outfile] filename
  packbit decompress [-o outfile] filename
  packbit serve -config packbit.yaml`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "compress":
		err = runCompress(os.Args[2:], false)
	case "decompress":
		err = runCompress(os.Args[2:], true)
	case "serve":
		err = runServe(os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "packbit: %v\n", err)
		os.Exit(1)
	}
}

func runCompress(args []string, decompress bool) error {
	fs := flag.NewFlagSet("compress", flag.ExitOnError)
	out := fs.String("o", "", "output file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("expected exactly one input file\n%s", usage)
	}
	in := fs.Arg(0)

	if decompress {
		dst := *out
		if dst == "" {
			dst = strings.TrimSuffix(in, ".pbk")
			if dst == in {
				return fmt.Errorf("cannot derive output name from %s, use -o", in)
			}
		}
		return packbit.DecompressFile(in, dst)
	}

	dst := *out
	if dst == "" {
		dst = in + ".pbk"
	}
	return packbit.CompressFile(in, dst)
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "packbit.yaml", "configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := packbit.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if cfg.HTTP == nil {
		cfg.HTTP = &packbit.HTTPConfig{}
	}
	cfg.HTTP.Enabled = true

	a, err := packbit.Open(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	slog.Info("packbit archive service running", "addr", a.ServerAddr())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info("shutting down")
	return nil
}
