// Command covid-qr-info decodes a vaccination certificate, verifies its
// signature and prints the record.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/mcp-covid-qr/internal/certificate"
	certerrors "github.com/a3tai/mcp-covid-qr/internal/errors"
	"github.com/a3tai/mcp-covid-qr/internal/pdf"
	"github.com/a3tai/mcp-covid-qr/internal/signature"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errUsage = errors.New("usage")

type options struct {
	path      string
	input     certificate.InputType
	format    string
	publicKey string
	backend   pdf.Backend
	logLevel  string
	version   bool
}

// parseArgs reads flags, then COVID_QR_* environment variables for the
// settings not given on the command line.
func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := pflag.NewFlagSet("covid-qr-info", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	sources := []struct {
		input     certificate.InputType
		name      string
		shorthand string
		usage     string
	}{
		{certificate.InputPDF, "pdf", "p", "read PDF file"},
		{certificate.InputImage, "image", "i", "read QR code from image"},
		{certificate.InputBase64, "base64", "b", "read base64-encoded payload"},
		{certificate.InputCiphertext, "encrypted", "e", "read encrypted binary payload"},
		{certificate.InputPlaintext, "plaintext", "r", "read plaintext record"},
	}
	paths := make([]*string, len(sources))
	for i, src := range sources {
		paths[i] = fs.StringP(src.name, src.shorthand, "", src.usage)
	}

	fs.String("format", certificate.FormatText, "output format (text, json)")
	fs.String("publickey", "", "issuer public key in PEM format (default: embedded key)")
	fs.String("pdf-backend", string(pdf.DefaultBackend), "PDF library used to extract images (pdfcpu, ledongthuc)")
	fs.String("loglevel", "info", "log level (debug, info, warn, error)")
	showVersion := fs.BoolP("version", "v", false, "print version information")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: covid-qr-info [FILE | -p PDF | -i IMAGE | -b BASE64 | -e ENCRYPTED | -r PLAINTEXT]\n\n")
		fmt.Fprintf(stderr, "Decodes a vaccination certificate and verifies its signature.\n")
		fmt.Fprintf(stderr, "FILE is read with its type detected from its content.\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, errUsage
		}
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("COVID_QR")
	v.AutomaticEnv()
	_ = v.BindPFlag("format", fs.Lookup("format"))
	_ = v.BindPFlag("publickey", fs.Lookup("publickey"))
	_ = v.BindPFlag("pdfbackend", fs.Lookup("pdf-backend"))
	_ = v.BindPFlag("loglevel", fs.Lookup("loglevel"))

	opts := &options{
		input:     certificate.InputAuto,
		format:    v.GetString("format"),
		publicKey: v.GetString("publickey"),
		logLevel:  v.GetString("loglevel"),
		version:   *showVersion,
	}
	if opts.version {
		return opts, nil
	}

	backend, err := pdf.ParseBackend(v.GetString("pdfbackend"))
	if err != nil {
		return nil, err
	}
	opts.backend = backend

	selected := 0
	for i, src := range sources {
		if *paths[i] != "" {
			selected++
			opts.path = *paths[i]
			opts.input = src.input
		}
	}
	if fs.NArg() > 1 {
		return nil, fmt.Errorf("expected at most one FILE argument, got %d", fs.NArg())
	}
	if fs.NArg() == 1 {
		selected++
		opts.path = fs.Arg(0)
		opts.input = certificate.InputAuto
	}

	switch {
	case selected == 0:
		return nil, errors.New("no input given")
	case selected > 1:
		return nil, errors.New("only one input may be given")
	}
	return opts, nil
}

// run executes the command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if errors.Is(err, errUsage) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprintf(stderr, "Run 'covid-qr-info --help' for usage.\n")
		return exitUsage
	}
	if opts.version {
		printVersion(stdout)
		return exitOK
	}

	logger := log.New(io.Discard, "", 0)
	if opts.logLevel == "debug" {
		logger = log.New(stderr, "", log.LstdFlags|log.Lshortfile)
	}

	verifier, err := signature.FromFile(opts.publicKey)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to load public key: %v\n", err)
		return exitError
	}

	service := certificate.NewService(verifier,
		certificate.WithPDFBackend(opts.backend),
		certificate.WithLogf(logger.Printf),
	)

	res, err := service.DecodeFile(opts.path, opts.input)
	if err != nil {
		logger.Printf("decode %s: %v", opts.path, err)
		fmt.Fprintln(stderr, describe(err))
		return exitError
	}

	if err := certificate.Write(stdout, opts.format, res); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	return exitOK
}

// describe turns a pipeline error into the message shown to the user.
func describe(err error) string {
	switch certerrors.KindOf(err) {
	case certerrors.KindCryptoFailed, certerrors.KindCryptoEmpty, certerrors.KindCryptoInvalidUTF8:
		return "Invalid cryptographic signature"
	case certerrors.KindQRNotFound:
		return fmt.Sprintf("Unable to find QR code: %v", err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "covid-qr-info\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
