// Command namer batch-renames local files with the same date/name prefix
// scheme the server uses, without needing a running instance.
package main

import (
	"archive/zip"
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/namerapp/namer/internal/domain"
	"github.com/namerapp/namer/internal/naming"
	"github.com/namerapp/namer/pkg/crypto"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	dir := flag.String("dir", "", "Directory containing the files to rename (required)")
	year := flag.Int("year", 0, "Prefix year (default: current year)")
	month := flag.Int("month", 0, "Prefix month (default: current month)")
	day := flag.Int("day", 0, "Include this day of month in the prefix")
	sender := flag.String("sender", "", "Include this sender name in the prefix")
	receiver := flag.String("receiver", "", "Receiver name prepended to every file")
	zipOut := flag.String("zip", "", "Bundle into a zip archive at this path instead of renaming in place")
	encrypt := flag.Bool("encrypt", false, "Encrypt the archive with a password (implies -zip)")
	decrypt := flag.String("decrypt", "", "Decrypt the given .enc archive and exit")
	dryRun := flag.Bool("dry-run", false, "Print planned names without touching anything")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("namer %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if *decrypt != "" {
		if err := runDecrypt(*decrypt); err != nil {
			logger.Error("decrypt failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "Error: --dir flag is required")
		fmt.Fprintln(os.Stderr, "Usage: namer --dir /path/to/files [--receiver NAME] [--zip out.zip]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	now := time.Now()
	cfg := domain.PrefixConfig{
		Year:  now.Year(),
		Month: int(now.Month()),
		Day:   now.Day(),
	}
	if *year > 0 {
		cfg.Year = *year
	}
	if *month > 0 {
		cfg.Month = *month
	}
	if *day > 0 {
		cfg.Day = *day
		cfg.IncludeDay = true
	}
	if strings.TrimSpace(*sender) != "" {
		cfg.SenderName = *sender
		cfg.IncludeSender = true
	}

	plan, err := planDir(*dir, cfg, *receiver)
	if err != nil {
		logger.Error("failed to plan renames", "error", err)
		os.Exit(1)
	}
	if len(plan) == 0 {
		logger.Info("nothing to do", "dir", *dir)
		return
	}

	if *dryRun {
		for _, p := range plan {
			fmt.Printf("%s -> %s\n", p.original, p.final)
		}
		return
	}

	if *zipOut != "" || *encrypt {
		out := *zipOut
		if out == "" {
			out = naming.ArchiveName(cfg)
		}
		password := ""
		if *encrypt {
			password, err = promptPasswordConfirmed()
			if err != nil {
				logger.Error("password prompt failed", "error", err)
				os.Exit(1)
			}
			if !strings.HasSuffix(out, crypto.FileExtension) {
				out += crypto.FileExtension
			}
		}
		if err := writeArchive(*dir, plan, out, password); err != nil {
			logger.Error("archive failed", "error", err)
			os.Exit(1)
		}
		logger.Info("archive written", "path", out, "files", len(plan))
		return
	}

	renamed := 0
	for _, p := range plan {
		if p.original == p.final {
			continue
		}
		src := filepath.Join(*dir, p.original)
		dst := filepath.Join(*dir, p.final)
		if err := os.Rename(src, dst); err != nil {
			logger.Error("rename failed", "file", p.original, "error", err)
			os.Exit(1)
		}
		renamed++
	}
	logger.Info("done", "renamed", renamed, "total", len(plan))
}

type rename struct {
	original string
	final    string
}

// planDir computes the final name for every regular file in dir. Names are
// resolved in lexical order so duplicate targets get stable numbering.
func planDir(dir string, cfg domain.PrefixConfig, receiver string) ([]rename, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	resolver := naming.NewCollisionResolver()
	plan := make([]rename, 0, len(names))
	for _, name := range names {
		base, ext := naming.SplitName(name)
		entry := &domain.FileEntry{
			NewBaseName:  base,
			Extension:    ext,
			ReceiverName: receiver,
		}
		plan = append(plan, rename{
			original: name,
			final:    resolver.Resolve(naming.FinalName(cfg, entry)),
		})
	}
	return plan, nil
}

// writeArchive bundles the planned files into a zip at out. A non-empty
// password encrypts the archive bytes.
func writeArchive(dir string, plan []rename, out, password string) error {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range plan {
		src, err := os.Open(filepath.Join(dir, p.original))
		if err != nil {
			return fmt.Errorf("open %s: %w", p.original, err)
		}
		fw, err := zw.Create(p.final)
		if err != nil {
			src.Close()
			return fmt.Errorf("create member %s: %w", p.final, err)
		}
		if _, err := io.Copy(fw, src); err != nil {
			src.Close()
			return fmt.Errorf("write member %s: %w", p.final, err)
		}
		src.Close()
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}

	data := buf.Bytes()
	if password != "" {
		encrypted, err := crypto.Encrypt(data, password)
		if err != nil {
			return fmt.Errorf("encrypt archive: %w", err)
		}
		data = encrypted
	}

	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	return nil
}

// runDecrypt decrypts path and writes the plain zip alongside it.
func runDecrypt(path string) error {
	password, err := promptPassword("Enter password: ")
	if err != nil {
		return err
	}

	plain, err := crypto.DecryptFile(path, password)
	if err != nil {
		return err
	}

	out := strings.TrimSuffix(path, crypto.FileExtension)
	if out == path {
		out = path + ".zip"
	}
	if err := os.WriteFile(out, plain, 0644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	fmt.Printf("decrypted to %s\n", out)
	return nil
}

// promptPasswordConfirmed prompts twice and requires both entries to match.
func promptPasswordConfirmed() (string, error) {
	password, err := promptPassword("Enter password: ")
	if err != nil {
		return "", err
	}
	if password == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}

// promptPassword prompts for a password without echoing.
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)

	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return "", err
		}
		fmt.Println()
		return string(password), nil
	}

	// Fallback for non-terminal input
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(password), nil
}
