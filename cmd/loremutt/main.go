package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/daviddao/loremutt/internal/config"
	"github.com/daviddao/loremutt/internal/display"
	"github.com/daviddao/loremutt/internal/gitrepo"
	"github.com/daviddao/loremutt/internal/history"
	"github.com/daviddao/loremutt/internal/lore"
	"github.com/daviddao/loremutt/internal/mbox"
	"github.com/daviddao/loremutt/internal/muttrc"
	"github.com/daviddao/loremutt/internal/query"
)

// Version is set via ldflags at build time.
var Version = "dev"

// force is an explicit result-shaping override.
type force int

const (
	forceNone force = iota
	forceThreads
	forceResults
)

var (
	cfgFile      string
	searchMode   = query.ModePatchID
	queryPrefix  string
	forceMode    = forceNone
	flagTags     bool
	flagReverse  bool
	flagReader   string
	flagRaw      bool
	flagInsecure bool
	flagNoMuttrc bool
	flagKeepTmp  bool
	flagDebug    bool
)

// setTo is a value-less flag that stores a fixed value when seen, so later
// mutually exclusive flags override earlier ones in argument order.
type setTo[T any] struct {
	dst *T
	val T
}

func (s setTo[T]) Set(string) error { *s.dst = s.val; return nil }
func (s setTo[T]) String() string   { return "" }
func (s setTo[T]) Type() string     { return "" }

const longHelp = `Loremutt resolves a git commit (or a raw query) into a search against the
lore.kernel.org public-inbox archive, fetches the matching mailbox,
deduplicates it, and opens it in mutt/neomutt.

By default the operand is a commit: loremutt looks it up in the current
directory and a few well-known kernel checkouts, computes its patch-id, and
pulls every archived copy of the patch with its full discussion threads.

Query language (public-inbox):
  s:        match within the Subject header       s:"net: fix leak"
  b:        match within the message body
  f:        match the From header                 f:torvalds
  t:, c:    match To/Cc headers
  nq:       match non-quoted text only
  dfn:      filename from a diff                  dfn:drivers/net/veth.c
  dfhh:     diff hunk header (function context)   dfhh:veth_xmit
  dfctx:    changed lines with their context
  patchid:  git patch-id --stable fingerprint
  d:        date range                            d:last.week..

An operand containing ':' is always treated as a raw query.`

var rootCmd = &cobra.Command{
	Use:   "loremutt [flags] COMMIT|QUERY...",
	Short: "Browse lore.kernel.org search results for a commit in mutt",
	Long:  longHelp,
	Example: `  loremutt 1a2b3c4d              # every archived copy of the patch, full threads
  loremutt -s 1a2b3c4d           # search by the commit subject instead
  loremutt -q 's:"net: fix leak"'
  loremutt -f drivers/net/veth.c # messages whose diffs touch this file`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("loremutt version %s\n", Version)
	},
}

func run(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		cmd.Usage()
		return errors.New("missing commit or query operand")
	}

	log := newLogger()
	cfg, err := config.Load(configPath())
	if err != nil {
		return err
	}

	input := strings.Join(args, " ")
	mode := query.Resolve(searchMode, input, queryPrefix)
	log.Debug().Stringer("mode", mode).Str("input", input).Msg("resolved search mode")

	// Multi-word operands only make sense as query text.
	if mode != query.ModeQuery && len(args) > 1 {
		cmd.Usage()
		return fmt.Errorf("expected a single commit operand, got %d", len(args))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var meta *gitrepo.Commit
	slug := "lore-results"
	var q query.Query
	switch mode {
	case query.ModeQuery:
		q = query.ForRaw(input, queryPrefix)
	default:
		rev := args[0]
		repo, err := gitrepo.Find(gitrepo.Candidates(cfg.Repos), rev)
		if err != nil {
			return err
		}
		log.Debug().Str("repo", repo.Dir).Msg("commit resolved")
		if meta, err = repo.Metadata(rev); err != nil {
			return err
		}
		slug = query.Slug(meta.Subject)
		if mode == query.ModePatchID {
			id, err := repo.PatchID(rev)
			if err != nil {
				return err
			}
			q = query.ForPatchID(id)
		} else {
			q = query.ForSubject(meta.Subject)
		}
	}
	switch forceMode {
	case forceThreads:
		q = q.WithResult(query.FullThreads)
	case forceResults:
		q = q.WithResult(query.ResultsOnly)
	}

	tmpDir, err := os.MkdirTemp("", "loremutt-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	keep := flagKeepTmp || cfg.KeepTmp
	if !keep {
		defer os.RemoveAll(tmpDir)
	}

	client := lore.New(cfg.BaseURL, flagInsecure, log)
	rawPath := filepath.Join(tmpDir, "results.mbox")
	if err := client.Fetch(ctx, q, rawPath); err != nil {
		return err
	}

	finalPath := filepath.Join(tmpDir, slug+".mbox")
	kept, dropped, err := mbox.Process(rawPath, finalPath, cfg.Dedup && !flagRaw)
	if err != nil {
		return err
	}
	display.SuccessMsg("%d messages (%d duplicates dropped)", kept, dropped)

	recordSearch(log, q, mode, slug, kept)

	reader := flagReader
	if reader == "" {
		reader = cfg.Reader
	}
	if reader == "" {
		if reader, err = muttrc.DetectReader(); err != nil {
			return err
		}
	}

	rcPath := ""
	if !flagNoMuttrc {
		opts := muttrc.Options{
			Editor:  muttrc.Editor(),
			Reverse: flagReverse,
			Tags:    flagTags,
		}
		opts.Name, opts.Email = gitrepo.Identity()
		if meta != nil {
			opts.SubjectToken = query.Slug(meta.Subject)
			opts.AuthorEmail = meta.AuthorEmail
			opts.CommitterEmail = meta.CommitterEmail
		}
		rcPath = filepath.Join(tmpDir, "muttrc")
		if err := os.WriteFile(rcPath, []byte(muttrc.Generate(opts)), 0o600); err != nil {
			return fmt.Errorf("write muttrc: %w", err)
		}
	}

	// The reader owns the terminal from here; Launch shields this process
	// from interrupts so the deferred cleanup always runs.
	err = muttrc.Launch(reader, rcPath, finalPath)
	if keep {
		fmt.Fprintf(os.Stderr, "temporary directory kept at %s\n", tmpDir)
	}
	return err
}

// recordSearch appends to the local search history. History is best-effort:
// failures are logged at debug level and never fail the run.
func recordSearch(log zerolog.Logger, q query.Query, mode query.Mode, slug string, messages int) {
	db, err := history.Open(history.DefaultPath())
	if err != nil {
		log.Debug().Err(err).Msg("history unavailable")
		return
	}
	defer db.Close()

	s := &history.Search{
		Query:      q.Encoded,
		Mode:       mode.String(),
		ResultMode: q.Result.String(),
		Slug:       slug,
		Messages:   messages,
	}
	if err := db.Record(s); err != nil {
		log.Debug().Err(err).Msg("history record failed")
	}
}

func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if flagDebug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return filepath.Join(config.ConfigDir(), "config.toml")
}

// modeFlag registers a value-less flag whose presence assigns a fixed value.
func modeFlag(name, short, help string, v pflag.Value) {
	pf := rootCmd.Flags().VarPF(v, name, short, help)
	pf.NoOptDefVal = "true"
}

func init() {
	modeFlag("subject", "s", "search by the commit's subject line", setTo[query.Mode]{&searchMode, query.ModeSubject})
	modeFlag("query", "q", "treat the operand as a raw search-language query", setTo[query.Mode]{&searchMode, query.ModeQuery})
	modeFlag("file", "f", "scope the query to diff filenames (dfn:)", setTo[string]{&queryPrefix, query.PrefixFilename})
	modeFlag("function", "F", "scope the query to diff hunk headers (dfhh:)", setTo[string]{&queryPrefix, query.PrefixFunction})
	modeFlag("thread", "t", "force full-thread results", setTo[force]{&forceMode, forceThreads})
	modeFlag("results", "r", "force results-only mode", setTo[force]{&forceMode, forceResults})

	f := rootCmd.Flags()
	f.BoolVarP(&flagTags, "tags", "T", false, "annotate messages with review trailers in the index (slow)")
	f.BoolVar(&flagReverse, "reverse", false, "reverse the thread sort order")
	f.StringVar(&flagReader, "reader", "", "mail reader binary (default: auto-detect neomutt, then mutt)")
	f.BoolVar(&flagRaw, "raw", false, "skip mailbox deduplication")
	f.BoolVar(&flagInsecure, "insecure", false, "skip TLS certificate verification")
	f.BoolVar(&flagNoMuttrc, "no-muttrc", false, "launch the reader without a generated configuration")
	f.BoolVar(&flagKeepTmp, "keep-tmp", false, "keep the temporary directory for debugging")
	f.BoolVar(&flagDebug, "debug", false, "enable debug logging")

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default: ~/.config/loremutt/config.toml)")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		display.ErrorMsg("%v", err)
		// A failing reader session propagates its own exit status.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}
