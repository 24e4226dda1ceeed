package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"

	"inkforge/config"
	"inkforge/content"
	"inkforge/export"
	"inkforge/generator"
	"inkforge/llm"
	"inkforge/prompt"
	"inkforge/store"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type app struct {
	cfgPath string
	debug   bool
	mock    bool

	cfg    config.Config
	logger *zap.Logger
}

func (a *app) setup(*cobra.Command, []string) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.debug {
		level = "debug"
	}
	logger, err := newLogger(level)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = lvl
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

func (a *app) client() (llm.Client, error) {
	if a.mock {
		return llm.NewMock(), nil
	}
	return llm.NewOpenAI(llm.OpenAISettings{
		APIKey:            a.cfg.AI.APIKey,
		BaseURL:           a.cfg.AI.BaseURL,
		Timeout:           a.cfg.AI.RequestTimeout,
		RequestsPerMinute: a.cfg.AI.RequestsPerMinute,
	})
}

func (a *app) builder() (*prompt.Builder, error) {
	if dir := a.cfg.TemplatesDir; dir != "" {
		return prompt.NewBuilderFromFS(os.DirFS(dir)), nil
	}
	return prompt.NewBuilder(), nil
}

func (a *app) fileStore() (*store.FileStore, error) {
	return store.NewFileStore(a.cfg.OutputDir, a.logger)
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "inkforge",
		Short:         "AI content generation for blogs and social platforms",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "path to config file (YAML)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&a.mock, "mock", false, "use the built-in mock model (no API calls)")

	root.AddCommand(newGenerateCmd(a))
	root.AddCommand(newSessionsCmd(a))
	root.AddCommand(newPlatformsCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newGenerateCmd(a *app) *cobra.Command {
	var (
		opts        content.RequestOpts
		topic       string
		keywords    []string
		formatName  string
		outPath     string
		topicsFile  string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:     "generate",
		Short:   "Generate content for a topic",
		PreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.logger.Sync()

			client, err := a.client()
			if err != nil {
				return err
			}
			builder, err := a.builder()
			if err != nil {
				return err
			}
			fs, err := a.fileStore()
			if err != nil {
				return err
			}
			gen, err := generator.New(generator.Params{
				Client:   client,
				Builder:  builder,
				Recorder: fs,
				Logger:   a.logger,
				Config:   a.cfg,
			})
			if err != nil {
				return err
			}
			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}

			opts.Keywords = keywords

			if topicsFile != "" {
				return runBatch(cmd, a, gen, topicsFile, opts, format, concurrency)
			}
			if topic == "" {
				return fmt.Errorf("--topic is required (or use --topics-file)")
			}

			req, err := content.NewRequest(topic, opts)
			if err != nil {
				return err
			}
			sess, err := gen.Generate(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("session %s aborted: %w", sess.ID, err)
			}
			return emit(cmd, sess, format, outPath)
		},
	}

	cmd.Flags().StringVarP(&topic, "topic", "t", "", "topic to write about")
	cmd.Flags().StringVar((*string)(&opts.Country), "country", "", "target country (default US)")
	cmd.Flags().StringVar(&opts.Language, "language", "", "output language (default derived from country)")
	cmd.Flags().StringVar((*string)(&opts.Industry), "industry", "", "industry vertical (default general)")
	cmd.Flags().StringVarP((*string)(&opts.Platform), "platform", "p", "", "target platform (default medium)")
	cmd.Flags().StringVar((*string)(&opts.Tone), "tone", "", "writing tone (default professional)")
	cmd.Flags().StringVar((*string)(&opts.Goal), "goal", "", "content goal (default engagement)")
	cmd.Flags().StringSliceVarP(&keywords, "keyword", "k", nil, "keyword to cover (repeatable)")
	cmd.Flags().IntVarP(&opts.Length, "length", "l", 0, "target length in words")
	cmd.Flags().StringVar(&opts.CustomInstructions, "instructions", "", "extra instructions appended to the prompt")
	cmd.Flags().StringVarP(&formatName, "format", "f", "markdown", "output format: markdown, html, json, plain")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write output to file instead of stdout")
	cmd.Flags().StringVar(&topicsFile, "topics-file", "", "generate one session per topic line in file")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "concurrent sessions for --topics-file")
	return cmd
}

func runBatch(cmd *cobra.Command, a *app, gen *generator.Generator, path string, opts content.RequestOpts, format export.Format, concurrency int) error {
	topics, err := readTopics(path)
	if err != nil {
		return err
	}
	reqs := make([]content.Request, 0, len(topics))
	for _, t := range topics {
		req, err := content.NewRequest(t, opts)
		if err != nil {
			return fmt.Errorf("topic %q: %w", t, err)
		}
		reqs = append(reqs, req)
	}

	sessions, err := gen.Batch(cmd.Context(), reqs, concurrency)
	for _, sess := range sessions {
		if sess == nil || sess.Content == nil {
			continue
		}
		name := sess.ID + "." + format.Ext()
		if werr := writeRendered(sess, format, filepath.Join(a.cfg.OutputDir, name)); werr != nil {
			a.logger.Warn("failed to write output", zap.String("session", sess.ID), zap.Error(werr))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", sess.ID, sess.Status, sess.Request.Topic)
	}
	return err
}

func readTopics(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var topics []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		topics = append(topics, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("no topics in %s", path)
	}
	return topics, nil
}

func emit(cmd *cobra.Command, sess *content.Session, format export.Format, outPath string) error {
	if sess.Content.BelowThreshold {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: no attempt met the quality threshold; best attempt (score %.2f) used.\n",
			sess.BestAttempt().Score.Overall)
	}
	if outPath == "" {
		rendered, err := export.Render(sess.Content, format)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), rendered)
		return nil
	}
	if err := writeRendered(sess, format, outPath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (session %s)\n", outPath, sess.ID)
	return nil
}

func writeRendered(sess *content.Session, format export.Format, path string) error {
	rendered, err := export.Render(sess.Content, format)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(rendered), 0o644)
}

func newSessionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect recorded generation sessions",
	}

	list := &cobra.Command{
		Use:     "list",
		Short:   "List recorded sessions",
		PreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := a.fileStore()
			if err != nil {
				return err
			}
			infos, err := fs.ListSessions()
			if err != nil {
				return err
			}
			for _, info := range infos {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%-18s\t%s\n", info.ID, info.Status, info.Topic)
			}
			return nil
		},
	}

	var showFormat string
	show := &cobra.Command{
		Use:     "show <session-id>",
		Short:   "Show one session, attempts and scores included",
		Args:    cobra.ExactArgs(1),
		PreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := a.fileStore()
			if err != nil {
				return err
			}
			sess, err := fs.Load(args[0])
			if err != nil {
				return err
			}
			if showFormat == "json" {
				data, err := sessionJSON(sess)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), data)
				return nil
			}
			printSession(cmd, sess)
			return nil
		},
	}
	show.Flags().StringVar(&showFormat, "format", "text", "output format: text or json")

	var olderThan time.Duration
	clean := &cobra.Command{
		Use:     "clean",
		Short:   "Delete sessions older than a cutoff",
		PreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := a.fileStore()
			if err != nil {
				return err
			}
			n, err := fs.PurgeOlderThan(olderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d session(s)\n", n)
			return nil
		},
	}
	clean.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "delete sessions older than this")

	cmd.AddCommand(list, show, clean)
	return cmd
}

func sessionJSON(sess *content.Session) (string, error) {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func printSession(cmd *cobra.Command, sess *content.Session) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session:  %s\n", sess.ID)
	fmt.Fprintf(out, "Topic:    %s\n", sess.Request.Topic)
	fmt.Fprintf(out, "Platform: %s\n", sess.Request.Platform)
	fmt.Fprintf(out, "Status:   %s\n", sess.Status)
	if sess.AbortReason != "" {
		fmt.Fprintf(out, "Abort:    %s\n", sess.AbortReason)
	}
	fmt.Fprintf(out, "Transient failures: %d\n", sess.TransientFailures)
	for _, att := range sess.Attempts {
		mark := "rejected"
		if att.Accepted {
			mark = "accepted"
		}
		fmt.Fprintf(out, "  attempt %d: score %.2f (%s) temp %.2f template %s\n",
			att.Index, att.Score.Overall, mark, att.Temperature, att.TemplateName)
	}
	if c := sess.Content; c != nil {
		fmt.Fprintf(out, "Title:    %s\n", c.Title)
		fmt.Fprintf(out, "Digest:   %s\n", export.Digest(c, 120))
		fmt.Fprintf(out, "Words:    %d (~%s read)\n", c.WordCount, c.ReadTime.Round(time.Minute))
		if c.BelowThreshold {
			fmt.Fprintln(out, "Flag:     below quality threshold")
		}
	}
}

func newPlatformsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List supported platforms, countries, tones, goals, and formats",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Platforms:  %s\n", joinValues(content.Platforms()))
			fmt.Fprintf(out, "Countries:  %s\n", joinValues(content.Countries()))
			fmt.Fprintf(out, "Industries: %s\n", joinValues(content.Industries()))
			fmt.Fprintf(out, "Tones:      %s\n", joinValues(content.Tones()))
			fmt.Fprintf(out, "Goals:      %s\n", joinValues(content.Goals()))
			fmt.Fprintf(out, "Formats:    %s\n", joinValues(content.Formats()))
		},
	}
}

func joinValues[T ~string](vals []T) string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return strings.Join(out, ", ")
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "inkforge", version)
		},
	}
}
