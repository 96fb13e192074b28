package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/WladimirSidorenko/word2vec/IO"
	"github.com/WladimirSidorenko/word2vec/align"
	"github.com/WladimirSidorenko/word2vec/model"
	"github.com/WladimirSidorenko/word2vec/params"
	"github.com/WladimirSidorenko/word2vec/train"
	"github.com/WladimirSidorenko/word2vec/utils"
	"github.com/WladimirSidorenko/word2vec/vocab"
)

// skipGramAlpha replaces the default learning rate when skip-gram is
// selected and no alpha was given.
const skipGramAlpha = 0.05

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "word2vec",
		Short:         "Train word embeddings, optionally with per-token task classifiers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newTrainCmd(), newExportCmd())
	return root
}

func newTrainCmd() *cobra.Command {
	v := viper.New()
	var configFile, metricsAddr string

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Learn a vocabulary and train embeddings on a corpus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v, configFile)
			if err != nil {
				return err
			}
			if cfg.Mode, err = params.ModeFromFlags(v.GetBool("task-only"), v.GetBool("joint"), v.GetBool("isolated")); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			log := utils.NewLogger(utils.DebugLevelName(cfg.Debug), cmd.ErrOrStderr())

			var metrics *train.Metrics
			if metricsAddr != "" {
				metrics = serveMetrics(cmd.Context(), metricsAddr, log)
			}
			return runTraining(cmd.Context(), cfg, log, metrics)
		},
	}

	d := params.Defaults
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "YAML file with training options")
	f.StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while training")
	f.String("train", "", "training corpus, one sentence per line")
	f.String("output", "", "file to write the embeddings to")
	f.String("save-vocab", "", "file to write the vocabulary to")
	f.String("checkpoint", "", "file to write a gob checkpoint of all weights to")
	f.Int("size", d.Dim, "embedding dimension")
	f.Int("iter", d.Epochs, "training epochs")
	f.Float64("alpha", d.Alpha, fmt.Sprintf("starting learning rate (%g for skip-gram)", skipGramAlpha))
	f.Float64("sample", d.Sample, "subsampling threshold for frequent tokens, 0 disables")
	f.Bool("cbow", d.CBOW, "use continuous bag of words, false for skip-gram")
	f.Bool("hs", d.HS, "use hierarchical softmax")
	f.Int("negative", d.Negative, "negative samples per positive, 0 disables")
	f.Int("window", d.Window, "maximum context window")
	f.Int("min-count", d.MinCount, "discard tokens seen fewer times")
	f.Int("threads", d.Threads, "training goroutines, 0 uses one per logical CPU")
	f.Bool("binary", d.Binary, "write embeddings in binary format")
	f.Int("debug", d.Debug, "verbosity: 0 quiet, 1 summary, 2 progress")
	f.Int64("seed", d.Seed, "seed of the per worker generators")
	f.Int("hash-size", d.HashSize, "vocabulary hash table size")
	f.Int("table-size", d.UnigramTableSize, "negative sampling table size")
	f.Bool("align", d.Align, "map the isolated task embeddings onto the word2vec space")
	f.Bool("task-only", false, "train only the task classifiers against the embeddings")
	f.Bool("joint", false, "train task classifiers and word2vec on the same embeddings")
	f.Bool("isolated", false, "train task classifiers on separate embeddings")

	bindConfig(v, f)
	return cmd
}

// bindConfig makes every flag readable through v, overridable by W2V_*
// environment variables.
func bindConfig(v *viper.Viper, f *pflag.FlagSet) {
	cobra.CheckErr(v.BindPFlags(f))
	v.SetEnvPrefix("W2V")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// loadConfig merges flags, W2V_* environment variables and the optional
// config file, in that order of precedence.
func loadConfig(v *viper.Viper, path string) (params.TrainingConfig, error) {
	cfg := params.Defaults
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("%w: reading %s: %v", params.ErrConfig, path, err)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", params.ErrConfig, err)
	}
	if cfg.TrainFile == "" {
		return cfg, fmt.Errorf("%w: no training file given", params.ErrConfig)
	}
	if !cfg.CBOW && !v.IsSet("alpha") {
		cfg.Alpha = skipGramAlpha
	}
	return cfg, nil
}

func serveMetrics(ctx context.Context, addr string, log logrus.FieldLogger) *train.Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := train.NewMetrics(reg)

	srv := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Warn("metrics endpoint stopped")
		}
	}()
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	log.Infof("serving metrics on %s/metrics", addr)
	return m
}

// runTraining is the whole pipeline: vocabulary pass, training, export.
// Nothing is written unless training succeeds.
func runTraining(ctx context.Context, cfg params.TrainingConfig, log *logrus.Logger, metrics *train.Metrics) error {
	corpus, err := IO.OpenCorpus(cfg.TrainFile)
	if err != nil {
		return err
	}
	defer corpus.Close()

	voc, tasks, _, err := IO.LearnVocab(corpus, cfg, log)
	if err != nil {
		return err
	}
	net := model.NewNetwork(voc.Size(), tasks, cfg)

	opts := []train.Option{train.WithLogger(log)}
	if metrics != nil {
		opts = append(opts, train.WithMetrics(metrics))
	}
	trainer, err := train.NewTrainer(cfg, voc, tasks, net, corpus, opts...)
	if err != nil {
		return err
	}
	if err := trainer.Run(ctx); err != nil {
		return err
	}
	return writeOutputs(cfg, voc, net, log)
}

// writeOutputs stages every requested file and renames them into place only
// after all of them were written, so a failure leaves no output behind.
func writeOutputs(cfg params.TrainingConfig, voc *vocab.Vocabulary, net *model.Network, log logrus.FieldLogger) error {
	taskEmb := net.TaskSyn0
	if cfg.Align && taskEmb != nil {
		w, err := align.LeastSquares(net.TaskSyn0, net.Syn0)
		if err != nil {
			return err
		}
		taskEmb = align.Apply(net.TaskSyn0, w)
		log.Info("task embeddings aligned to the word2vec space")
	}

	var staged []*utils.PendingFile
	defer func() {
		for _, f := range staged {
			f.Abort()
		}
	}()
	stage := func(path string, write func(io.Writer) error) error {
		if path == "" {
			return nil
		}
		f, err := utils.NewPendingFile(path)
		if err != nil {
			return fmt.Errorf("%w: %v", params.ErrResource, err)
		}
		staged = append(staged, f)
		if err := write(f); err != nil {
			return fmt.Errorf("%w: writing %s: %v", params.ErrResource, path, err)
		}
		return nil
	}

	if err := stage(cfg.SaveVocab, func(w io.Writer) error { return IO.SaveVocab(w, voc) }); err != nil {
		return err
	}
	if err := stage(cfg.OutputFile, func(w io.Writer) error {
		return IO.SaveEmbeddings(w, voc, net.Syn0, cfg.Binary)
	}); err != nil {
		return err
	}
	if cfg.OutputFile != "" && taskEmb != nil {
		if err := stage(cfg.OutputFile+".task", func(w io.Writer) error {
			return IO.SaveEmbeddings(w, voc, taskEmb, cfg.Binary)
		}); err != nil {
			return err
		}
	}
	if err := stage(cfg.Checkpoint, func(w io.Writer) error { return net.Save(w, voc.Words()) }); err != nil {
		return err
	}

	for _, f := range staged {
		if err := f.Commit(); err != nil {
			return fmt.Errorf("%w: %v", params.ErrResource, err)
		}
		log.Infof("wrote %s", f.Path())
	}
	return nil
}

func newExportCmd() *cobra.Command {
	var checkpoint, output string
	var binary, task bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the embeddings stored in a checkpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			net, words, err := model.LoadFile(checkpoint)
			if err != nil {
				return err
			}
			emb := net.Syn0
			if task {
				if emb = net.TaskSyn0; emb == nil {
					return fmt.Errorf("%w: checkpoint was not trained in isolated mode", params.ErrConfig)
				}
			}
			return IO.SaveEmbeddingsFile(output, wordList(words), emb, binary)
		},
	}
	f := cmd.Flags()
	f.StringVar(&checkpoint, "checkpoint", "", "checkpoint written by train")
	f.StringVar(&output, "output", "", "embedding file to write")
	f.BoolVar(&binary, "binary", false, "write embeddings in binary format")
	f.BoolVar(&task, "task", false, "export the isolated task embeddings")
	_ = cmd.MarkFlagRequired("checkpoint")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// wordList wraps checkpoint tokens so they can be exported; the result is
// only good for reading Tokens.
func wordList(words []string) *vocab.Vocabulary {
	v := &vocab.Vocabulary{Tokens: make([]vocab.Token, len(words))}
	for i, w := range words {
		v.Tokens[i].Word = w
	}
	return v
}
