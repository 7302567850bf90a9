package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/hoverlab/internal/agent"
	"github.com/san-kum/hoverlab/internal/api"
	"github.com/san-kum/hoverlab/internal/bridge"
	"github.com/san-kum/hoverlab/internal/config"
	"github.com/san-kum/hoverlab/internal/env"
	"github.com/san-kum/hoverlab/internal/metrics"
	"github.com/san-kum/hoverlab/internal/optim"
	"github.com/san-kum/hoverlab/internal/storage"
	"github.com/san-kum/hoverlab/internal/trainer"
	"github.com/san-kum/hoverlab/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dataDir    string
	configFile string
	preset     string
	verbose    bool

	bridgeURL    string
	agentName    string
	episodes     int
	learnEvery   int
	seed         int64
	timeStep     float64
	maxRuntime   float64
	target       float64
	offset       float64
	observations int
	record       bool
	saveModels   bool

	perPoint  int
	deadbands []float64
	horizons  []float64

	addr      string
	pngPath   string
	withSteps bool
	output    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "hoverlab",
		Short:        "reinforcement learning harness for a simulated hover task",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".hoverlab", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "development logging")

	trainCmd := &cobra.Command{
		Use:   "train",
		Short: "train an agent against the simulator",
		RunE:  runTrain,
	}
	addEnvFlags(trainCmd)
	addTrainFlags(trainCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "train with a live terminal monitor",
		RunE:  runLive,
	}
	addEnvFlags(liveCmd)
	addTrainFlags(liveCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "expose the environment to a remote agent over HTTP",
		RunE:  runServe,
	}
	addEnvFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", "localhost:8080", "listen address")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search the heuristic agent's deadband and horizon",
		RunE:  runTune,
	}
	addEnvFlags(tuneCmd)
	tuneCmd.Flags().IntVar(&perPoint, "per-point", 3, "episodes per grid point")
	tuneCmd.Flags().Float64SliceVar(&deadbands, "deadband", []float64{2, 5, 10}, "deadband values")
	tuneCmd.Flags().Float64SliceVar(&horizons, "horizon", []float64{0.5, 1, 2}, "horizon values in seconds")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the learning curve of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&pngPath, "png", "", "also write the curve to this PNG file")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().BoolVar(&withSteps, "steps", false, "include recorded transitions")
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTARGET\tOFFSET\tRUNTIME\tSTEP\tOBS\tEPISODES")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%.0f\t%.0f\t%.0fs\t%.3fs\t%d\t%d\n",
					name, p.TargetQuantity, p.TargetOffset, p.MaxRuntime, p.TimeStep, p.Observations, p.Episodes)
			}
			return w.Flush()
		},
	}

	agentsCmd := &cobra.Command{
		Use:   "agents",
		Short: "list available agents",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range agent.NewRegistry().List() {
				fmt.Printf("  %s\n", name)
			}
		},
	}

	rootCmd.AddCommand(trainCmd, liveCmd, tuneCmd, serveCmd, listCmd, plotCmd, exportCmd, presetsCmd, agentsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addEnvFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&bridgeURL, "bridge", config.DefaultBridgeURL, "telemetry bridge url")
	cmd.Flags().Float64Var(&timeStep, "time-step", config.DefaultTimeStep, "tick interval in seconds")
	cmd.Flags().Float64Var(&maxRuntime, "max-runtime", config.DefaultMaxRuntime, "episode limit in seconds")
	cmd.Flags().Float64Var(&target, "target", config.DefaultTargetQuantity, "target altitude")
	cmd.Flags().Float64Var(&offset, "offset", config.DefaultTargetOffset, "reward band half width")
	cmd.Flags().IntVar(&observations, "observations", config.DefaultObservations, "observation length")
}

func addTrainFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&agentName, "agent", config.DefaultAgent, "agent")
	cmd.Flags().IntVar(&episodes, "episodes", config.DefaultEpisodes, "number of episodes")
	cmd.Flags().IntVar(&learnEvery, "learn-every", config.DefaultLearnEvery, "steps between learning calls")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	cmd.Flags().BoolVar(&record, "record", false, "store every transition")
	cmd.Flags().BoolVar(&saveModels, "save-models", true, "snapshot the agent when the average improves")
}

// resolveConfig layers defaults, preset, config file and changed flags,
// in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("bridge") {
		cfg.BridgeURL = bridgeURL
	}
	if flags.Changed("time-step") {
		cfg.TimeStep = timeStep
	}
	if flags.Changed("max-runtime") {
		cfg.MaxRuntime = maxRuntime
	}
	if flags.Changed("target") {
		cfg.TargetQuantity = target
	}
	if flags.Changed("offset") {
		cfg.TargetOffset = offset
	}
	if flags.Changed("observations") {
		cfg.Observations = observations
	}
	if flags.Changed("agent") {
		cfg.Agent = agentName
	}
	if flags.Changed("episodes") {
		cfg.Episodes = episodes
	}
	if flags.Changed("learn-every") {
		cfg.LearnEvery = learnEvery
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func openSession(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*env.Session, error) {
	dialer, err := bridge.New(cfg.BridgeURL)
	if err != nil {
		return nil, err
	}
	sess, err := env.New(ctx, dialer, cfg, env.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("connect to simulator: %w", err)
	}
	return sess, nil
}

func newTrainer(sess *env.Session, ag agent.Agent, cfg *config.Config, opts ...trainer.Option) *trainer.Trainer {
	tcfg := trainer.Config{
		Episodes:   cfg.Episodes,
		LearnEvery: cfg.LearnEvery,
		Record:     record,
	}
	if saveModels {
		tcfg.SaveDir = filepath.Join(dataDir, "models", ag.Name())
	}
	opts = append(opts, trainer.WithMetrics(metrics.Default(cfg.TargetQuantity, cfg.TargetOffset, cfg.ControlStep)...))
	return trainer.New(sess, ag, tcfg, opts...)
}

// saveRun stores whatever episodes finished, even when the run failed.
func saveRun(cfg *config.Config, ag agent.Agent, penalty float64, res *trainer.Result) error {
	if res == nil || len(res.Episodes) == 0 {
		return nil
	}
	st := storage.New(dataDir)
	runID, err := st.Save(ag.Name(), cfg, penalty, res)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	fmt.Printf("\nrun saved: %s\n", runID)
	fmt.Printf("episodes: %d  steps: %d  best average: %.1f\n", len(res.Episodes), res.Steps, res.Best)
	return nil
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ag, err := agent.NewRegistry().Get(cfg.Agent, cfg)
	if err != nil {
		return err
	}
	sess, err := openSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	fmt.Printf("training %s for %d episodes (penalty %.0f)\n", ag.Name(), cfg.Episodes, sess.Penalty())
	res, runErr := newTrainer(sess, ag, cfg, trainer.WithLogger(logger), trainer.WithProgress(os.Stdout)).Run(ctx)
	if err := saveRun(cfg, ag, sess.Penalty(), res); err != nil {
		return errors.Join(runErr, err)
	}
	if errors.Is(runErr, context.Canceled) {
		fmt.Println("interrupted")
		return nil
	}
	return runErr
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ag, err := agent.NewRegistry().Get(cfg.Agent, cfg)
	if err != nil {
		return err
	}
	sess, err := openSession(ctx, cfg, zap.NewNop())
	if err != nil {
		return err
	}
	defer sess.Close()

	p := tea.NewProgram(viz.NewModel(cfg.Agent, cfg, cancel))
	feed := viz.NewFeed(p)
	tr := newTrainer(sess, ag, cfg)
	tr.AddObserver(feed)

	type outcome struct {
		res *trainer.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := tr.Run(ctx)
		feed.Finish(err)
		done <- outcome{res, err}
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return err
	}
	cancel()
	out := <-done

	if err := saveRun(cfg, ag, sess.Penalty(), out.res); err != nil {
		return err
	}
	if out.err != nil && !errors.Is(out.err, context.Canceled) {
		return out.err
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sess, err := openSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	spec := api.Spec{
		Actions:      cfg.Actions,
		Observations: cfg.Observations,
		TimeStep:     cfg.TimeStep,
		MaxRuntime:   cfg.MaxRuntime,
	}
	return api.New(sess, spec, api.WithLogger(logger)).Run(ctx, addr)
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Episodes = perPoint
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	grid, err := optim.NewGridSearch([]string{"deadband", "horizon"}, [][]float64{deadbands, horizons})
	if err != nil {
		return err
	}
	sess, err := openSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	fmt.Printf("tuning heuristic over %d grid points, %d episodes each\n", grid.Size(), cfg.Episodes)
	best, trials, err := grid.Search(ctx, func(ctx context.Context, params map[string]float64) (float64, error) {
		h := agent.NewHeuristic(cfg.TargetQuantity, 0, 0)
		for name, v := range params {
			if err := h.SetParam(name, v); err != nil {
				return 0, err
			}
		}
		tr := trainer.New(sess, h, trainer.Config{Episodes: cfg.Episodes, LearnEvery: cfg.LearnEvery},
			trainer.WithLogger(logger))
		res, err := tr.Run(ctx)
		if err != nil {
			return 0, err
		}
		return res.Episodes[len(res.Episodes)-1].Average, nil
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DEADBAND\tHORIZON\tAVG SCORE")
	for _, t := range optim.Rank(trials) {
		fmt.Fprintf(w, "%.2f\t%.2f\t%.1f\n", t.Params["deadband"], t.Params["horizon"], t.Value)
	}
	if flushErr := w.Flush(); flushErr != nil {
		return flushErr
	}
	if err != nil {
		return err
	}
	fmt.Printf("\nbest: deadband %.2f horizon %.2f (avg %.1f)\n", best.Params["deadband"], best.Params["horizon"], best.Value)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tAGENT\tTIME\tEPISODES\tSTEPS\tBEST AVG")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.1f\n",
			run.ID,
			run.Agent,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Episodes,
			run.Steps,
			run.Best,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	episodes, err := st.LoadScores(runID)
	if err != nil {
		return err
	}
	if len(episodes) == 0 {
		return fmt.Errorf("no data to plot")
	}

	scores := make([]float64, len(episodes))
	averages := make([]float64, len(episodes))
	for i, ep := range episodes {
		scores[i] = ep.Score
		averages[i] = ep.Average
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("agent: %s\n", meta.Agent)
	fmt.Printf("episodes: %d\n\n", len(episodes))
	fmt.Println(viz.PlotScores(scores, averages, 10, 80))

	if pngPath != "" {
		if err := viz.SavePNG(pngPath, meta.ID, scores, averages); err != nil {
			return err
		}
		fmt.Printf("\nplot written to %s\n", pngPath)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	data, err := st.Export(args[0], withSteps)
	if err != nil {
		return err
	}

	if output == "" {
		return storage.ExportJSON(os.Stdout, data)
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := storage.ExportJSON(f, data); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", output)
	return nil
}
