// Package trainer runs agents through episodes of an environment.
//
// Each episode resets the environment and loops act, step and remember
// until the environment reports a terminal tick. The agent learns every
// LearnEvery steps counted across episodes. After each episode the
// trainer updates the moving average of recent scores and snapshots the
// agent whenever that average beats the best so far.
//
// # Example
//
//	tr := trainer.New(session, agent, trainer.Config{Episodes: 100, LearnEvery: 20},
//		trainer.WithProgress(os.Stdout))
//	result, err := tr.Run(ctx)
package trainer
