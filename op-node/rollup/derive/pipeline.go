package derive

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/op-fault-host/op-node/rollup"
	"github.com/ethereum-optimism/op-fault-host/op-service/eth"
)

// StepResult classifies the outcome of one DerivationPipeline.Step call.
type StepResult int

const (
	// StepResultPreparedAttributes means a new Attributes set was enqueued.
	StepResultPreparedAttributes StepResult = iota
	// StepResultAdvancedOrigin means the stage stack hit EOF and the L1
	// origin was successfully advanced; callers should Step again.
	StepResultAdvancedOrigin
	// StepResultOriginAdvanceErr means EOF was hit but advancing the
	// origin failed; the caller decides whether to retry or reset.
	StepResultOriginAdvanceErr
	// StepResultStepFailed means the stage stack reported a non-EOF
	// error; fatal to the current derivation run, the caller must reset.
	StepResultStepFailed
)

func (r StepResult) String() string {
	switch r {
	case StepResultPreparedAttributes:
		return "prepared-attributes"
	case StepResultAdvancedOrigin:
		return "advanced-origin"
	case StepResultOriginAdvanceErr:
		return "origin-advance-err"
	case StepResultStepFailed:
		return "step-failed"
	default:
		return "unknown"
	}
}

// DerivationPipeline is a pull-based driver over a stage stack: it
// repeatedly asks the topmost stage for the next L2 attributes, enqueuing
// whatever it produces in FIFO order, and advances the L1 origin whenever
// the stack signals EOF. It never reorders or drops what the stack
// produces, and resets by delegating to the stack's own recursive Reset.
type DerivationPipeline struct {
	log    log.Logger
	stage  Stage
	rollupCfg *rollup.Config
	l2     L2ChainProvider

	prepared []Attributes
}

// NewDerivationPipeline wires a stage stack into a driver. stage is the
// topmost layer of the composed stack (frame queue -> channel bank ->
// batch queue -> attributes queue, in the real system); this package never
// looks past the Stage interface.
func NewDerivationPipeline(logger log.Logger, rollupCfg *rollup.Config, l2 L2ChainProvider, stage Stage) *DerivationPipeline {
	return &DerivationPipeline{
		log:       logger,
		stage:     stage,
		rollupCfg: rollupCfg,
		l2:        l2,
	}
}

// Origin returns the L1 block the stage stack is currently consuming from.
func (dp *DerivationPipeline) Origin() eth.L1BlockRef {
	return dp.stage.Origin()
}

// Peek returns the head of the prepared queue without consuming it.
func (dp *DerivationPipeline) Peek() (Attributes, bool) {
	if len(dp.prepared) == 0 {
		return Attributes{}, false
	}
	return dp.prepared[0], true
}

// Next pops the head of the prepared queue.
func (dp *DerivationPipeline) Next() (Attributes, bool) {
	if len(dp.prepared) == 0 {
		return Attributes{}, false
	}
	a := dp.prepared[0]
	dp.prepared = dp.prepared[1:]
	return a, true
}

// Reset fetches the system config in effect at l2Cursor.Number and
// restores the stage stack at l1Origin, per spec: EOF during reset is
// benign, any other stage error is surfaced.
func (dp *DerivationPipeline) Reset(ctx context.Context, l2Cursor eth.L2BlockRef, l1Origin eth.L1BlockRef) error {
	sysCfg, err := dp.l2.SystemConfigByNumber(ctx, l2Cursor.Number, dp.rollupCfg)
	if err != nil {
		return fmt.Errorf("failed to fetch system config at L2 block %d: %w", l2Cursor.Number, err)
	}
	err = dp.stage.Reset(ctx, l1Origin, sysCfg)
	switch {
	case err == nil:
		dp.log.Debug("stages reset")
	case errors.Is(err, EOF):
		dp.log.Debug("stages reset with EOF")
	default:
		dp.log.Error("stage reset failed", "err", err)
		return fmt.Errorf("stage reset failed: %w", err)
	}
	return nil
}

// Step attempts one unit of progress. When it returns
// StepResultPreparedAttributes or StepResultAdvancedOrigin, the caller
// should call Step again to continue draining the stack; the other two
// results require caller intervention (retry/reset).
func (dp *DerivationPipeline) Step(ctx context.Context, cursor eth.L2BlockRef) (StepResult, error) {
	attrs, err := dp.stage.NextAttributes(ctx, cursor)
	switch {
	case err == nil:
		dp.log.Trace("prepared L2 attributes", "timestamp", attrs.Timestamp)
		dp.prepared = append(dp.prepared, attrs)
		return StepResultPreparedAttributes, nil
	case errors.Is(err, EOF):
		dp.log.Trace("pipeline advancing origin")
		if aErr := dp.stage.AdvanceOrigin(ctx); aErr != nil {
			return StepResultOriginAdvanceErr, aErr
		}
		return StepResultAdvancedOrigin, nil
	default:
		dp.log.Warn("attributes stage step failed", "err", err)
		return StepResultStepFailed, err
	}
}
