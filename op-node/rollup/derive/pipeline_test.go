package derive

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/op-fault-host/op-node/rollup"
	"github.com/ethereum-optimism/op-fault-host/op-service/eth"
)

// fakeStage is a minimal test double for the topmost stage of a
// derivation stack. It is not a real stage implementation - the concrete
// derivation stages (frame queue, channel bank, batch queue, attributes
// queue, L1 traversal) are out of scope for this package, which only
// depends on the Stage capability set.
type fakeStage struct {
	origin eth.L1BlockRef

	// nextAttrsResults are returned in order by NextAttributes, one per
	// call; when exhausted, the last result repeats.
	nextAttrsResults []error
	nextAttrs        []Attributes
	callCount        int

	advanceOriginErr error
	advanceOriginN   int

	resetCfg eth.SystemConfig
	resetN   int
	resetErr error
}

func (f *fakeStage) Origin() eth.L1BlockRef { return f.origin }

func (f *fakeStage) NextAttributes(ctx context.Context, cursor eth.L2BlockRef) (Attributes, error) {
	i := f.callCount
	if i >= len(f.nextAttrsResults) {
		i = len(f.nextAttrsResults) - 1
	}
	f.callCount++
	return f.nextAttrs[i], f.nextAttrsResults[i]
}

func (f *fakeStage) AdvanceOrigin(ctx context.Context) error {
	f.advanceOriginN++
	return f.advanceOriginErr
}

func (f *fakeStage) Reset(ctx context.Context, base eth.L1BlockRef, cfg eth.SystemConfig) error {
	f.resetN++
	f.origin = base
	f.resetCfg = cfg
	return f.resetErr
}

type fakeL2Provider struct {
	cfg    eth.SystemConfig
	err    error
	number uint64
}

func (p *fakeL2Provider) SystemConfigByNumber(ctx context.Context, number uint64, cfg *rollup.Config) (eth.SystemConfig, error) {
	p.number = number
	return p.cfg, p.err
}

func testLogger() log.Logger {
	return log.NewLogger(log.DiscardHandler())
}

// S5 - driver step/EOF cycle: stack returns EOF once then an attribute
// set; first Step returns AdvancedOrigin, second Step returns
// PreparedAttributes; Next yields the exact attribute set.
func TestPipeline_StepEOFCycle(t *testing.T) {
	want := Attributes{Timestamp: 42}
	stage := &fakeStage{
		nextAttrsResults: []error{EOF, nil},
		nextAttrs:        []Attributes{{}, want},
	}
	dp := NewDerivationPipeline(testLogger(), &rollup.Config{}, &fakeL2Provider{}, stage)

	res, err := dp.Step(context.Background(), eth.L2BlockRef{})
	require.NoError(t, err)
	require.Equal(t, StepResultAdvancedOrigin, res)
	require.Equal(t, 1, stage.advanceOriginN)

	res, err = dp.Step(context.Background(), eth.L2BlockRef{})
	require.NoError(t, err)
	require.Equal(t, StepResultPreparedAttributes, res)

	got, ok := dp.Next()
	require.True(t, ok)
	require.Equal(t, want, got)

	_, ok = dp.Next()
	require.False(t, ok)
}

// Invariant 4: every Step returning PreparedAttributes increases the
// prepared-queue length by exactly one; Next decreases it by exactly one;
// neither reorders.
func TestPipeline_PreparedQueueFIFO(t *testing.T) {
	a1 := Attributes{Timestamp: 1}
	a2 := Attributes{Timestamp: 2}
	stage := &fakeStage{
		nextAttrsResults: []error{nil, nil},
		nextAttrs:        []Attributes{a1, a2},
	}
	dp := NewDerivationPipeline(testLogger(), &rollup.Config{}, &fakeL2Provider{}, stage)

	res, err := dp.Step(context.Background(), eth.L2BlockRef{})
	require.NoError(t, err)
	require.Equal(t, StepResultPreparedAttributes, res)
	peeked, ok := dp.Peek()
	require.True(t, ok)
	require.Equal(t, a1, peeked)

	res, err = dp.Step(context.Background(), eth.L2BlockRef{})
	require.NoError(t, err)
	require.Equal(t, StepResultPreparedAttributes, res)

	got1, _ := dp.Next()
	got2, _ := dp.Next()
	require.Equal(t, a1, got1)
	require.Equal(t, a2, got2)
}

func TestPipeline_OriginAdvanceErr(t *testing.T) {
	wantErr := errors.New("boom")
	stage := &fakeStage{
		nextAttrsResults: []error{EOF},
		nextAttrs:        []Attributes{{}},
		advanceOriginErr: wantErr,
	}
	dp := NewDerivationPipeline(testLogger(), &rollup.Config{}, &fakeL2Provider{}, stage)
	res, err := dp.Step(context.Background(), eth.L2BlockRef{})
	require.ErrorIs(t, err, wantErr)
	require.Equal(t, StepResultOriginAdvanceErr, res)
}

func TestPipeline_StepFailed(t *testing.T) {
	wantErr := errors.New("fatal stage error")
	stage := &fakeStage{
		nextAttrsResults: []error{wantErr},
		nextAttrs:        []Attributes{{}},
	}
	dp := NewDerivationPipeline(testLogger(), &rollup.Config{}, &fakeL2Provider{}, stage)
	res, err := dp.Step(context.Background(), eth.L2BlockRef{})
	require.ErrorIs(t, err, wantErr)
	require.Equal(t, StepResultStepFailed, res)
}

// S6 - reset path: after a fatal StepFailed, calling Reset consults the L2
// chain provider for system config at l2.Number and invokes stage reset
// with (l1, system_config); subsequent Step succeeds on a fresh stack.
func TestPipeline_Reset(t *testing.T) {
	sysCfg := eth.SystemConfig{GasLimit: 30_000_000}
	stage := &fakeStage{
		nextAttrsResults: []error{errors.New("fatal"), nil},
		nextAttrs:        []Attributes{{}, {Timestamp: 7}},
	}
	l2 := &fakeL2Provider{cfg: sysCfg}
	dp := NewDerivationPipeline(testLogger(), &rollup.Config{}, l2, stage)

	_, err := dp.Step(context.Background(), eth.L2BlockRef{Number: 100})
	require.Error(t, err)

	l1Origin := eth.L1BlockRef{Number: 10, Hash: common.HexToHash("0x01")}
	require.NoError(t, dp.Reset(context.Background(), eth.L2BlockRef{Number: 100}, l1Origin))
	require.Equal(t, 1, stage.resetN)
	require.Equal(t, l1Origin, stage.origin)
	require.Equal(t, uint64(100), l2.number)
	require.Equal(t, sysCfg, stage.resetCfg)

	res, err := dp.Step(context.Background(), eth.L2BlockRef{})
	require.NoError(t, err)
	require.Equal(t, StepResultPreparedAttributes, res)
}

// Invariant 5: Reset is idempotent given deterministic providers.
func TestPipeline_ResetIdempotent(t *testing.T) {
	stage := &fakeStage{}
	l2 := &fakeL2Provider{cfg: eth.SystemConfig{GasLimit: 1}}
	dp := NewDerivationPipeline(testLogger(), &rollup.Config{}, l2, stage)

	l1Origin := eth.L1BlockRef{Number: 5}
	require.NoError(t, dp.Reset(context.Background(), eth.L2BlockRef{Number: 5}, l1Origin))
	require.NoError(t, dp.Reset(context.Background(), eth.L2BlockRef{Number: 5}, l1Origin))
	require.Equal(t, 2, stage.resetN)
	require.Equal(t, l1Origin, stage.origin)
}

// Reset with a stage that reports EOF is benign.
func TestPipeline_ResetEOFIsBenign(t *testing.T) {
	stage := &fakeStage{resetErr: EOF}
	l2 := &fakeL2Provider{}
	dp := NewDerivationPipeline(testLogger(), &rollup.Config{}, l2, stage)
	require.NoError(t, dp.Reset(context.Background(), eth.L2BlockRef{}, eth.L1BlockRef{}))
}
