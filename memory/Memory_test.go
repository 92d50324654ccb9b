package memory

import (
	"math"
	"testing"

	"github.com/samuelfneumann/energyac/environment"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func newSpec(dims int, t environment.SpecType) environment.Spec {
	low := make([]float64, dims)
	high := make([]float64, dims)
	for i := range high {
		low[i] = -1
		high[i] = 1
	}
	return environment.NewSpec(mat.NewVecDense(dims, nil), t,
		mat.NewVecDense(dims, low), mat.NewVecDense(dims, high),
		environment.Continuous)
}

func newMemory(t *testing.T, discount float64, maxLength int) *Memory {
	t.Helper()
	m, err := New(newSpec(2, environment.Observation),
		newSpec(1, environment.Action), discount, maxLength, 1)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return m
}

// fill adds the given number of episodes of the given length to m.
// Observations encode the episode and step so rows can be traced back.
func fill(m *Memory, episodes, steps int) {
	for ep := 0; ep < episodes; ep++ {
		for s := 0; s < steps; s++ {
			obs := mat.NewVecDense(2, []float64{float64(ep), float64(s)})
			next := mat.NewVecDense(2, []float64{float64(ep), float64(s + 1)})
			act := mat.NewVecDense(1, []float64{float64(ep + s)})
			m.AddExperience(obs, act, float64(ep), next, s == steps-1, s, ep)
		}
	}
}

func TestNewInvalid(t *testing.T) {
	obs, act := newSpec(2, environment.Observation),
		newSpec(1, environment.Action)

	if _, err := New(obs, act, 0.9, 0, 1); err == nil {
		t.Error("new: expected error for maxLength 0")
	}
	if _, err := New(obs, act, 1.5, 10, 1); err == nil {
		t.Error("new: expected error for discount > 1")
	}
	if _, err := New(environment.Spec{}, act, 0.9, 10, 1); err == nil {
		t.Error("new: expected error for empty observation spec")
	}
}

func TestCalculateReturns(t *testing.T) {
	m := newMemory(t, 0.5, 10)

	want := []float64{1.75, 1.5, 1.0}
	have := m.CalculateReturns([]float64{1, 1, 1})
	if !floats.EqualApprox(want, have, 1e-12) {
		t.Errorf("calculateReturns: want(%v) have(%v)", want, have)
	}

	rewards := [][]float64{
		{},
		{3},
		{1, -2, 0, 4, 10, -1},
	}
	for _, r := range rewards {
		if have := m.CalculateReturns(r); len(have) != len(r) {
			t.Errorf("calculateReturns: length want(%v) have(%v)", len(r),
				len(have))
		}
	}
}

func TestCalculateReturnsPure(t *testing.T) {
	m := newMemory(t, 0.9, 10)
	fill(m, 2, 3)

	rewards := []float64{1, 2, 3}
	m.CalculateReturns(rewards)
	if !floats.Equal(rewards, []float64{1, 2, 3}) {
		t.Errorf("calculateReturns: rewards mutated to %v", rewards)
	}
	if m.Len() != 6 {
		t.Errorf("calculateReturns: experience mutated, length %v", m.Len())
	}
}

func TestSummarizeReturns(t *testing.T) {
	stats := SummarizeReturns([]float64{1, 2, 3, 4})
	if stats.Sum != 10 {
		t.Errorf("summarizeReturns: sum want(10) have(%v)", stats.Sum)
	}
	if stats.Mean != 2.5 {
		t.Errorf("summarizeReturns: mean want(2.5) have(%v)", stats.Mean)
	}
	if want := math.Sqrt(1.25); math.Abs(stats.Std-want) > 1e-12 {
		t.Errorf("summarizeReturns: std want(%v) have(%v)", want, stats.Std)
	}

	if (SummarizeReturns(nil) != ReturnStats{}) {
		t.Error("summarizeReturns: expected zero stats for no returns")
	}
}

func TestGetEpisodeBatch(t *testing.T) {
	m := newMemory(t, 0.9, 100)
	fill(m, 3, 4)

	for ep := 0; ep < 3; ep++ {
		batch, err := m.GetEpisodeBatch(ep)
		if err != nil {
			t.Fatalf("getEpisodeBatch(%v): %v", ep, err)
		}

		obsRows, _ := batch.Observations.Dims()
		actRows, _ := batch.Actions.Dims()
		rewRows, _ := batch.Rewards.Dims()
		if obsRows != 4 || actRows != 4 || rewRows != 4 {
			t.Errorf("getEpisodeBatch(%v): rows want(4, 4, 4) have(%v, %v, %v)",
				ep, obsRows, actRows, rewRows)
		}

		// Insertion order is preserved
		for s := 0; s < 4; s++ {
			if e := batch.Observations.At(s, 0); e != float64(ep) {
				t.Errorf("getEpisodeBatch(%v): row %v from episode %v", ep, s, e)
			}
			if step := batch.Observations.At(s, 1); step != float64(s) {
				t.Errorf("getEpisodeBatch(%v): row %v holds step %v", ep, s,
					step)
			}
		}
	}
}

func TestGetEpisodeBatchInterleaved(t *testing.T) {
	m := newMemory(t, 0.9, 100)

	// Episodes 0 and 1 alternate on every add
	for s := 0; s < 4; s++ {
		for ep := 0; ep < 2; ep++ {
			obs := mat.NewVecDense(2, []float64{float64(ep), float64(s)})
			act := mat.NewVecDense(1, []float64{float64(10*ep + s)})
			m.AddExperience(obs, act, float64(100*ep+s), obs, s == 3, s, ep)
		}
	}

	for ep := 0; ep < 2; ep++ {
		batch, err := m.GetEpisodeBatch(ep)
		if err != nil {
			t.Fatalf("getEpisodeBatch(%v): %v", ep, err)
		}
		if rows, _ := batch.Observations.Dims(); rows != 4 {
			t.Fatalf("getEpisodeBatch(%v): rows want(4) have(%v)", ep, rows)
		}

		for s := 0; s < 4; s++ {
			if e := batch.Observations.At(s, 0); e != float64(ep) {
				t.Errorf("getEpisodeBatch(%v): row %v from episode %v", ep, s, e)
			}
			if step := batch.Observations.At(s, 1); step != float64(s) {
				t.Errorf("getEpisodeBatch(%v): row %v holds step %v", ep, s,
					step)
			}
			if a := batch.Actions.At(s, 0); a != float64(10*ep+s) {
				t.Errorf("getEpisodeBatch(%v): row %v action want(%v) "+
					"have(%v)", ep, s, 10*ep+s, a)
			}
			if r := batch.Rewards.At(s, 0); r != float64(100*ep+s) {
				t.Errorf("getEpisodeBatch(%v): row %v reward want(%v) "+
					"have(%v)", ep, s, 100*ep+s, r)
			}
		}
	}
}

func TestGetEpisodeBatchNotFound(t *testing.T) {
	m := newMemory(t, 0.9, 100)
	fill(m, 2, 2)

	_, err := m.GetEpisodeBatch(5)
	if !IsEpisodeNotFound(err) {
		t.Errorf("getEpisodeBatch: expected episode not found, have %v", err)
	}
}

func TestGetEpisodeBatchNaN(t *testing.T) {
	m := newMemory(t, 0.9, 100)
	fill(m, 2, 3)

	obs := mat.NewVecDense(2, []float64{math.NaN(), 0})
	m.AddExperience(obs, mat.NewVecDense(1, nil), 0, mat.NewVecDense(2, nil),
		false, 3, 1)

	if _, err := m.GetEpisodeBatch(0); err != nil {
		t.Errorf("getEpisodeBatch: clean episode failed: %v", err)
	}

	batch, err := m.GetEpisodeBatch(1)
	if err == nil {
		t.Fatalf("getEpisodeBatch: expected error for NaN, have batch %v",
			batch)
	}
	if !IsInvariantViolation(err) {
		t.Errorf("getEpisodeBatch: expected invariant violation, have %v", err)
	}
}

func TestGetEpisodeBatchRowMismatch(t *testing.T) {
	m := newMemory(t, 0.9, 100)
	m.AddExperience(mat.NewVecDense(2, nil), mat.NewVecDense(1, nil), 0,
		mat.NewVecDense(2, nil), false, 0, 0)
	m.AddExperience(mat.NewVecDense(3, nil), mat.NewVecDense(1, nil), 0,
		mat.NewVecDense(3, nil), false, 1, 0)

	_, err := m.GetEpisodeBatch(0)
	if !IsInvariantViolation(err) {
		t.Errorf("getEpisodeBatch: expected invariant violation, have %v", err)
	}
}

func TestGetRandomBatchWindow(t *testing.T) {
	const maxLength = 5
	m := newMemory(t, 0.9, maxLength)
	fill(m, 4, 5) // 20 experiences, the window is episode 3

	for i := 0; i < 50; i++ {
		batch, err := m.GetRandomBatch(8, false)
		if err != nil {
			t.Fatalf("getRandomBatch: %v", err)
		}
		if batch.Len() != maxLength {
			t.Errorf("getRandomBatch: rows want(%v) have(%v)", maxLength,
				batch.Len())
		}

		for r := 0; r < batch.Len(); r++ {
			exp := batch.Experience(r)
			if exp.Episode != 3 {
				t.Errorf("getRandomBatch: sampled episode %v outside window",
					exp.Episode)
			}
			if exp.Step < 0 || exp.Step >= 5 {
				t.Errorf("getRandomBatch: sampled step %v outside window",
					exp.Step)
			}
		}
	}
}

func TestGetRandomBatchSize(t *testing.T) {
	m := newMemory(t, 0.9, 100)
	fill(m, 2, 5)

	tests := []struct {
		batchSize int
		want      int
	}{
		{1, 1},
		{7, 7},
		{10, 10},
		{64, 10},
	}

	for _, test := range tests {
		batch, err := m.GetRandomBatch(test.batchSize, false)
		if err != nil {
			t.Fatalf("getRandomBatch(%v): %v", test.batchSize, err)
		}
		if batch.Len() != test.want {
			t.Errorf("getRandomBatch(%v): rows want(%v) have(%v)",
				test.batchSize, test.want, batch.Len())
		}
		if r, c := batch.Dense().Dims(); r != test.want || c != RowWidth(2, 1) {
			t.Errorf("getRandomBatch(%v): dims want(%v, %v) have(%v, %v)",
				test.batchSize, test.want, RowWidth(2, 1), r, c)
		}
	}
}

type recordingSaver struct {
	batches []*RawBatch
}

func (r *recordingSaver) SaveBatch(b *RawBatch) error {
	r.batches = append(r.batches, b)
	return nil
}

func TestGetRandomBatchSave(t *testing.T) {
	m := newMemory(t, 0.9, 100)
	fill(m, 1, 4)

	saver := &recordingSaver{}
	m.SetBatchSaver(saver)

	if _, err := m.GetRandomBatch(2, false); err != nil {
		t.Fatalf("getRandomBatch: %v", err)
	}
	if len(saver.batches) != 0 {
		t.Error("getRandomBatch: batch saved without saveBatch")
	}

	batch, err := m.GetRandomBatch(2, true)
	if err != nil {
		t.Fatalf("getRandomBatch: %v", err)
	}
	if len(saver.batches) != 1 || saver.batches[0] != batch {
		t.Error("getRandomBatch: batch not saved")
	}
}

func TestRawBatchSplit(t *testing.T) {
	m := newMemory(t, 0.9, 100)
	fill(m, 1, 3)

	batch, err := m.GetRandomBatch(6, false)
	if err != nil {
		t.Fatalf("getRandomBatch: %v", err)
	}

	obs, act, rew, next, err := batch.Split()
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	for i := 0; i < batch.Len(); i++ {
		exp := batch.Experience(i)
		if obs.At(i, 1) != float64(exp.Step) ||
			next.At(i, 1) != float64(exp.Step+1) {
			t.Errorf("split: row %v observations do not match step %v", i,
				exp.Step)
		}
		if act.At(i, 0) != float64(exp.Episode+exp.Step) {
			t.Errorf("split: row %v action want(%v) have(%v)", i,
				exp.Episode+exp.Step, act.At(i, 0))
		}
		if rew.At(i, 0) != exp.Reward {
			t.Errorf("split: row %v reward want(%v) have(%v)", i, exp.Reward,
				rew.At(i, 0))
		}
		if exp.Terminal != (exp.Step == 2) {
			t.Errorf("split: row %v terminal %v at step %v", i, exp.Terminal,
				exp.Step)
		}
	}
}

func TestOutputResults(t *testing.T) {
	m := newMemory(t, 0.9, 100)
	rewards := [][]float64{{1, 2}, {-5}, {4, 4, 4}, {0}, {3, 10}}
	for ep, rs := range rewards {
		for s, r := range rs {
			m.AddExperience(mat.NewVecDense(2, nil), mat.NewVecDense(1, nil), r,
				mat.NewVecDense(2, nil), s == len(rs)-1, s, ep)
		}
	}

	out := m.OutputResults()
	if out.Steps.Len() != 9 {
		t.Errorf("outputResults: step rows want(9) have(%v)", out.Steps.Len())
	}

	episodes := out.Episodes
	if episodes.Len() != 5 {
		t.Fatalf("outputResults: episode rows want(5) have(%v)",
			episodes.Len())
	}

	wantReward := []float64{3, -5, 12, 0, 13}
	if !floats.Equal(wantReward, episodes.Reward) {
		t.Errorf("outputResults: reward want(%v) have(%v)", wantReward,
			episodes.Reward)
	}
	wantMax := []float64{3, 3, 12, 12, 13}
	if !floats.Equal(wantMax, episodes.CumMaxReward) {
		t.Errorf("outputResults: cum max want(%v) have(%v)", wantMax,
			episodes.CumMaxReward)
	}
	for i := range episodes.Episode {
		if episodes.Terminal[i] != 1 {
			t.Errorf("outputResults: episode %v terminal count %v", i,
				episodes.Terminal[i])
		}
		if episodes.Steps[i] != len(rewards[i]) {
			t.Errorf("outputResults: episode %v steps want(%v) have(%v)", i,
				len(rewards[i]), episodes.Steps[i])
		}
	}

	// With 5 episodes the rolling window is 1
	if !floats.Equal(wantReward, episodes.RollingMean) {
		t.Errorf("outputResults: rolling mean want(%v) have(%v)", wantReward,
			episodes.RollingMean)
	}
	if !floats.Equal(make([]float64, 5), episodes.RollingStd) {
		t.Errorf("outputResults: rolling std want(0) have(%v)",
			episodes.RollingStd)
	}
}

func TestOutputResultsRolling(t *testing.T) {
	m := newMemory(t, 0.9, 100)
	for ep := 0; ep < 20; ep++ {
		m.AddExperience(mat.NewVecDense(2, nil), mat.NewVecDense(1, nil),
			float64(ep), mat.NewVecDense(2, nil), true, 0, ep)
	}

	episodes := m.OutputResults().Episodes

	// Window of floor(0.1 * 20) = 2 episodes, 1 at the start
	if episodes.RollingMean[0] != 0 || episodes.RollingStd[0] != 0 {
		t.Errorf("outputResults: first rolling stats want(0, 0) have(%v, %v)",
			episodes.RollingMean[0], episodes.RollingStd[0])
	}
	for i := 1; i < 20; i++ {
		if want := float64(i) - 0.5; episodes.RollingMean[i] != want {
			t.Errorf("outputResults: rolling mean %v want(%v) have(%v)", i,
				want, episodes.RollingMean[i])
		}
		if want := math.Sqrt(0.5); math.Abs(episodes.RollingStd[i]-want) >
			1e-12 {
			t.Errorf("outputResults: rolling std %v want(%v) have(%v)", i,
				want, episodes.RollingStd[i])
		}
	}
}

func TestCumMaxMonotone(t *testing.T) {
	inputs := [][]float64{
		{5, 4, 3, 2, 1},
		{-1, 7, -3, 8, 8, 0},
		{0},
		{},
	}
	for _, in := range inputs {
		out := cumMax(in)
		for i := 1; i < len(out); i++ {
			if out[i] < out[i-1] {
				t.Errorf("cumMax(%v): decreasing at %v: %v", in, i, out)
			}
		}
	}
}

func TestOutputResultsIdempotent(t *testing.T) {
	m := newMemory(t, 0.9, 100)
	fill(m, 6, 3)
	if err := m.Record(TDError, 0.5, -0.5); err != nil {
		t.Fatalf("record: %v", err)
	}

	first := m.OutputResults()
	second := m.OutputResults()

	if !floats.Equal(first.Episodes.Reward, second.Episodes.Reward) ||
		!floats.Equal(first.Episodes.CumMaxReward,
			second.Episodes.CumMaxReward) ||
		!floats.Equal(first.Episodes.RollingMean,
			second.Episodes.RollingMean) ||
		!floats.Equal(first.Episodes.RollingStd, second.Episodes.RollingStd) {
		t.Error("outputResults: episode tables differ between calls")
	}
	if !floats.Equal(first.Steps.Reward, second.Steps.Reward) ||
		first.Steps.Len() != second.Steps.Len() {
		t.Error("outputResults: step tables differ between calls")
	}
	if first.Info.Len(TDError) != 1 || second.Info.Len(TDError) != 1 {
		t.Error("outputResults: info records differ between calls")
	}
}

func TestReset(t *testing.T) {
	m := newMemory(t, 0.9, 100)
	fill(m, 3, 3)
	if err := m.Record(CriticLoss, 1.0); err != nil {
		t.Fatalf("record: %v", err)
	}
	m.OutputResults()

	for i := 0; i < 2; i++ {
		m.Reset()

		if m.Len() != 0 {
			t.Errorf("reset: experiences remain: %v", m.Len())
		}
		if !m.Info().Empty() {
			t.Error("reset: info not empty")
		}
		out := m.Outputs()
		if out.Steps.Len() != 0 || out.Episodes.Len() != 0 ||
			!out.Info.Empty() {
			t.Error("reset: outputs not empty")
		}

		batch, err := m.GetRandomBatch(32, false)
		if err != nil {
			t.Errorf("getRandomBatch: empty memory: %v", err)
		}
		if batch.Len() != 0 || batch.Dense() != nil {
			t.Errorf("getRandomBatch: empty memory returned %v rows",
				batch.Len())
		}
	}
}

func TestRecordUnknownMetric(t *testing.T) {
	m := newMemory(t, 0.9, 100)

	for _, metric := range Metrics {
		if m.Info().Len(metric) != 0 {
			t.Errorf("new: metric %v not initialized empty", metric)
		}
		if err := m.Record(metric, 1); err != nil {
			t.Errorf("record(%v): %v", metric, err)
		}
	}

	if err := m.Record("entropy", 1); !IsUnknownMetric(err) {
		t.Errorf("record: expected unknown metric, have %v", err)
	}
}
