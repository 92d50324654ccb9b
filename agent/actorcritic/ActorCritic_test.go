package actorcritic

import (
	"fmt"
	"testing"

	"github.com/samuelfneumann/energyac/agent"
	"github.com/samuelfneumann/energyac/environment"
	"github.com/samuelfneumann/energyac/memory"
	ts "github.com/samuelfneumann/energyac/timestep"
	"gonum.org/v1/gonum/mat"
)

// fakeCritic predicts a constant value for every observation
type fakeCritic struct {
	value   float64
	loss    float64
	calls   *[]string
	tdError *mat.VecDense
}

func (f *fakeCritic) Predict(obs *mat.Dense) (*mat.VecDense, error) {
	*f.calls = append(*f.calls, "critic.predict")
	r, _ := obs.Dims()
	values := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		values.SetVec(i, f.value)
	}
	return values, nil
}

func (f *fakeCritic) Improve(obs *mat.Dense, target *mat.VecDense) (
	*mat.VecDense, float64, error) {
	*f.calls = append(*f.calls, "critic.improve")
	f.tdError = mat.NewVecDense(target.Len(), nil)
	for i := 0; i < target.Len(); i++ {
		f.tdError.SetVec(i, target.AtVec(i)-f.value)
	}

	// The critic changes after improving, so a stale TD error would
	// differ from the one returned here
	f.value += 100
	return f.tdError, f.loss, nil
}

// fakeActor returns a fixed action and records the advantages it is
// given
type fakeActor struct {
	action    *mat.Dense
	loss      float64
	calls     *[]string
	state     *mat.Dense
	advantage *mat.VecDense
	err       error
}

func (f *fakeActor) GetAction(state *mat.Dense) (*mat.Dense, *mat.Dense,
	error) {
	f.state = mat.DenseCopyOf(state)
	return f.action, nil, f.err
}

func (f *fakeActor) Improve(obs, actions *mat.Dense,
	advantage *mat.VecDense) (float64, error) {
	*f.calls = append(*f.calls, "actor.improve")
	f.advantage = advantage
	return f.loss, nil
}

func specs() (environment.Spec, environment.Spec) {
	obs := environment.NewSpec(mat.NewVecDense(2, nil), environment.Observation,
		mat.NewVecDense(2, []float64{0, -1}), mat.NewVecDense(2, []float64{10, 1}),
		environment.Continuous)
	act := environment.NewSpec(mat.NewVecDense(1, nil), environment.Action,
		mat.NewVecDense(1, []float64{-2}), mat.NewVecDense(1, []float64{2}),
		environment.Continuous)
	return obs, act
}

func newAgent(t *testing.T, discount float64) (*ActorCritic, *fakeActor,
	*fakeCritic, *[]string) {
	t.Helper()
	obsSpec, actSpec := specs()

	m, err := memory.New(obsSpec, actSpec, discount, 100, 1)
	if err != nil {
		t.Fatalf("memory: %v", err)
	}

	calls := &[]string{}
	actor := &fakeActor{
		action: mat.NewDense(1, 1, []float64{0.5}),
		loss:   0.25,
		calls:  calls,
	}
	critic := &fakeCritic{value: 2, loss: 0.5, calls: calls}

	ac, err := New(actor, critic, m, obsSpec, actSpec)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return ac, actor, critic, calls
}

func TestAct(t *testing.T) {
	ac, actor, _, _ := newAgent(t, 0.9)

	action, err := ac.Act(mat.NewVecDense(2, []float64{5, 1}))
	if err != nil {
		t.Fatalf("act: %v", err)
	}
	if r, c := action.Dims(); r != 1 || c != 1 {
		t.Errorf("act: action dims want(1, 1) have(%v, %v)", r, c)
	}

	// Observations are scaled before reaching the actor
	want := mat.NewDense(1, 2, []float64{0.5, 1})
	if !mat.Equal(want, actor.state) {
		t.Errorf("act: actor state want(%v) have(%v)", want, actor.state)
	}
}

func TestActInvalid(t *testing.T) {
	ac, actor, _, _ := newAgent(t, 0.9)

	if _, err := ac.Act(mat.NewVecDense(3, nil)); err == nil {
		t.Error("act: expected error for wrong observation dimensions")
	}

	actor.action = mat.NewDense(1, 2, nil)
	if _, err := ac.Act(mat.NewVecDense(2, nil)); err == nil {
		t.Error("act: expected error for wrong action shape")
	}

	actor.err = fmt.Errorf("actor failure")
	if _, err := ac.Act(mat.NewVecDense(2, nil)); err == nil {
		t.Error("act: expected actor error to propagate")
	}
}

func TestLearn(t *testing.T) {
	ac, actor, critic, calls := newAgent(t, 0.5)

	obs := mat.NewDense(3, 2, nil)
	actions := mat.NewDense(3, 1, []float64{0.1, 0.2, 0.3})
	rewards := mat.NewDense(3, 1, []float64{1, 0, -1})
	nextObs := mat.NewDense(3, 2, nil)

	loss, err := ac.Learn(obs, actions, rewards, nextObs)
	if err != nil {
		t.Fatalf("learn: %v", err)
	}
	if loss != 0.75 {
		t.Errorf("learn: loss want(0.75) have(%v)", loss)
	}

	wantCalls := []string{"critic.predict", "critic.improve", "actor.improve"}
	if fmt.Sprint(*calls) != fmt.Sprint(wantCalls) {
		t.Errorf("learn: calls want(%v) have(%v)", wantCalls, *calls)
	}

	// The actor receives exactly the TD error returned by the critic
	if actor.advantage != critic.tdError {
		t.Error("learn: actor did not receive the critic's TD error")
	}

	// target = r + ℽ v(s') = r + 0.5 * 2
	info := ac.Memory().Info()
	wantTarget := []float64{2, 1, 0}
	target, _ := info.Last(memory.ValueTarget)
	if fmt.Sprint(target) != fmt.Sprint(wantTarget) {
		t.Errorf("learn: value target want(%v) have(%v)", wantTarget, target)
	}
	tdError, _ := info.Last(memory.TDError)
	if fmt.Sprint(tdError) != fmt.Sprint([]float64{0, -1, -2}) {
		t.Errorf("learn: td error want([0 -1 -2]) have(%v)", tdError)
	}
	for metric, want := range map[memory.Metric]float64{
		memory.CriticLoss: 0.5,
		memory.ActorLoss:  0.25,
	} {
		have, ok := info.Last(metric)
		if !ok || len(have) != 1 || have[0] != want {
			t.Errorf("learn: %v want(%v) have(%v)", metric, want, have)
		}
	}
}

func TestLearnRewardMismatch(t *testing.T) {
	ac, _, _, _ := newAgent(t, 0.5)

	_, err := ac.Learn(mat.NewDense(2, 2, nil), mat.NewDense(2, 1, nil),
		mat.NewDense(3, 1, nil), mat.NewDense(2, 2, nil))
	if err == nil {
		t.Error("learn: expected error for mismatched rewards")
	}
}

// env is a minimal environment exposing only its Specs
type env struct {
	obs, act environment.Spec
}

func (e env) Reset() (ts.TimeStep, error) { return ts.TimeStep{}, nil }

func (e env) Step(*mat.VecDense) (ts.TimeStep, bool, error) {
	return ts.TimeStep{}, true, nil
}

func (e env) DiscountSpec() environment.Spec    { return environment.Spec{} }
func (e env) ObservationSpec() environment.Spec { return e.obs }
func (e env) ActionSpec() environment.Spec      { return e.act }

func TestConfigCreateAgent(t *testing.T) {
	obsSpec, actSpec := specs()
	discrete := environment.NewSpec(mat.NewVecDense(1, nil),
		environment.Action, mat.NewVecDense(1, []float64{0}),
		mat.NewVecDense(1, []float64{1}), environment.Discrete)

	config := Config{
		Critic:             agent.Linear,
		Discount:           0.99,
		MemoryLength:       10,
		ActorLearningRate:  0.01,
		CriticLearningRate: 0.1,
	}

	for _, act := range []environment.Spec{actSpec, discrete} {
		a, err := config.CreateAgent(env{obsSpec, act}, 1)
		if err != nil {
			t.Fatalf("createAgent: %v", err)
		}

		action, err := a.Act(mat.NewVecDense(2, []float64{1, 0}))
		if err != nil {
			t.Fatalf("act: %v", err)
		}
		if r, c := action.Dims(); r != 1 || c != 1 {
			t.Errorf("act: action dims want(1, 1) have(%v, %v)", r, c)
		}
		if a.Memory().Discount() != 0.99 || a.Memory().MaxLength() != 10 {
			t.Error("createAgent: memory not configured")
		}
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		Critic:             agent.Linear,
		Discount:           0.9,
		MemoryLength:       1,
		ActorLearningRate:  0.1,
		CriticLearningRate: 0.1,
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}

	invalid := []Config{
		{Critic: agent.Linear, Discount: 2, MemoryLength: 1,
			ActorLearningRate: 0.1, CriticLearningRate: 0.1},
		{Critic: agent.Linear, Discount: 0.9, MemoryLength: 0,
			ActorLearningRate: 0.1, CriticLearningRate: 0.1},
		{Critic: agent.Linear, Discount: 0.9, MemoryLength: 1,
			ActorLearningRate: 0.1},
		{Critic: agent.MLP, Discount: 0.9, MemoryLength: 1,
			ActorLearningRate: 0.1, HiddenSizes: []int{4}},
		{Critic: "Tabular", Discount: 0.9, MemoryLength: 1,
			ActorLearningRate: 0.1},
		{Policy: "EGreedy", Critic: agent.Linear, Discount: 0.9,
			MemoryLength: 1, ActorLearningRate: 0.1, CriticLearningRate: 0.1},
	}
	for i, c := range invalid {
		if err := c.Validate(); err == nil {
			t.Errorf("validate: expected error for config %v", i)
		}
	}
}
