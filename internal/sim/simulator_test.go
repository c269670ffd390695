package sim_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/physics"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/vector"
)

const (
	earthMass   = 5.972e24
	earthRadius = 6378000.0
)

func bounded(start, step, end float64) sim.Config {
	return sim.Config{TStart: start, TStep: step, TEnd: &end}
}

func earthApple(cfg sim.Config, height float64) *sim.Simulation[[2]float64] {
	s := sim.New[[2]float64](cfg)
	s.AddBody(body.Body[[2]float64]{Label: "earth", Mass: earthMass})
	s.AddBody(body.Body[[2]float64]{Label: "apple", Mass: 1, Position: vector.New2(0, earthRadius+height)})
	return s
}

func collect[C vector.Components](st interface {
	Next() (sim.RunStep[C], bool)
}, limit int) []sim.RunStep[C] {
	var out []sim.RunStep[C]
	for limit <= 0 || len(out) < limit {
		step, ok := st.Next()
		if !ok {
			break
		}
		out = append(out, step)
	}
	return out
}

func positions[C vector.Components](steps []sim.RunStep[C]) [][]vector.Vector[C] {
	out := make([][]vector.Vector[C], len(steps))
	for i, st := range steps {
		for _, b := range st.Bodies.Bodies() {
			out[i] = append(out[i], b.Position, b.Velocity)
		}
	}
	return out
}

type nanLaw struct{}

func (nanLaw) Calculate(on, from body.Body[[1]float64]) body.Force[[1]float64] {
	return body.Force[[1]float64]{Label: "nan", V: vector.New1(math.NaN())}
}

var _ = Describe("Stepper", func() {
	Describe("time convention", func() {
		It("emits the initial configuration first", func() {
			s := earthApple(bounded(5, 0.1, 10), 1)
			run := sim.NewRun(s)

			step, ok := run.Next()
			Expect(ok).To(BeTrue())
			Expect(step.T).To(Equal(5.0))

			apple, ok := step.Bodies.Get("apple")
			Expect(ok).To(BeTrue())
			Expect(apple.Position).To(Equal(vector.New2(0, earthRadius+1)))
			Expect(run.State()).To(Equal(sim.Running))
		})

		It("emits exactly one step when t_end equals t_start", func() {
			run := sim.NewRun(earthApple(bounded(3, 0.1, 3), 1))

			steps := collect[[2]float64](run, 0)
			Expect(steps).To(HaveLen(1))
			Expect(steps[0].T).To(Equal(3.0))
			Expect(run.State()).To(Equal(sim.Exhausted))
			Expect(run.Err()).NotTo(HaveOccurred())

			_, ok := run.Next()
			Expect(ok).To(BeFalse())
		})

		It("treats t_end as inclusive", func() {
			steps := collect[[2]float64](sim.NewRun(earthApple(bounded(0, 0.1, 1), 1)), 0)
			Expect(steps).To(HaveLen(11))
			for k, st := range steps {
				Expect(st.T).To(BeNumerically("~", float64(k)*0.1, 1e-12))
			}
			Expect(steps[10].T).To(BeNumerically("~", 1.0, 1e-12))
		})

		It("never terminates an unbounded run on its own", func() {
			run := sim.NewRun(earthApple(sim.DefaultConfig(), 1000))
			steps := collect[[2]float64](run, 500)
			Expect(steps).To(HaveLen(500))
			Expect(run.State()).To(Equal(sim.Running))
		})
	})

	Describe("determinism", func() {
		It("produces identical sequences from Run, a second Run and OwningRun", func() {
			s := sim.New[[3]float64](bounded(0, 60, 6000))
			s.AddBody(body.Body[[3]float64]{Label: "earth", Mass: earthMass})
			s.AddBody(body.Body[[3]float64]{
				Label:    "moon",
				Mass:     7.342e22,
				Position: vector.New3(3.844e8, 0, 0),
				Velocity: vector.New3(0, 1022, 0),
				Spin:     &body.Spin{Velocity: 2.66e-6},
			})

			a := collect[[3]float64](sim.NewRun(s), 0)
			b := collect[[3]float64](sim.NewRun(s), 0)
			c := collect[[3]float64](sim.NewOwningRun(*s), 0)

			Expect(a).To(HaveLen(101))
			Expect(positions(b)).To(Equal(positions(a)))
			Expect(positions(c)).To(Equal(positions(a)))
		})

		It("replays the same sequence after Reset", func() {
			run := sim.NewOwningRun(*earthApple(bounded(0, 0.5, 5), 100))
			first := collect[[2]float64](run, 0)

			run.Reset()
			Expect(run.State()).To(Equal(sim.NotStarted))
			second := collect[[2]float64](run, 0)

			Expect(positions(second)).To(Equal(positions(first)))
		})

		It("is unaffected by changes to the source after an OwningRun is created", func() {
			s := earthApple(bounded(0, 0.1, 1), 1)
			run := sim.NewOwningRun(*s)
			s.AddBody(body.Body[[2]float64]{Label: "moon", Mass: 1, Position: vector.New2(1e9, 0)})

			step, ok := run.Next()
			Expect(ok).To(BeTrue())
			Expect(step.Bodies.Len()).To(Equal(2))
		})
	})

	Describe("physics", func() {
		It("moves an apple by half g dt squared in one step", func() {
			dt := 0.1
			run := sim.NewRun(earthApple(bounded(0, dt, dt), 1))
			steps := collect[[2]float64](run, 0)
			Expect(steps).To(HaveLen(2))

			before, _ := steps[0].Bodies.Get("apple")
			after, _ := steps[1].Bodies.Get("apple")

			r := earthRadius + 1
			g := physics.DefaultG * earthMass / (r * r)
			want := 0.5 * g * dt * dt

			got := after.Position.Distance(before.Position)
			Expect(math.Abs(got-want) / want).To(BeNumerically("<", 1e-6))
			Expect(after.Position.At(1)).To(BeNumerically("<", before.Position.At(1)))
			Expect(after.Forces).To(HaveLen(1))
			Expect(after.Forces[0].Label).To(Equal("gravity_earth"))
		})

		It("keeps the centre of mass of a symmetric pair at the origin", func() {
			s := sim.New[[3]float64](bounded(0, 1, 100))
			s.SetLaw(physics.NewGravity[[3]float64](1))
			s.AddBody(body.Body[[3]float64]{Label: "a", Mass: 10, Position: vector.New3(-50, 0, 0)})
			s.AddBody(body.Body[[3]float64]{Label: "b", Mass: 10, Position: vector.New3(50, 0, 0)})

			for step := range sim.NewRun(s).Steps() {
				com := physics.CenterOfMass(step.Bodies.Bodies())
				Expect(com.Magnitude()).To(BeNumerically("<", 1e-9))
			}
		})

		It("pulls an equilateral triangle toward its centroid", func() {
			s := sim.New[[2]float64](bounded(0, 0.01, 0.01))
			s.SetLaw(physics.NewGravity[[2]float64](1))
			h := math.Sqrt(3) / 2
			s.AddBody(body.Body[[2]float64]{Label: "a", Mass: 1, Position: vector.New2(0, 0)})
			s.AddBody(body.Body[[2]float64]{Label: "b", Mass: 1, Position: vector.New2(1, 0)})
			s.AddBody(body.Body[[2]float64]{Label: "c", Mass: 1, Position: vector.New2(0.5, h)})
			centroid := vector.New2(0.5, h/3)

			steps := collect[[2]float64](sim.NewRun(s), 0)
			Expect(steps).To(HaveLen(2))

			for _, label := range []string{"a", "b", "c"} {
				before, _ := steps[0].Bodies.Get(label)
				after, _ := steps[1].Bodies.Get(label)

				disp := after.Position.Sub(before.Position).Normalize()
				toward := before.Position.Direction(centroid)
				Expect(disp.Dot(toward)).To(BeNumerically("~", 1, 1e-9))
			}
		})

		It("leaves emitted snapshots untouched by later steps", func() {
			run := sim.NewRun(earthApple(bounded(0, 1, 10), 0))
			first, _ := run.Next()
			held, _ := first.Bodies.Get("apple")

			collect[[2]float64](run, 0)

			again, _ := first.Bodies.Get("apple")
			Expect(again.Position).To(Equal(held.Position))
			Expect(again.Velocity).To(Equal(held.Velocity))
		})
	})

	Describe("validation", func() {
		DescribeTable("rejects invalid configurations",
			func(build func() *sim.Simulation[[2]float64], want error) {
				run := sim.NewRun(build())
				_, ok := run.Next()
				Expect(ok).To(BeFalse())
				Expect(run.Err()).To(MatchError(want))
				Expect(run.State()).To(Equal(sim.Exhausted))
			},
			Entry("no bodies", func() *sim.Simulation[[2]float64] {
				return sim.New[[2]float64](sim.DefaultConfig())
			}, sim.ErrNoBodies),
			Entry("zero step", func() *sim.Simulation[[2]float64] {
				return earthApple(sim.Config{TStep: 0}, 1)
			}, sim.ErrInvalidStep),
			Entry("end before start", func() *sim.Simulation[[2]float64] {
				return earthApple(bounded(1, 0.1, 0), 1)
			}, sim.ErrInvalidEnd),
			Entry("zero mass", func() *sim.Simulation[[2]float64] {
				s := earthApple(sim.DefaultConfig(), 1)
				s.AddBody(body.Body[[2]float64]{Label: "ghost", Position: vector.New2(1, 1)})
				return s
			}, sim.ErrNonPositiveMass),
			Entry("duplicate label", func() *sim.Simulation[[2]float64] {
				s := earthApple(sim.DefaultConfig(), 1)
				s.AddBody(body.Body[[2]float64]{Label: "earth", Mass: 1, Position: vector.New2(1, 1)})
				return s
			}, sim.ErrDuplicateLabel),
			Entry("coincident bodies", func() *sim.Simulation[[2]float64] {
				s := earthApple(sim.DefaultConfig(), 1)
				s.AddBody(body.Body[[2]float64]{Label: "twin", Mass: 1})
				return s
			}, sim.ErrCoincidentBodies),
		)

		It("aborts with a StepError when a snapshot turns non-finite", func() {
			s := sim.New[[1]float64](sim.DefaultConfig())
			s.SetLaw(nanLaw{})
			s.AddBody(body.Body[[1]float64]{Label: "a", Mass: 1})
			s.AddBody(body.Body[[1]float64]{Label: "b", Mass: 1, Position: vector.New1(1)})

			run := sim.NewRun(s)
			steps := collect[[1]float64](run, 10)
			Expect(steps).To(HaveLen(1))

			var stepErr *sim.StepError
			Expect(run.Err()).To(BeAssignableToTypeOf(stepErr))
			Expect(run.Err()).To(MatchError(sim.ErrInvalidState))
			stepErr = run.Err().(*sim.StepError)
			Expect(stepErr.Step).To(Equal(1))
		})

		It("lets NaN through when state validation is off", func() {
			s := sim.New[[1]float64](sim.DefaultConfig())
			s.SetLaw(nanLaw{})
			s.AddBody(body.Body[[1]float64]{Label: "a", Mass: 1})
			s.AddBody(body.Body[[1]float64]{Label: "b", Mass: 1, Position: vector.New1(1)})

			run := sim.NewRun(s, sim.WithStateValidation(false))
			steps := collect[[1]float64](run, 3)
			Expect(steps).To(HaveLen(3))
			Expect(run.Err()).NotTo(HaveOccurred())
			Expect(steps[2].Bodies.IsFinite()).To(BeFalse())
		})
	})

	Describe("Steps", func() {
		It("stops pulling when the loop breaks", func() {
			run := sim.NewRun(earthApple(sim.DefaultConfig(), 10))
			n := 0
			for range run.Steps() {
				n++
				if n == 7 {
					break
				}
			}
			step, ok := run.Next()
			Expect(ok).To(BeTrue())
			Expect(step.T).To(BeNumerically("~", 0.7, 1e-12))
		})
	})
})

type stepCounter struct{ n int }

func (c *stepCounter) Name() string                    { return "steps" }
func (c *stepCounter) Observe(sim.RunStep[[2]float64]) { c.n++ }
func (c *stepCounter) Value() float64                  { return float64(c.n) }
func (c *stepCounter) Reset()                          { c.n = 0 }

var _ = Describe("Ensemble", func() {
	It("runs every step size to t_end", func() {
		s := earthApple(bounded(0, 0.1, 1), 10)
		ens := sim.NewEnsemble(s, []float64{0.1, 0.25, 0.5}, 0).
			WithMetrics(func() []sim.Metric[[2]float64] {
				return []sim.Metric[[2]float64]{&stepCounter{}}
			})

		results, err := ens.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))

		Expect(results[0].Steps).To(Equal(11))
		Expect(results[1].Steps).To(Equal(5))
		Expect(results[2].Steps).To(Equal(3))
		Expect(results[2].Metrics).To(HaveKeyWithValue("steps", 3.0))
		Expect(results[2].Final.T).To(BeNumerically("~", 1.0, 1e-12))
	})

	It("requires a limit for unbounded simulations", func() {
		_, err := sim.NewEnsemble(earthApple(sim.DefaultConfig(), 10), []float64{0.1}, 0).Run(context.Background())
		Expect(err).To(MatchError(sim.ErrUnbounded))
	})

	It("stops at the limit", func() {
		results, err := sim.NewEnsemble(earthApple(sim.DefaultConfig(), 10), []float64{0.1, 0.2}, 4).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(results[0].Steps).To(Equal(4))
		Expect(results[1].Final.T).To(BeNumerically("~", 0.6, 1e-12))
	})

	It("reports cancellation", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := sim.NewEnsemble(earthApple(sim.DefaultConfig(), 10), []float64{0.1}, 100).Run(ctx)
		Expect(err).To(MatchError(context.Canceled))
	})
})
