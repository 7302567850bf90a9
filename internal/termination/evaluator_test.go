package termination_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/hoverlab/internal/dynamo"
	"github.com/san-kum/hoverlab/internal/termination"
)

var _ = Describe("Evaluator", func() {
	const penalty = -1020000.0

	var eval *termination.Evaluator

	BeforeEach(func() {
		eval = termination.NewEvaluator(60, termination.DefaultOutOfBoundsMultiplier, 100, penalty)
	})

	It("keeps a healthy in-bounds episode running", func() {
		v := eval.Check(termination.Input{CrewCount: 1, Situation: dynamo.Flying, Latest: 120, Elapsed: 10})
		Expect(v.Done).To(BeFalse())
		Expect(v.Reason).To(Equal(termination.None))
		Expect(v.Penalty).To(BeZero())
	})

	DescribeTable("inoperable vessels",
		func(crew int, situation dynamo.Situation) {
			v := eval.Check(termination.Input{CrewCount: crew, Situation: situation, Latest: 50, Elapsed: 1})
			Expect(v.Done).To(BeTrue())
			Expect(v.Reason).To(Equal(termination.Inoperable))
			Expect(v.Penalty).To(Equal(penalty))
		},
		Entry("no crew", 0, dynamo.Flying),
		Entry("splashed", 3, dynamo.Splashed),
		Entry("no crew and splashed", 0, dynamo.Splashed),
	)

	It("reports out of bounds above five times the target", func() {
		v := eval.Check(termination.Input{CrewCount: 1, Situation: dynamo.Flying, Latest: 500.1, Elapsed: 1})
		Expect(v.Done).To(BeTrue())
		Expect(v.Reason).To(Equal(termination.OutOfBounds))
		Expect(v.Penalty).To(Equal(penalty))
	})

	It("does not trip out of bounds exactly at the ceiling", func() {
		v := eval.Check(termination.Input{CrewCount: 1, Situation: dynamo.Flying, Latest: 500, Elapsed: 1})
		Expect(v.Done).To(BeFalse())
	})

	It("prefers inoperable over out of bounds and timeout", func() {
		v := eval.Check(termination.Input{CrewCount: 0, Situation: dynamo.Splashed, Latest: 9000, Elapsed: 600})
		Expect(v.Reason).To(Equal(termination.Inoperable))
	})

	It("prefers out of bounds over timeout", func() {
		v := eval.Check(termination.Input{CrewCount: 1, Situation: dynamo.Flying, Latest: 9000, Elapsed: 600})
		Expect(v.Reason).To(Equal(termination.OutOfBounds))
	})

	DescribeTable("timeouts",
		func(situation dynamo.Situation, expectedPenalty float64) {
			v := eval.Check(termination.Input{CrewCount: 1, Situation: situation, Latest: 100, Elapsed: 60.5})
			Expect(v.Done).To(BeTrue())
			Expect(v.Reason).To(Equal(termination.Timeout))
			Expect(v.Penalty).To(Equal(expectedPenalty))
		},
		Entry("landed is penalized", dynamo.Landed, penalty),
		Entry("flying is not", dynamo.Flying, 0.0),
		Entry("pre-launch is not", dynamo.PreLaunch, 0.0),
		Entry("sub-orbital is not", dynamo.SubOrbital, 0.0),
	)

	It("does not time out before max runtime", func() {
		v := eval.Check(termination.Input{CrewCount: 1, Situation: dynamo.Landed, Latest: 0, Elapsed: 60})
		Expect(v.Done).To(BeFalse())
	})

	It("names reasons for display", func() {
		Expect(termination.None.String()).To(Equal("running"))
		Expect(termination.OutOfBounds.String()).To(Equal("out of bounds"))
	})
})
