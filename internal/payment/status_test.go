package payment_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jmfitness/studio-management/internal/payment"
)

func at(year int, month time.Month, day, hour int) *payment.StatusCalculator {
	return payment.NewStatusCalculator(func() time.Time {
		return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
	})
}

func date(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

var _ = Describe("StatusCalculator", func() {
	Describe("IsPaymentUpToDate", func() {
		It("treats an unpaid fee as current until the due day", func() {
			Expect(at(2025, time.March, 5, 10).IsPaymentUpToDate(10, nil, false)).To(BeTrue())
			Expect(at(2025, time.March, 10, 23).IsPaymentUpToDate(10, nil, false)).To(BeTrue())
		})

		It("flags an unpaid fee once the due day has passed", func() {
			Expect(at(2025, time.March, 15, 10).IsPaymentUpToDate(10, nil, false)).To(BeFalse())
			Expect(at(2025, time.March, 11, 0).IsPaymentUpToDate(10, nil, false)).To(BeFalse())
		})

		It("keeps a fee paid this month current on any day", func() {
			paidOn := date(2025, time.March, 3)
			for _, day := range []int{1, 3, 10, 15, 31} {
				Expect(at(2025, time.March, day, 12).IsPaymentUpToDate(10, paidOn, true)).To(BeTrue(), "day %d", day)
			}
		})

		It("does not count a payment from the same month of another year", func() {
			Expect(at(2025, time.March, 20, 12).IsPaymentUpToDate(10, date(2024, time.March, 3), true)).To(BeFalse())
		})

		It("does not count last month's payment while the flag is still set", func() {
			Expect(at(2025, time.March, 5, 12).IsPaymentUpToDate(10, date(2025, time.February, 3), true)).To(BeFalse())
		})

		It("falls back to the due day when paid has no date", func() {
			Expect(at(2025, time.March, 5, 12).IsPaymentUpToDate(10, nil, true)).To(BeTrue())
			Expect(at(2025, time.March, 25, 12).IsPaymentUpToDate(10, nil, true)).To(BeFalse())
		})

		It("compares a due day beyond the month length verbatim", func() {
			Expect(at(2025, time.February, 28, 12).IsPaymentUpToDate(31, nil, false)).To(BeTrue())
		})
	})

	Describe("DaysUntilDue", func() {
		It("rounds partial days up", func() {
			Expect(at(2025, time.March, 5, 12).DaysUntilDue(10)).To(Equal(5))
		})

		It("is zero on the due day at midnight", func() {
			Expect(at(2025, time.March, 10, 0).DaysUntilDue(10)).To(Equal(0))
		})

		It("is zero later on the due day", func() {
			Expect(at(2025, time.March, 10, 15).DaysUntilDue(10)).To(Equal(0))
		})

		It("rolls to next month once the due day has passed", func() {
			Expect(at(2025, time.March, 15, 0).DaysUntilDue(10)).To(Equal(26))
		})

		It("crosses the year boundary", func() {
			Expect(at(2025, time.December, 20, 0).DaysUntilDue(5)).To(Equal(16))
		})

		It("clamps the due day to the last day of a short month", func() {
			Expect(at(2025, time.February, 1, 0).DaysUntilDue(31)).To(Equal(27))
		})

		It("clamps when rolling into a short month", func() {
			Expect(at(2025, time.January, 31, 0).DaysUntilDue(30)).To(Equal(28))
		})
	})

	Describe("NextDueDate", func() {
		It("is the due day of the following month", func() {
			Expect(at(2025, time.January, 31, 9).NextDueDate(10)).To(Equal(time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC)))
		})
	})

	DescribeTable("IsValidDueDate",
		func(day int, valid bool) {
			Expect(payment.IsValidDueDate(day)).To(Equal(valid))
		},
		Entry("zero", 0, false),
		Entry("first", 1, true),
		Entry("tenth", 10, true),
		Entry("eleventh", 11, false),
		Entry("thirty-first", 31, false),
	)
})
