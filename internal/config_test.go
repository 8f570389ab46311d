package internal_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jmfitness/studio-management/internal"
)

var _ = Describe("Config", func() {
	setRequired := func() {
		GinkgoT().Setenv("DATABASE_URL", "postgres://studio:studio@db:5432/studio")
		GinkgoT().Setenv("JWT_SECRET", "production-secret-0123456789abcdef")
	}

	It("builds from the environment", func() {
		setRequired()
		GinkgoT().Setenv("PORT", "9000")
		GinkgoT().Setenv("SCHEDULER_TIMEZONE", "America/Recife")
		GinkgoT().Setenv("MEILI_HOST", "http://search:7700")

		cfg, err := internal.LoadConfigFromEnv()

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Server.Port).To(Equal(9000))
		Expect(cfg.Scheduler.Timezone).To(Equal("America/Recife"))
		Expect(cfg.Scheduler.TokenCleanupSpec).To(Equal("30 3 * * *"))
		Expect(cfg.Search.Enabled()).To(BeTrue())
		Expect(cfg.Security.LoginWindow).To(Equal(15 * time.Minute))
	})

	It("requires a database source", func() {
		GinkgoT().Setenv("DATABASE_URL", "")
		GinkgoT().Setenv("JWT_SECRET", "production-secret-0123456789abcdef")

		_, err := internal.LoadConfigFromEnv()

		Expect(err).To(MatchError(ContainSubstring("source is required")))
	})

	It("rejects an invalid cron spec", func() {
		setRequired()
		GinkgoT().Setenv("SCHEDULER_PAYMENT_RESET_SPEC", "every monday")

		_, err := internal.LoadConfigFromEnv()

		Expect(err).To(MatchError(ContainSubstring("invalid cron spec")))
	})

	It("skips scheduler checks when it is disabled", func() {
		cfg := internal.SchedulerConfig{Enabled: false, Timezone: "Nowhere/Unknown"}
		Expect(cfg.Validate()).To(Succeed())
	})

	It("requires cloudinary credentials once a cloud is named", func() {
		cfg := internal.StorageConfig{CloudName: "jmfitness"}
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("api_key")))
	})
})
