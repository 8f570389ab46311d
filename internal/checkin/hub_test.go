package checkin_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jmfitness/studio-management/internal/checkin"
	"github.com/jmfitness/studio-management/internal/core/events"
	"github.com/jmfitness/studio-management/pkg/logger"
)

var _ = Describe("Hub", func() {
	var (
		hub    *checkin.Hub
		bus    *events.EventBus
		server *httptest.Server
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		hub = checkin.NewHub()
		go hub.Run(ctx)

		bus = events.NewEventBus(logger.LoggerWrapper())
		hub.Subscribe(bus)
		server = httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	})

	AfterEach(func() {
		server.Close()
		cancel()
	})

	It("pushes check-ins to connected screens", func() {
		url := "ws" + strings.TrimPrefix(server.URL, "http")
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()

		Eventually(hub.Clients).Should(Equal(1))

		Expect(bus.PublishSync(context.Background(),
			events.NewCheckInRecordedEvent("c1", "u1", "Ana", checkin.MethodCPF, "09:30"))).To(Succeed())

		Expect(conn.SetReadDeadline(time.Now().Add(2 * time.Second))).To(Succeed())
		_, raw, err := conn.ReadMessage()
		Expect(err).NotTo(HaveOccurred())

		var msg struct {
			Type string            `json:"type"`
			Data map[string]string `json:"data"`
		}
		Expect(json.Unmarshal(raw, &msg)).To(Succeed())
		Expect(msg.Type).To(Equal(events.EventTypeCheckInRecorded))
		Expect(msg.Data).To(HaveKeyWithValue("user_name", "Ana"))
	})

	It("pushes fee payments to connected screens", func() {
		url := "ws" + strings.TrimPrefix(server.URL, "http")
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()

		Eventually(hub.Clients).Should(Equal(1))

		Expect(bus.PublishSync(context.Background(),
			events.NewFeePaidEvent("u1", 15000, "pix", time.Now()))).To(Succeed())

		Expect(conn.SetReadDeadline(time.Now().Add(2 * time.Second))).To(Succeed())
		_, raw, err := conn.ReadMessage()
		Expect(err).NotTo(HaveOccurred())

		var msg struct {
			Type string                 `json:"type"`
			Data map[string]interface{} `json:"data"`
		}
		Expect(json.Unmarshal(raw, &msg)).To(Succeed())
		Expect(msg.Type).To(Equal(events.EventTypeFeePaid))
		Expect(msg.Data).To(HaveKeyWithValue("user_id", "u1"))
	})

	It("forgets screens that disconnect", func() {
		url := "ws" + strings.TrimPrefix(server.URL, "http")
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		Expect(err).NotTo(HaveOccurred())
		Eventually(hub.Clients).Should(Equal(1))

		Expect(conn.Close()).To(Succeed())
		Eventually(hub.Clients).Should(BeZero())
	})
})
