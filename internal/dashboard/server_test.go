package dashboard_test

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"mapwatch/internal/dashboard"
	"mapwatch/internal/logging"
	"mapwatch/internal/store"
)

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

var _ = Describe("Server", func() {
	It("serves until the context is cancelled", func() {
		dir, err := os.MkdirTemp("", "mapwatch-server-")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)

		st, err := store.OpenSQLite(context.Background(), filepath.Join(dir, "detections.db"))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(st.Close)

		ctx, cancel := context.WithCancel(context.Background())
		srv := dashboard.NewServer("127.0.0.1:0", dashboard.NewHandler(st, dir, logging.NewNop()))
		Expect(srv.Start(ctx)).To(Succeed())

		resp, err := http.Get("http://" + srv.Addr() + "/healthz")
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		cancel()
		Eventually(func() error {
			r, err := http.Get("http://" + srv.Addr() + "/healthz")
			if err == nil {
				r.Body.Close()
			}
			return err
		}, 2*time.Second, 50*time.Millisecond).Should(HaveOccurred())
	})
})
