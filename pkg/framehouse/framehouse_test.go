package framehouse

import (
	"encoding/hex"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bio-routing/framehouse/pkg/models/frame"
	"github.com/bio-routing/framehouse/pkg/packet/packet"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storageMock struct {
	batches [][]*frame.Frame
	err     error
}

func (s *storageMock) InsertFrames(frames []*frame.Frame) error {
	s.batches = append(s.batches, frames)
	return s.err
}

func TestStore(t *testing.T) {
	tests := []struct {
		name        string
		batch       []*frame.Frame
		err         error
		wantBatches int
	}{
		{
			name:        "Empty batch is skipped",
			batch:       []*frame.Frame{},
			wantBatches: 0,
		},
		{
			name:        "Batch is inserted",
			batch:       []*frame.Frame{{Kind: frame.KindARP}},
			wantBatches: 1,
		},
		{
			name:        "Insert error is logged only",
			batch:       []*frame.Frame{{Kind: frame.KindIPv4}},
			err:         errors.New("connection refused"),
			wantBatches: 1,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := &storageMock{err: test.err}
			f := &Framehouse{storage: s}

			f.store(test.batch)
			assert.Len(t, s.batches, test.wantBatches)
		})
	}
}

func TestStoreWithoutStorage(t *testing.T) {
	f := &Framehouse{}
	f.store([]*frame.Frame{{Kind: frame.KindUnknown}})
}

func TestMetricsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "framehouse",
		Name:      "test_total",
		Help:      "Test counter",
	})
	reg.MustRegister(c)
	c.Inc()

	f := &Framehouse{registry: reg}
	srv := httptest.NewServer(f.handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "framehouse_test_total 1")

	resp2, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "boom")
}

func TestProcessBatchesDrainsOnStop(t *testing.T) {
	s := &storageMock{}
	f := &Framehouse{
		storage:  s,
		framesRX: make(chan []*frame.Frame, 3),
		stopCh:   make(chan struct{}),
	}

	f.framesRX <- []*frame.Frame{{Kind: frame.KindARP}}
	f.framesRX <- []*frame.Frame{}
	f.framesRX <- []*frame.Frame{{Kind: frame.KindIPv4}, {Kind: frame.KindIPv4}}
	close(f.stopCh)

	f.processBatches()
	assert.Len(t, s.batches, 2)
	assert.Len(t, f.framesRX, 0)
}

// sflow v5 datagram from 192.0.2.100 carrying one flow sample (rate 256, ifIndex 1 > 2) with a 42 byte ARP request
const arpDatagramHex = "00000005 00000001 c0000264 00000000 00000001 000003e8 00000001" +
	"00000001 00000064" +
	"00000001 00000003 00000100 000003e8 00000000 00000001 00000002 00000001" +
	"00000001 0000003c 00000001 00000040 00000004 0000002a" +
	"ffffffffffff 000100010001 0806 0001 0800 06 04 0001 000100010001 c0000201 000000000000 c0000202 0000"

func TestNewAndRun(t *testing.T) {
	fh, err := New(&Config{
		ListenSflow:       "127.0.0.1:0",
		ListenHTTP:        "127.0.0.1:0",
		Workers:           1,
		ARPWidths:         packet.ARPWidthsByHeaderLengths,
		AggregationWindow: time.Hour,
	})
	require.NoError(t, err)

	s := &storageMock{}
	fh.storage = s

	done := make(chan struct{})
	go func() {
		fh.Run()
		close(done)
	}()

	dg, err := hex.DecodeString(strings.ReplaceAll(arpDatagramHex, " ", ""))
	require.NoError(t, err)

	conn, err := net.Dial("udp", fh.sfs.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write(dg)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		n, err := testutil.GatherAndCount(fh.registry, "framehouse_sflow_decoded_frames")
		return err == nil && n == 1
	}, 5*time.Second, 10*time.Millisecond)

	fh.Stop()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Stop")
	}

	require.Len(t, s.batches, 1)
	require.Len(t, s.batches[0], 1)
	assert.Equal(t, frame.KindARP, s.batches[0][0].Kind)
	assert.Equal(t, uint32(1), s.batches[0][0].IntIn)
	assert.Equal(t, uint32(2), s.batches[0][0].IntOut)
	assert.Equal(t, uint64(256), s.batches[0][0].Samplerate)
	assert.Equal(t, uint64(64), s.batches[0][0].Size)
}
