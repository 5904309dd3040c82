package restclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simple-restclient/restclient/domain"
	"simple-restclient/restclient/infra"
)

type stubCall struct {
	method string
	url    string
	at     time.Time
}

// stubExecutor registra cada delegação e quantas estavam em andamento ao mesmo tempo.
type stubExecutor struct {
	hold time.Duration
	resp *Response
	err  error

	mu       sync.Mutex
	inFlight int
	maxSeen  int
	calls    []stubCall
}

func (s *stubExecutor) call(method, url string) (*Response, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxSeen {
		s.maxSeen = s.inFlight
	}
	s.calls = append(s.calls, stubCall{method: method, url: url, at: time.Now()})
	s.mu.Unlock()

	time.Sleep(s.hold)

	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
	return s.resp, s.err
}

func (s *stubExecutor) snapshot() ([]stubCall, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]stubCall(nil), s.calls...), s.maxSeen
}

func (s *stubExecutor) Get(_ context.Context, url string, _ Headers) (*Response, error) {
	return s.call(http.MethodGet, url)
}

func (s *stubExecutor) Post(_ context.Context, url string, _ Body, _ Headers) (*Response, error) {
	return s.call(http.MethodPost, url)
}

func (s *stubExecutor) Put(_ context.Context, url string, _ Body, _ Headers) (*Response, error) {
	return s.call(http.MethodPut, url)
}

func (s *stubExecutor) Delete(_ context.Context, url string, _ Headers) (*Response, error) {
	return s.call(http.MethodDelete, url)
}

func (s *stubExecutor) Head(_ context.Context, url string, _ Headers) (*Response, error) {
	return s.call(http.MethodHead, url)
}

func TestRateLimited_PassesThroughExecutorResult(t *testing.T) {
	want := newResponse(&http.Response{StatusCode: http.StatusOK})
	stub := &stubExecutor{resp: want}
	rl := NewRateLimited(RateLimitOptions{Delay: time.Millisecond, Executor: stub})

	got, err := rl.Get(context.Background(), "http://x/1", nil)
	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestRateLimited_PassesThroughExecutorError(t *testing.T) {
	errBoom := errors.New("boom")
	stub := &stubExecutor{err: errBoom}
	rl := NewRateLimited(RateLimitOptions{Delay: time.Millisecond, Executor: stub})

	// duas chamadas seguidas: a falha não pode deixar o portão preso
	for i := 0; i < 2; i++ {
		resp, err := rl.Post(context.Background(), "http://x/1", Text("data"), nil)
		assert.Nil(t, resp)
		assert.ErrorIs(t, err, errBoom)
	}
	calls, _ := stub.snapshot()
	assert.Len(t, calls, 2)
}

func TestRateLimited_DispatchesEachVerb(t *testing.T) {
	stub := &stubExecutor{}
	rl := NewRateLimited(RateLimitOptions{Executor: stub})
	ctx := context.Background()

	_, _ = rl.Get(ctx, "http://x/get", nil)
	_, _ = rl.Post(ctx, "http://x/post", Text("p"), nil)
	_, _ = rl.Put(ctx, "http://x/put", Text("p"), nil)
	_, _ = rl.Delete(ctx, "http://x/delete", nil)
	_, _ = rl.Head(ctx, "http://x/head", nil)

	calls, _ := stub.snapshot()
	require.Len(t, calls, 5)
	want := []string{
		"GET http://x/get",
		"POST http://x/post",
		"PUT http://x/put",
		"DELETE http://x/delete",
		"HEAD http://x/head",
	}
	for i, c := range calls {
		assert.Equal(t, want[i], c.method+" "+c.url)
	}
}

func TestRateLimited_AtMostOneCallInFlight(t *testing.T) {
	stub := &stubExecutor{hold: 5 * time.Millisecond}
	rl := NewRateLimited(RateLimitOptions{Delay: 2 * time.Millisecond, Executor: stub})

	var wg conc.WaitGroup
	for i := 0; i < 8; i++ {
		i := i
		wg.Go(func() {
			_, err := rl.Get(context.Background(), fmt.Sprintf("http://x/%d", i), nil)
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	calls, maxSeen := stub.snapshot()
	assert.Len(t, calls, 8)
	assert.Equal(t, 1, maxSeen)
}

func TestRateLimited_SpacesAdmissionsByDelay(t *testing.T) {
	const delay = 50 * time.Millisecond
	stub := &stubExecutor{}
	rl := NewRateLimited(RateLimitOptions{Delay: delay, Executor: stub})

	start := time.Now()
	var wg conc.WaitGroup
	for i := 1; i <= 3; i++ {
		i := i
		wg.Go(func() {
			_, _ = rl.Get(context.Background(), fmt.Sprintf("http://x/%d", i), nil)
		})
	}
	wg.Wait()

	calls, _ := stub.snapshot()
	require.Len(t, calls, 3)
	// a primeira também espera o delay a partir da aquisição
	assert.GreaterOrEqual(t, calls[0].at.Sub(start), delay)
	for i := 1; i < len(calls); i++ {
		gap := calls[i].at.Sub(calls[i-1].at)
		assert.GreaterOrEqual(t, gap, delay, "gap between call %d and %d", i-1, i)
	}
}

func TestRateLimited_AdmitsInArrivalOrder(t *testing.T) {
	stub := &stubExecutor{}
	rl := NewRateLimited(RateLimitOptions{Delay: 30 * time.Millisecond, Executor: stub})

	var wg conc.WaitGroup
	for i := 0; i < 4; i++ {
		i := i
		wg.Go(func() {
			_, _ = rl.Get(context.Background(), fmt.Sprintf("http://x/%d", i), nil)
		})
		// garante a ordem de chegada na fila
		time.Sleep(10 * time.Millisecond)
	}
	wg.Wait()

	calls, _ := stub.snapshot()
	require.Len(t, calls, 4)
	for i, c := range calls {
		assert.Equal(t, fmt.Sprintf("http://x/%d", i), c.url)
	}
}

func TestRateLimited_CancelDuringDelayReturnsAbsence(t *testing.T) {
	stub := &stubExecutor{}
	rl := NewRateLimited(RateLimitOptions{Delay: 200 * time.Millisecond, Executor: stub})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	resp, err := rl.Get(ctx, "http://x/cancelled", nil)
	assert.Nil(t, resp)
	assert.NoError(t, err)

	calls, _ := stub.snapshot()
	assert.Empty(t, calls, "cancelled caller must not delegate")

	// o portão foi liberado: a próxima chamada passa
	rl.svc.Delay = time.Millisecond
	_, err = rl.Get(context.Background(), "http://x/next", nil)
	require.NoError(t, err)
	calls, _ = stub.snapshot()
	assert.Len(t, calls, 1)
}

func TestRateLimited_CancelledWaiterDoesNotBlockOthers(t *testing.T) {
	stub := &stubExecutor{}
	rl := NewRateLimited(RateLimitOptions{Delay: 60 * time.Millisecond, Executor: stub})

	var wg conc.WaitGroup
	wg.Go(func() {
		_, _ = rl.Get(context.Background(), "http://x/a", nil)
	})
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		resp *Response
		err  error
	}
	cancelled := make(chan result, 1)
	wg.Go(func() {
		resp, err := rl.Get(ctx, "http://x/b", nil)
		cancelled <- result{resp, err}
	})
	time.Sleep(10 * time.Millisecond)

	wg.Go(func() {
		_, _ = rl.Get(context.Background(), "http://x/c", nil)
	})
	time.Sleep(10 * time.Millisecond)
	cancel()

	wg.Wait()
	res := <-cancelled
	assert.Nil(t, res.resp)
	assert.NoError(t, res.err)

	calls, _ := stub.snapshot()
	require.Len(t, calls, 2)
	assert.Equal(t, "http://x/a", calls[0].url)
	assert.Equal(t, "http://x/c", calls[1].url)
}

func TestRateLimited_RecordsAdmissionStats(t *testing.T) {
	stats := infra.NewMemoryStatsStore(infra.WithTrackHosts(true))
	stub := &stubExecutor{}
	rl := NewRateLimited(RateLimitOptions{Delay: 100 * time.Millisecond, Executor: stub, Stats: stats})

	_, err := rl.Get(context.Background(), "http://api.example/1", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, _ = rl.Put(ctx, "http://api.example/2", Text("x"), nil)

	assert.Equal(t, infra.Counters{Admitted: 1, Cancelled: 1}, stats.Total())
	assert.Equal(t, infra.Counters{Admitted: 1}, stats.ByMethod()[http.MethodGet])
	assert.Equal(t, infra.Counters{Cancelled: 1}, stats.ByMethod()[http.MethodPut])
	assert.Equal(t, infra.Counters{Admitted: 1, Cancelled: 1}, stats.ByHost()["api.example"])
	// só a admitida conta, e ela esperou o delay inteiro
	assert.GreaterOrEqual(t, stats.MeanQueued(), 100*time.Millisecond)
}

type failingStats struct{}

func (failingStats) Record(context.Context, domain.AdmissionEvent) error {
	return errors.New("stats down")
}

func TestRateLimited_StatsFailureIsIgnored(t *testing.T) {
	want := newResponse(&http.Response{StatusCode: http.StatusOK})
	rl := NewRateLimited(RateLimitOptions{Executor: &stubExecutor{resp: want}, Stats: failingStats{}})

	got, err := rl.Get(context.Background(), "http://x/1", nil)
	require.NoError(t, err)
	assert.Same(t, want, got)
}

// Pool fixo de workers disparando vários GETs contra um servidor real, como
// uma chamada de produção faria.
func TestRateLimited_WorkerPoolAgainstServer(t *testing.T) {
	const (
		delay    = 20 * time.Millisecond
		requests = 8
	)
	var (
		mu       sync.Mutex
		arrivals []time.Time
	)
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			arrivals = append(arrivals, time.Now())
			mu.Unlock()
			fmt.Fprint(w, "viola")
		}))
	defer ts.Close()

	var rq Requester = NewRateLimited(RateLimitOptions{Delay: delay})

	start := time.Now()
	p := pool.New().WithMaxGoroutines(4).WithErrors()
	for i := 0; i < requests; i++ {
		i := i
		p.Go(func() error {
			resp, err := rq.Get(context.Background(), fmt.Sprintf("%s/%d", ts.URL, i), nil)
			if err != nil {
				return err
			}
			content, err := resp.ReadResponse()
			if err != nil {
				return err
			}
			if content != "viola" {
				return fmt.Errorf("task %d: unexpected content %q", i, content)
			}
			return nil
		})
	}
	require.NoError(t, p.Wait())

	assert.GreaterOrEqual(t, time.Since(start), requests*delay)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, arrivals, requests)
	// a chegada no servidor inclui a latência de rede, que varia entre conexões
	for i := 1; i < len(arrivals); i++ {
		assert.GreaterOrEqual(t, arrivals[i].Sub(arrivals[i-1]), delay/2)
	}
}

func TestNewRateLimited_Defaults(t *testing.T) {
	rl := NewRateLimited(RateLimitOptions{Delay: -time.Second})

	assert.Equal(t, time.Duration(0), rl.svc.Delay)
	assert.IsType(t, &Client{}, rl.next)
	assert.IsType(t, &infra.Gate{}, rl.svc.Gate)
	assert.Nil(t, rl.stats)
}
