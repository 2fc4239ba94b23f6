package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"time"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/device"
	"github.com/MrEthical07/goGate/session"
)

const racerUA = "Mozilla/5.0 (X11; Linux x86_64) racecheck"

// roundResult is the outcome of one burst of concurrent reissues that all
// present the same refresh credential.
type roundResult struct {
	winners    int
	mismatches int
	notFound   int
	failures   int
	// orphans are winners whose new refresh credential is not the stored one.
	orphans   int
	latencies []time.Duration
}

func (r *roundResult) add(o roundResult) {
	r.winners += o.winners
	r.mismatches += o.mismatches
	r.notFound += o.notFound
	r.failures += o.failures
	r.orphans += o.orphans
	r.latencies = append(r.latencies, o.latencies...)
}

type outcome struct {
	refresh string
	err     error
	d       time.Duration
}

// runRound logs subject in and fires concurrency reissues at once with the
// login's refresh credential. Without a user directory the subject is the
// store user id.
func runRound(ctx context.Context, engine *goGate.Engine, store *session.Store, subject string, concurrency int) (roundResult, error) {
	login, err := engine.CompleteLogin(ctx, httptest.NewRecorder(), newRacerRequest(nil), goGate.Identity{
		SocialID: subject,
		Role:     "ROLE_USER",
	})
	if err != nil {
		return roundResult{}, fmt.Errorf("login %s: %w", subject, err)
	}
	refreshCookie := engine.NewRefreshCookie(login.Refresh)

	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		results = make([]outcome, concurrency)
	)
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := newRacerRequest(refreshCookie)
			<-start
			t0 := time.Now()
			res, err := engine.Reissue(ctx, httptest.NewRecorder(), req)
			results[i] = outcome{err: err, d: time.Since(t0)}
			if err == nil {
				results[i].refresh = res.Refresh
			}
		}(i)
	}
	close(start)
	wg.Wait()

	stored, err := store.Get(ctx, session.Key{UserID: subject, Device: device.Classify(racerUA).String()})
	if err != nil {
		return roundResult{}, fmt.Errorf("read record %s: %w", subject, err)
	}

	out := roundResult{latencies: make([]time.Duration, 0, concurrency)}
	for _, o := range results {
		out.latencies = append(out.latencies, o.d)
		switch {
		case o.err == nil:
			out.winners++
			if o.refresh != stored {
				out.orphans++
			}
		case errors.Is(o.err, goGate.ErrSessionTokenMismatch):
			out.mismatches++
		case errors.Is(o.err, goGate.ErrSessionNotFound):
			out.notFound++
		default:
			out.failures++
		}
	}
	return out, nil
}

func newRacerRequest(refresh *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reissue", nil)
	req.Header.Set("User-Agent", racerUA)
	if refresh != nil {
		req.AddCookie(refresh)
	}
	return req
}

type phaseStats struct {
	total   time.Duration
	ops     int
	p50     time.Duration
	p95     time.Duration
	p99     time.Duration
	opsPerS float64
}

func computeStats(total time.Duration, samples []time.Duration) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:   total,
		ops:     len(samples),
		p50:     percentile(samples, 50),
		p95:     percentile(samples, 95),
		p99:     percentile(samples, 99),
		opsPerS: float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}
