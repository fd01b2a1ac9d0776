package sources

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/proxy"

	"github.com/DosDaiynSol/infinity-life-assistant/models"
)

// ProxyPool rotates outbound SOCKS5 clients for Threads API calls so a single
// egress IP never carries every request. Each proxy is reused at most once
// per minInterval and sits out a cooldown after a rate-limit response.
type ProxyPool struct {
	clients     []*http.Client
	hosts       []string
	index       atomic.Uint64
	cooldowns   map[int]time.Time
	lastUsed    map[int]time.Time
	counters    map[int]*proxyCounters
	mu          sync.Mutex
	minInterval time.Duration
}

type proxyCounters struct {
	successes int
	failures  int
}

func NewProxyPool(proxyURLs []string) (*ProxyPool, error) {
	if len(proxyURLs) == 0 {
		return nil, errors.New("no proxy URLs provided")
	}

	clients := make([]*http.Client, 0, len(proxyURLs))
	hosts := make([]string, 0, len(proxyURLs))
	seen := make(map[string]bool)

	for _, proxyURL := range proxyURLs {
		if seen[proxyURL] {
			if parsed, err := url.Parse(proxyURL); err == nil {
				slog.Warn("duplicate proxy URL, skipping", "host", parsed.Host)
			}
			continue
		}
		seen[proxyURL] = true

		client, err := createProxyClient(proxyURL)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)

		// Host only, never credentials
		if parsed, err := url.Parse(proxyURL); err == nil {
			hosts = append(hosts, parsed.Host)
		} else {
			hosts = append(hosts, "unknown")
		}
	}

	counters := make(map[int]*proxyCounters, len(clients))
	for i := range clients {
		counters[i] = &proxyCounters{}
	}

	slog.Info("proxy pool created", "count", len(clients), "hosts", hosts)

	return &ProxyPool{
		clients:     clients,
		hosts:       hosts,
		cooldowns:   make(map[int]time.Time),
		lastUsed:    make(map[int]time.Time),
		counters:    counters,
		minInterval: 30 * time.Second,
	}, nil
}

func createProxyClient(proxyURL string) (*http.Client, error) {
	client := &http.Client{Timeout: 15 * time.Second}

	parsedURL, err := url.Parse(proxyURL)
	if err != nil {
		return nil, err
	}
	if parsedURL.Scheme != "socks5" {
		return client, nil
	}

	var auth *proxy.Auth
	if parsedURL.User != nil {
		password, _ := parsedURL.User.Password()
		auth = &proxy.Auth{
			User:     parsedURL.User.Username(),
			Password: password,
		}
	}

	dialer, err := proxy.SOCKS5("tcp", parsedURL.Host, auth, proxy.Direct)
	if err != nil {
		return nil, err
	}

	client.Transport = &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		},
	}

	return client, nil
}

// Next returns a client not on cooldown and not used within minInterval,
// blocking until one frees up.
func (p *ProxyPool) Next() (*http.Client, string) {
	n := len(p.clients)

	p.mu.Lock()

	for {
		now := time.Now()

		for attempt := 0; attempt < n; attempt++ {
			idx := p.index.Add(1) - 1
			i := int(idx % uint64(n))

			if cooldownUntil, ok := p.cooldowns[i]; ok && now.Before(cooldownUntil) {
				continue
			}
			if lastUsed, ok := p.lastUsed[i]; ok && now.Sub(lastUsed) < p.minInterval {
				continue
			}

			p.lastUsed[i] = now
			p.mu.Unlock()
			return p.clients[i], p.hosts[i]
		}

		// All busy or cooling down - find the one available soonest
		var soonestAvailable time.Time
		for i := 0; i < n; i++ {
			availableAt := p.lastUsed[i].Add(p.minInterval)
			if cooldownUntil, ok := p.cooldowns[i]; ok && cooldownUntil.After(availableAt) {
				availableAt = cooldownUntil
			}

			if soonestAvailable.IsZero() || availableAt.Before(soonestAvailable) {
				soonestAvailable = availableAt
			}
		}

		waitDuration := time.Until(soonestAvailable)
		if waitDuration > 0 {
			p.mu.Unlock()
			slog.Debug("all proxies busy, waiting", "wait_ms", waitDuration.Milliseconds())
			time.Sleep(waitDuration)
			p.mu.Lock()
		}
	}
}

// MarkRateLimited puts a proxy on cooldown.
func (p *ProxyPool) MarkRateLimited(host string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	duration := 30 * time.Second

	for i, h := range p.hosts {
		if h == host {
			p.cooldowns[i] = time.Now().Add(duration)
			slog.Debug("proxy on cooldown", "host", host, "duration_seconds", duration.Seconds())
			return
		}
	}
}

func (p *ProxyPool) MarkSuccess(host string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, h := range p.hosts {
		if h == host {
			p.counters[i].successes++
			return
		}
	}
}

func (p *ProxyPool) MarkFailure(host string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, h := range p.hosts {
		if h == host {
			p.counters[i].failures++
			return
		}
	}
}

// Stats returns per-host success and failure counts for the stats endpoint.
func (p *ProxyPool) Stats() map[string]models.ProxyStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := make(map[string]models.ProxyStats, len(p.hosts))
	for i, h := range p.hosts {
		stats[h] = models.ProxyStats{
			Successes: p.counters[i].successes,
			Failures:  p.counters[i].failures,
		}
	}
	return stats
}
