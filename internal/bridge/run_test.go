package bridge

import (
	"bufio"
	"context"
	"net"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aprstoot/internal/config"
	"aprstoot/internal/dedup"
	"aprstoot/internal/logger"
)

// End-to-end: a fake APRS-IS server feeds one addressed message over TCP,
// the bridge acks it on the same socket and publishes it once.
func TestRunStreamsAcksAndPublishes(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	logins := make(chan string, 1)
	acks := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)

		login, _ := r.ReadString('\n')
		logins <- login

		conn.Write([]byte("# aprsc test server\r\n"))
		conn.Write([]byte("N0CALL>APRS,TCPIP*::URCAL-15 :Hello{001\r\n"))

		ack, _ := r.ReadString('\n')
		acks <- ack
	}()

	repo, err := dedup.NewSQLiteRepository(context.Background(), filepath.Join(t.TempDir(), "messages.db"))
	require.NoError(t, err)
	defer repo.Close()

	cfg := &config.Config{
		Feed: config.FeedConfig{
			Host:        host,
			Port:        port,
			Callsign:    "URCAL",
			SSID:        "15",
			Passcode:    "12345",
			Filter:      "t/m",
			DialTimeout: 2 * time.Second,
			IdleTimeout: 2 * time.Second,
		},
		Reconnect: config.ReconnectConfig{
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     50 * time.Millisecond,
			Multiplier:      2.0,
		},
	}

	pub := &fakePublisher{}
	svc := dedup.NewService(repo, dedup.NewHasher("md5"), logger.NopLogger())
	b := New(cfg, svc, pub, logger.NopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- b.Run(ctx)
	}()

	select {
	case login := <-logins:
		assert.Equal(t, "user URCAL-15 pass 12345 vers APRSTOOT 1.0 filter t/m\r\n", login)
	case <-time.After(3 * time.Second):
		t.Fatal("bridge never logged in")
	}

	select {
	case ack := <-acks:
		assert.Equal(t, "URCAL-15>APRS,TCPIP*::N0CALL   :ack001\r\n", ack)
	case <-time.After(3 * time.Second):
		t.Fatal("bridge never acked the message")
	}

	// The publish happens before the ack-read returns on the server side,
	// but give the pipeline a moment regardless.
	require.Eventually(t, func() bool {
		count, err := repo.Count(context.Background())
		return err == nil && count == 1
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("bridge did not stop on context cancel")
	}

	assert.Equal(t, []string{"N0CALL: Hello"}, pub.posts)
}

func runTestBridge(t *testing.T, feed config.FeedConfig) *Bridge {
	t.Helper()

	repo, err := dedup.NewSQLiteRepository(context.Background(), filepath.Join(t.TempDir(), "messages.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	cfg := &config.Config{
		Feed: feed,
		Reconnect: config.ReconnectConfig{
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
			Multiplier:      2.0,
		},
	}

	svc := dedup.NewService(repo, dedup.NewHasher("md5"), logger.NopLogger())
	return New(cfg, svc, &fakePublisher{}, logger.NopLogger())
}

// The health handler polls ConnectionState while the session goroutine swaps
// the client in and out on every reconnect. Run with the race detector.
func TestConnectionStateConcurrentWithRun(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	// Dropping every connection immediately keeps the bridge cycling
	// through connect and teardown for the whole test.
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	b := runTestBridge(t, config.FeedConfig{
		Host:        host,
		Port:        port,
		Callsign:    "URCAL",
		SSID:        "15",
		Passcode:    "12345",
		Filter:      "t/m",
		DialTimeout: time.Second,
		IdleTimeout: 100 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- b.Run(ctx)
	}()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			deadline := time.Now().Add(500 * time.Millisecond)
			for time.Now().Before(deadline) {
				_ = b.ConnectionState()
			}
		}()
	}
	wg.Wait()

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("bridge did not stop on context cancel")
	}
}

// Shutdown must not wait out the idle timeout when the read side is blocked
// on a silent connection.
func TestRunCancelInterruptsBlockedRead(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	logins := make(chan struct{}, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		bufio.NewReader(conn).ReadString('\n')
		logins <- struct{}{}
		// Hold the connection open without sending anything.
		time.Sleep(10 * time.Second)
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	b := runTestBridge(t, config.FeedConfig{
		Host:        host,
		Port:        port,
		Callsign:    "URCAL",
		SSID:        "15",
		Passcode:    "12345",
		Filter:      "t/m",
		DialTimeout: 2 * time.Second,
		IdleTimeout: time.Minute,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- b.Run(ctx)
	}()

	select {
	case <-logins:
	case <-time.After(3 * time.Second):
		t.Fatal("bridge never logged in")
	}

	start := time.Now()
	cancel()
	select {
	case <-done:
		assert.Less(t, time.Since(start), 3*time.Second)
	case <-time.After(5 * time.Second):
		t.Fatal("cancel did not interrupt the blocked read")
	}
}
