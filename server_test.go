// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package agent

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gogama/agent/request"
	"github.com/gogama/agent/retry"
	"github.com/gogama/agent/timeout"
	"github.com/gogama/agent/transport"
	"github.com/gogama/agent/transport/socket"
	"github.com/gogama/agent/transport/xhr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var httpServer = httptest.NewUnstartedServer(http.HandlerFunc(serverHandler))
var httpsServer = httptest.NewUnstartedServer(http.HandlerFunc(serverHandler))
var http2Server = httptest.NewUnstartedServer(http.HandlerFunc(serverHandler))
var servers = []*httptest.Server{httpServer, httpsServer, http2Server}

func TestMain(m *testing.M) {
	httpServer.Start()
	defer httpServer.Close()
	httpsServer.StartTLS()
	defer httpsServer.Close()
	http2Server.EnableHTTP2 = true
	http2Server.StartTLS()
	defer http2Server.Close()
	os.Exit(m.Run())
}

func serverName(server *httptest.Server) string {
	switch server {
	case httpServer:
		return "http"
	case httpsServer:
		return "https"
	case http2Server:
		return "http2"
	default:
		panic("unknown server")
	}
}

// transports returns one factory per transport adapter, each able to
// reach server.
func transports(server *httptest.Server) map[string]transport.Factory {
	return map[string]transport.Factory{
		"socket": socket.New(server.Client()),
		"xhr":    xhr.New(resty.NewWithClient(server.Client())),
	}
}

// forEachTransport runs f once for every combination of test server
// and transport adapter.
func forEachTransport(t *testing.T, f func(t *testing.T, server *httptest.Server, factory transport.Factory)) {
	for _, server := range servers {
		for name, factory := range transports(server) {
			server, factory := server, factory
			t.Run(serverName(server)+"/"+name, func(t *testing.T) {
				f(t, server, factory)
			})
		}
	}
}

const instructionHeader = "X-Instruction"

type bodyChunk struct {
	Pause time.Duration
	Data  []byte
}

// A serverInstruction tells serverHandler how to respond. It travels in
// the X-Instruction request header so that requests keep their own
// bodies.
type serverInstruction struct {
	HeaderPause time.Duration
	StatusCode  int
	ContentType string
	Body        []bodyChunk

	// Echo replaces Body with a JSON description of the request.
	Echo bool

	// FailKey and FailTimes make the first FailTimes requests carrying
	// the same FailKey respond with status 503.
	FailKey   string
	FailTimes int
}

func (i *serverInstruction) String() string {
	b, err := json.Marshal(i)
	if err != nil {
		panic(err)
	}
	return string(b)
}

func (i *serverInstruction) fromRequest(req *http.Request) error {
	return json.Unmarshal([]byte(req.Header.Get(instructionHeader)), i)
}

type echo struct {
	Method string            `json:"method"`
	Query  string            `json:"query"`
	Header map[string]string `json:"header"`
	Body   string            `json:"body"`
}

var failures = struct {
	sync.Mutex
	seen map[string]int
}{seen: make(map[string]int)}

func failNow(key string, times int) bool {
	if key == "" {
		return false
	}
	failures.Lock()
	defer failures.Unlock()
	failures.seen[key]++
	return failures.seen[key] <= times
}

func serverHandler(w http.ResponseWriter, req *http.Request) {
	// Decode the instructions.
	var i serverInstruction
	err := i.fromRequest(req)
	if err != nil {
		w.WriteHeader(400)
		_, _ = io.WriteString(w, fmt.Sprintf("failed to read instruction: %s", err.Error()))
		return
	}

	// Validate the instruction.
	if i.StatusCode == 0 {
		w.WriteHeader(400)
		_, _ = io.WriteString(w, fmt.Sprintf("bad StatusCode in instruction: %v", &i))
		return
	}

	if failNow(i.FailKey, i.FailTimes) {
		w.WriteHeader(503)
		return
	}

	if i.Echo {
		b, _ := io.ReadAll(req.Body)
		e := echo{
			Method: req.Method,
			Query:  req.URL.RawQuery,
			Header: make(map[string]string),
			Body:   string(b),
		}
		for name := range req.Header {
			e.Header[name] = req.Header.Get(name)
		}
		data, _ := json.Marshal(e)
		i.ContentType = "application/json"
		i.Body = []bodyChunk{{Data: data}}
	}

	// Get the Flusher, panicking if it's not available.
	f, ok := w.(http.Flusher)
	if !ok {
		panic("w does not implement Flusher")
	}

	header := w.Header()
	if i.ContentType != "" {
		header.Set("Content-Type", i.ContentType)
	}
	var out io.Writer = w
	if strings.Contains(req.Header.Get("Accept-Encoding"), "gzip") {
		header.Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		defer gz.Close()
		out = gz
	}

	// Sleep for the duration indicated by the pause field. This is done
	// to allow the client to play with timeouts.
	time.Sleep(i.HeaderPause)

	w.WriteHeader(i.StatusCode)
	f.Flush()

	for _, chunk := range i.Body {
		time.Sleep(chunk.Pause)
		if _, err = out.Write(chunk.Data); err != nil {
			return
		}
		if gz, ok := out.(*gzip.Writer); ok {
			_ = gz.Flush()
		}
		f.Flush()
	}
}

func TestEndToEnd(t *testing.T) {
	t.Run("echo", testEndToEndEcho)
	t.Run("multipart", testEndToEndMultipart)
	t.Run("head", testEndToEndHead)
	t.Run("not found", testEndToEndNotFound)
	t.Run("retry", testEndToEndRetry)
	t.Run("response timeout", testEndToEndResponseTimeout)
	t.Run("overall timeout", testEndToEndOverallTimeout)
	t.Run("abort", testEndToEndAbort)
	t.Run("refused", testEndToEndRefused)
}

func testEndToEndEcho(t *testing.T) {
	forEachTransport(t, func(t *testing.T, server *httptest.Server, factory transport.Factory) {
		a := &Agent{Transport: factory}
		i := &serverInstruction{StatusCode: 201, Echo: true}

		res, err := a.Post(server.URL+"/items").
			Set(instructionHeader, i.String()).
			Set("X-Custom", "yes").
			Query(map[string]interface{}{"page": 2, "tag": []string{"a b", "c"}}).
			Send(map[string]interface{}{"name": "x"}).
			Send(map[string]interface{}{"n": 1}).
			Do()

		require.NoError(t, err)
		assert.True(t, res.Created())
		assert.Equal(t, "application/json", res.Type)
		body, ok := res.Body.(map[string]interface{})
		require.True(t, ok, "body is %T", res.Body)
		assert.Equal(t, "POST", body["method"])
		assert.Equal(t, "page=2&tag=a%20b&tag=c", body["query"])
		assert.JSONEq(t, `{"name":"x","n":1}`, body["body"].(string))
		header := body["header"].(map[string]interface{})
		assert.Equal(t, "yes", header["X-Custom"])
		assert.Equal(t, "application/json", header["Content-Type"])
	})
}

func testEndToEndMultipart(t *testing.T) {
	forEachTransport(t, func(t *testing.T, server *httptest.Server, factory transport.Factory) {
		a := &Agent{Transport: factory}
		i := &serverInstruction{StatusCode: 200, Echo: true}

		res, err := a.Post(server.URL).
			Set(instructionHeader, i.String()).
			Field("user", "tobi").
			Attach("doc", "hello world", "hello.txt").
			Do()

		require.NoError(t, err)
		body := res.Body.(map[string]interface{})
		header := body["header"].(map[string]interface{})
		assert.True(t, strings.HasPrefix(header["Content-Type"].(string), "multipart/form-data; boundary="))
		sent := body["body"].(string)
		assert.Contains(t, sent, `name="user"`)
		assert.Contains(t, sent, `name="doc"; filename="hello.txt"`)
		assert.Contains(t, sent, "hello world")
	})
}

func testEndToEndHead(t *testing.T) {
	forEachTransport(t, func(t *testing.T, server *httptest.Server, factory transport.Factory) {
		a := &Agent{Transport: factory}
		i := &serverInstruction{StatusCode: 200, ContentType: "application/json"}

		res, err := a.Head(server.URL).Set(instructionHeader, i.String()).Do()

		require.NoError(t, err)
		assert.True(t, res.OK())
		assert.Nil(t, res.Body)
	})
}

func testEndToEndNotFound(t *testing.T) {
	forEachTransport(t, func(t *testing.T, server *httptest.Server, factory transport.Factory) {
		a := &Agent{Transport: factory}
		i := &serverInstruction{
			StatusCode:  404,
			ContentType: "text/plain",
			Body:        []bodyChunk{{Data: []byte("no such item")}},
		}

		res, err := a.Get(server.URL).Set(instructionHeader, i.String()).Do()

		assert.Nil(t, res)
		rerr := requireError(t, err)
		assert.Equal(t, request.KindHTTP, rerr.Kind)
		assert.Equal(t, request.Status(404), rerr.Status)
		require.NotNil(t, rerr.Response)
		assert.Equal(t, "no such item", rerr.Response.Text)
	})
}

func testEndToEndRetry(t *testing.T) {
	forEachTransport(t, func(t *testing.T, server *httptest.Server, factory transport.Factory) {
		a := &Agent{
			Transport:   factory,
			RetryPolicy: retry.NewPolicy(retry.Times(0), retry.NewFixedWaiter(5*time.Millisecond)),
		}
		i := &serverInstruction{
			StatusCode: 200,
			Body:       []bodyChunk{{Data: []byte("finally")}},
			FailKey:    t.Name(),
			FailTimes:  2,
		}

		f := a.Get(server.URL).Set(instructionHeader, i.String()).Retry(3).End(nil)
		res, err := f.Wait()

		require.NoError(t, err)
		assert.Equal(t, "finally", res.Text)
		assert.Equal(t, 2, f.Execution().Attempt)
	})
}

func testEndToEndResponseTimeout(t *testing.T) {
	forEachTransport(t, func(t *testing.T, server *httptest.Server, factory transport.Factory) {
		a := &Agent{Transport: factory}
		i := &serverInstruction{StatusCode: 200, HeaderPause: 500 * time.Millisecond}

		_, err := a.Get(server.URL).
			Set(instructionHeader, i.String()).
			Timeouts(timeout.Set{Response: 50 * time.Millisecond}).
			Do()

		rerr := requireError(t, err)
		assert.Equal(t, request.KindTimeout, rerr.Kind)
		assert.Equal(t, request.ResponsePhase, rerr.Phase)
		assert.Equal(t, request.ECONNABORTED, rerr.Code)
		assert.Equal(t, request.ETIMEDOUT, rerr.Errno)
		assert.True(t, rerr.Timeout())
	})
}

func testEndToEndOverallTimeout(t *testing.T) {
	forEachTransport(t, func(t *testing.T, server *httptest.Server, factory transport.Factory) {
		a := &Agent{Transport: factory}
		i := &serverInstruction{
			StatusCode: 200,
			Body: []bodyChunk{
				{Data: []byte("a")},
				{Pause: 500 * time.Millisecond, Data: []byte("b")},
			},
		}

		_, err := a.Get(server.URL).
			Set(instructionHeader, i.String()).
			Timeout(100 * time.Millisecond).
			Do()

		rerr := requireError(t, err)
		assert.Equal(t, request.KindTimeout, rerr.Kind)
		assert.Equal(t, request.Overall, rerr.Phase)
		assert.Equal(t, request.ETIME, rerr.Errno)
	})
}

func testEndToEndAbort(t *testing.T) {
	forEachTransport(t, func(t *testing.T, server *httptest.Server, factory transport.Factory) {
		a := &Agent{Transport: factory}
		i := &serverInstruction{StatusCode: 200, HeaderPause: 500 * time.Millisecond}
		r := a.Get(server.URL).Set(instructionHeader, i.String())

		f := r.End(nil)
		time.Sleep(50 * time.Millisecond)
		r.Abort()
		_, err := f.Wait()

		rerr := requireError(t, err)
		assert.Equal(t, request.KindAborted, rerr.Kind)
		assert.Equal(t, Aborted, r.State())
	})
}

func testEndToEndRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	t.Run("socket", func(t *testing.T) {
		a := &Agent{Transport: socket.New(nil)}
		_, err := a.Get(url).Do()
		rerr := requireError(t, err)
		assert.Equal(t, request.KindNetwork, rerr.Kind)
		assert.Equal(t, request.ECONNREFUSED, rerr.Code)
	})
	t.Run("xhr", func(t *testing.T) {
		a := &Agent{Transport: xhr.New(nil)}
		_, err := a.Get(url).Do()
		rerr := requireError(t, err)
		assert.True(t, rerr.CrossDomain)
	})
}
