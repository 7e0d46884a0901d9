package gbt

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bsv-blockchain/blkmaker/errors"
	"github.com/bsv-blockchain/blkmaker/ulogger"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestEncoding(t *testing.T) {
	t.Run("submitblock", func(t *testing.T) {
		b, err := NewSubmitBlockRequest(1, "00ff", "").Bytes()
		require.NoError(t, err)
		assert.JSONEq(t, `{"jsonrpc":"1.0","id":1,"method":"submitblock","params":["00ff"]}`, string(b))
	})

	t.Run("submitblock with work id", func(t *testing.T) {
		b, err := NewSubmitBlockRequest("x", "00ff", "abc").Bytes()
		require.NoError(t, err)
		assert.JSONEq(t, `{"jsonrpc":"1.0","id":"x","method":"submitblock","params":["00ff",{"workid":"abc"}]}`, string(b))
	})

	t.Run("getblocktemplate", func(t *testing.T) {
		b, err := NewGetBlockTemplateRequest(7).Bytes()
		require.NoError(t, err)
		assert.JSONEq(t, `{"jsonrpc":"1.0","id":7,"method":"getblocktemplate","params":[{"capabilities":["coinbasetxn","coinbasevalue","workid","coinbase/append","time/increment"],"rules":["csv"]}]}`, string(b))
	})
}

// newTestNode answers every request with response and hands the request to inspect.
func newTestNode(t *testing.T, response string, inspect func(req *Request)) *Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if !assert.NoError(t, err) {
			return
		}

		var req Request
		if assert.NoError(t, json.Unmarshal(body, &req)) && inspect != nil {
			inspect(&req)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)

	return NewClient(ulogger.TestLogger{}, server.URL)
}

func TestClientGetBlockTemplate(t *testing.T) {
	data, err := json.Marshal(block34424Result(t))
	require.NoError(t, err)

	client := newTestNode(t, `{"result":`+string(data)+`,"error":null,"id":"blkmaker"}`, func(req *Request) {
		assert.Equal(t, "getblocktemplate", req.Method)
	})

	result, err := client.GetBlockTemplate(context.Background())
	require.NoError(t, err)

	tmpl, err := newTestDecoder(t).Decode(result, receivedAt)
	require.NoError(t, err)
	assert.Equal(t, uint32(34424), tmpl.Height)
}

func TestClientSubmitBlock(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		client := newTestNode(t, `{"result":null,"error":null,"id":"blkmaker"}`, func(req *Request) {
			assert.Equal(t, "submitblock", req.Method)
			assert.Equal(t, []interface{}{"00ff", map[string]interface{}{"workid": "w"}}, req.Params)
		})

		require.NoError(t, client.SubmitBlock(context.Background(), "00ff", "w"))
	})

	t.Run("rejected", func(t *testing.T) {
		client := newTestNode(t, `{"result":"high-hash","error":null,"id":"blkmaker"}`, nil)

		err := client.SubmitBlock(context.Background(), "00ff", "")
		assert.True(t, errors.Is(err, errors.ErrBlockInvalid))
		assert.Contains(t, err.Error(), "high-hash")
	})

	t.Run("rpc error", func(t *testing.T) {
		client := newTestNode(t, `{"result":null,"error":{"code":-22,"message":"Block decode failed"},"id":"blkmaker"}`, nil)

		err := client.SubmitBlock(context.Background(), "00ff", "")
		assert.True(t, errors.Is(err, errors.ErrServiceError))
		assert.Contains(t, err.Error(), "Block decode failed")
	})

	t.Run("unreachable", func(t *testing.T) {
		client := NewClient(ulogger.TestLogger{}, "http://127.0.0.1:1", WithRetries(2, time.Millisecond))

		err := client.SubmitBlock(context.Background(), "00ff", "")
		assert.True(t, errors.Is(err, errors.ErrServiceUnavailable))
	})
}

// newMockedClient routes the client's requests through an httpmock transport.
func newMockedClient(retries int) (*Client, *httpmock.MockTransport) {
	client := NewClient(ulogger.TestLogger{}, "http://node:8332", WithRetries(retries, time.Millisecond))

	transport := httpmock.NewMockTransport()
	client.client.Transport = transport

	return client, transport
}

func TestClientRetries(t *testing.T) {
	t.Run("transport failures are retried", func(t *testing.T) {
		client, transport := newMockedClient(3)

		var calls atomic.Int32

		transport.RegisterResponder(http.MethodPost, "http://node:8332", func(*http.Request) (*http.Response, error) {
			if calls.Add(1) < 3 {
				return httpmock.NewStringResponse(http.StatusServiceUnavailable, ""), nil
			}

			return httpmock.NewStringResponse(http.StatusOK, `{"result":null,"error":null,"id":"blkmaker"}`), nil
		})

		require.NoError(t, client.SubmitBlock(context.Background(), "00ff", ""))
		assert.Equal(t, 3, transport.GetTotalCallCount())
	})

	t.Run("attempts run out", func(t *testing.T) {
		client, transport := newMockedClient(2)

		transport.RegisterResponder(http.MethodPost, "http://node:8332", httpmock.NewErrorResponder(io.ErrUnexpectedEOF))

		_, err := client.GetBlockTemplate(context.Background())
		assert.True(t, errors.Is(err, errors.ErrServiceUnavailable))
		assert.Equal(t, 2, transport.GetTotalCallCount())
	})

	t.Run("parse failures are not retried", func(t *testing.T) {
		client, transport := newMockedClient(3)

		transport.RegisterResponder(http.MethodPost, "http://node:8332", httpmock.NewStringResponder(http.StatusUnauthorized, "unauthorized"))

		_, err := client.GetBlockTemplate(context.Background())
		assert.True(t, errors.Is(err, errors.ErrProcessing))
		assert.Equal(t, 1, transport.GetTotalCallCount())
	})

	t.Run("rejections are not retried", func(t *testing.T) {
		var rejections atomic.Int32

		client := newTestNode(t, `{"result":"duplicate","error":null,"id":"blkmaker"}`, func(*Request) {
			rejections.Add(1)
		})
		client.retryCount = 5

		err := client.SubmitBlock(context.Background(), "00ff", "")
		assert.True(t, errors.Is(err, errors.ErrBlockInvalid))
		assert.Equal(t, int32(1), rejections.Load())
	})

	t.Run("rpc errors are not retried", func(t *testing.T) {
		var requests atomic.Int32

		client := newTestNode(t, `{"result":null,"error":{"code":-8,"message":"bad"},"id":"blkmaker"}`, func(*Request) {
			requests.Add(1)
		})
		client.retryCount = 5

		_, err := client.GetBlockTemplate(context.Background())
		assert.True(t, errors.Is(err, errors.ErrServiceError))
		assert.Equal(t, int32(1), requests.Load())
	})
}
